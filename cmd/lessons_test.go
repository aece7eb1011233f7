package cmd

import (
	"testing"
	"time"

	"orarictl/pkg/config"
	"orarictl/pkg/scraper"

	"github.com/spf13/cobra"
)

func newSelectionCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addCourseFlags(c)
	if err := c.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	return c
}

func TestCourseSelectionUsesConfigDefaults(t *testing.T) {
	cfg := &config.AppConfig{CourseID: "420", CourseYear: 2, AcademicYear: 2024}
	sel, err := courseSelection(newSelectionCmd(t, "--week", "2025-03-12"), cfg)
	if err != nil {
		t.Fatalf("courseSelection: %v", err)
	}
	if sel.courseID != "420" || sel.year != 2 || sel.academicYear != 2024 {
		t.Errorf("got %+v, want config values", sel)
	}
	if got := scraper.FormatDate(sel.week); got != "2025-03-10" {
		t.Errorf("week = %s, want Monday 2025-03-10", got)
	}
}

func TestCourseSelectionFlagsOverrideConfig(t *testing.T) {
	cfg := &config.AppConfig{CourseID: "420", CourseYear: 2}
	sel, err := courseSelection(newSelectionCmd(t, "-c", "999", "-y", "3", "--aa", "2023"), cfg)
	if err != nil {
		t.Fatalf("courseSelection: %v", err)
	}
	if sel.courseID != "999" || sel.year != 3 || sel.academicYear != 2023 {
		t.Errorf("got %+v", sel)
	}
	if sel.week.Weekday() != time.Monday {
		t.Errorf("week %v does not start on Monday", sel.week)
	}
}

func TestCourseSelectionErrors(t *testing.T) {
	if _, err := courseSelection(newSelectionCmd(t), &config.AppConfig{}); err == nil {
		t.Error("expected an error without any course")
	}
	if _, err := courseSelection(newSelectionCmd(t, "-c", "1", "--week", "10/03/2025"), &config.AppConfig{}); err == nil {
		t.Error("expected an error for a malformed week")
	}
	sel, err := courseSelection(newSelectionCmd(t, "-c", "1"), &config.AppConfig{})
	if err != nil {
		t.Fatalf("courseSelection: %v", err)
	}
	if sel.year != 1 {
		t.Errorf("year = %d, want default 1", sel.year)
	}
}

func TestFirstSet(t *testing.T) {
	if got := firstSet("", "sqlite", "file"); got != "sqlite" {
		t.Errorf("firstSet = %q", got)
	}
	if got := firstSet("", ""); got != "" {
		t.Errorf("firstSet = %q, want empty", got)
	}
}
