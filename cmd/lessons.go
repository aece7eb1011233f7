package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"orarictl/pkg/config"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
	"orarictl/pkg/tui"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Show the weekly timetable of a course",
	Long: `Show the lessons of one course year for a week. Course and year default to
the ones saved with 'orarictl config'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		sel, err := courseSelection(cmd, s.cfg)
		if err != nil {
			return err
		}

		var lessons []scraper.Lesson
		var stale offline.Stale
		_ = spinner.New().
			Title(fmt.Sprintf("Fetching lessons for %s, year %d...", sel.courseID, sel.year)).
			Action(func() {
				lessons, stale, err = s.service.WeeklyLessons(context.Background(), sel.courseID, sel.year, sel.academicYear, sel.week)
			}).
			Run()

		if err != nil {
			return fmt.Errorf("could not fetch lessons: %w", err)
		}
		printStale(stale)

		if ok, err := printResult(lessons); ok || err != nil {
			return err
		}

		fmt.Println(tui.AccentStyle().Bold(true).Render(tui.WeekHeader(sel.week, sel.academicYear)))
		tui.RenderLessons(os.Stdout, lessons)
		return nil
	},
}

// selection is the course, year and week a command operates on.
type selection struct {
	courseID     string
	year         int
	academicYear int
	week         time.Time
}

// courseSelection reads --course, --year, --aa and --week, falling back to
// the saved configuration and the current week.
func courseSelection(cmd *cobra.Command, cfg *config.AppConfig) (selection, error) {
	sel := selection{courseID: cfg.CourseID, year: cfg.CourseYear, academicYear: cfg.AcademicYear}

	if v, _ := cmd.Flags().GetString("course"); v != "" {
		sel.courseID = v
	}
	if cmd.Flags().Changed("year") {
		sel.year, _ = cmd.Flags().GetInt("year")
	}
	if cmd.Flags().Changed("aa") {
		sel.academicYear, _ = cmd.Flags().GetInt("aa")
	}

	if sel.courseID == "" {
		return sel, fmt.Errorf("no course given: use --course or save one with 'orarictl config --course'")
	}
	if sel.year == 0 {
		sel.year = 1
	}
	if sel.year < 0 {
		return sel, fmt.Errorf("invalid course year %d", sel.year)
	}

	week := time.Now()
	if v, _ := cmd.Flags().GetString("week"); v != "" {
		d, err := scraper.ParseDate(v)
		if err != nil {
			return sel, fmt.Errorf("invalid --week %q, expected YYYY-MM-DD: %w", v, err)
		}
		week = d
	}
	sel.week = scraper.WeekStart(week)
	return sel, nil
}

func addCourseFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("course", "c", "", "Course ID (see 'orarictl courses')")
	cmd.Flags().IntP("year", "y", 0, "Course year (1 = first year)")
	cmd.Flags().Int("aa", 0, "Academic year, e.g. 2025 for 2025/26 (default: detected)")
	cmd.Flags().StringP("week", "w", "", "Any day of the week to show, YYYY-MM-DD (default: this week)")
}

func init() {
	rootCmd.AddCommand(lessonsCmd)
	addCourseFlags(lessonsCmd)
}
