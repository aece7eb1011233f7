package scraper

import (
	"context"
	"os"
	"testing"
	"time"
)

// The live tests talk to the real portal. They only run with ORARICTL_LIVE=1;
// a failure usually means the portal changed its response format or is down.
func requireLive(t *testing.T) {
	t.Helper()
	if os.Getenv("ORARICTL_LIVE") == "" {
		t.Skip("set ORARICTL_LIVE=1 to run tests against the live portal")
	}
}

func TestScraperIntegration_FetchCourses(t *testing.T) {
	requireLive(t)
	client := NewClient()

	courses, err := client.FetchCourses(context.Background())
	if err != nil {
		t.Fatalf("Failed to fetch courses from the portal: %v", err)
	}
	if len(courses) == 0 {
		t.Fatalf("Expected to find study courses, but got 0")
	}

	if found := SearchCourses(courses, "informatica"); len(found) == 0 {
		t.Errorf("Could not find 'Informatica' in the course list. Did the university rename the programmes?")
	}
}

func TestScraperIntegration_FetchWeeklyLessons(t *testing.T) {
	requireLive(t)
	client := NewClient()

	courses, err := client.FetchCourses(context.Background())
	if err != nil || len(courses) == 0 {
		t.Fatalf("Failed to fetch courses from the portal: %v", err)
	}

	// An out-of-term week is legitimately empty; this only checks that the
	// request is accepted and whatever comes back is well formed.
	lessons, err := client.FetchWeeklyLessons(context.Background(), courses[0].ID, 1, 0, WeekStart(time.Now()))
	if err != nil {
		t.Fatalf("Failed to fetch lessons for %s: %v", courses[0].Name, err)
	}
	for _, l := range lessons {
		if l.Title == "" || l.StartTime == "" || l.EndTime == "" {
			t.Errorf("Parsed lesson is missing critical fields: %+v", l)
		}
	}
}

func TestScraperIntegration_FetchRoomAgenda(t *testing.T) {
	requireLive(t)
	client := NewClient()

	buildings, err := client.FetchBuildings(context.Background())
	if err != nil || len(buildings) == 0 {
		t.Fatalf("Failed to fetch buildings from the portal: %v", err)
	}

	if _, err := client.FetchRoomAgenda(context.Background(), time.Now(), buildings[0].ID); err != nil {
		t.Fatalf("Failed to fetch room agenda for %s: %v", buildings[0].Name, err)
	}
}
