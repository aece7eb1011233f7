package scraper

import (
	"fmt"
	"time"
)

// portalLocation is the time zone every portal date is interpreted in.
var portalLocation = loadPortalLocation()

const apiDateLayout = "2006-01-02"

func loadPortalLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		return time.Local
	}
	return loc
}

// Location returns the portal time zone (Europe/Rome).
func Location() *time.Location {
	return portalLocation
}

// StartOfDay returns local midnight of t's calendar day in the portal time zone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(portalLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, portalLocation)
}

// WeekStart returns the Monday of the week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// FormatDate renders a calendar day the way the portal expects (yyyy-MM-dd).
func FormatDate(t time.Time) string {
	return StartOfDay(t).Format(apiDateLayout)
}

// ParseDate reads a yyyy-MM-dd day in the portal time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(apiDateLayout, s, portalLocation)
}

// CurrentAcademicYear returns the starting year of the academic year that
// contains now. Academic years start in August.
func CurrentAcademicYear(now time.Time) int {
	now = now.In(portalLocation)
	if now.Month() >= time.August {
		return now.Year()
	}
	return now.Year() - 1
}

// CandidateAcademicYears lists the academic years to try, most likely first.
func CandidateAcademicYears(now time.Time) []int {
	current := CurrentAcademicYear(now)
	return []int{current, current - 1, current + 1, current - 2}
}

// AcademicYearLabel formats 2025 as "2025/26".
func AcademicYearLabel(academicYear int) string {
	return fmt.Sprintf("%d/%02d", academicYear, (academicYear+1)%100)
}
