package exporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"orarictl/pkg/scraper"
	"orarictl/pkg/textutil"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const productID = "-//orarictl//UniVR timetable//IT"

// GenerateICS creates an ICS file from the slice of lessons and writes it to the provided writer.
// A non-empty name becomes the calendar display name shown by subscribing clients.
func GenerateICS(name string, lessons []scraper.Lesson, w io.Writer) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	now := time.Now()
	for _, l := range lessons {
		start, ok := lessonTime(l.Date, l.StartTime)
		if !ok {
			continue // Lessons without a known time cannot be placed
		}
		end, ok := lessonTime(l.Date, l.EndTime)
		if !ok || !end.After(start) {
			continue
		}

		event := cal.AddEvent(eventUID(l))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetModifiedAt(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(l.Title)
		event.SetLocation(l.Room)
		event.SetDescription(fmt.Sprintf("Docente: %s\nEdificio: %s", l.Professor, l.Building))
	}

	return cal.SerializeTo(w)
}

// eventUID identifies a lesson by what it is rather than by its portal id,
// which is random for records the portal sends without one.
func eventUID(l scraper.Lesson) string {
	key := strings.Join([]string{scraper.FormatDate(l.Date), l.StartTime, l.EndTime, l.Title, l.Room}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@orarictl"
}

// lessonTime places an "HH:MM" wall-clock time on the lesson day in the
// portal time zone.
func lessonTime(day time.Time, hhmm string) (time.Time, bool) {
	hhmm = strings.TrimSpace(hhmm)
	if hhmm == "" || hhmm == textutil.MissingTime {
		return time.Time{}, false
	}
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	d := day.In(scraper.Location())
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, scraper.Location()), true
}
