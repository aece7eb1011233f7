package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
)

var (
	weekdays = [...]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"}
	months   = [...]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// DayHeader renders a day the Italian way, e.g. "Lunedì 10 marzo 2025".
func DayHeader(t time.Time) string {
	t = t.In(scraper.Location())
	weekday := cases.Title(language.Italian).String(weekdays[t.Weekday()])
	return fmt.Sprintf("%s %d %s %d", weekday, t.Day(), months[t.Month()-1], t.Year())
}

// WeekHeader names the week starting at week together with its academic
// year. A non-positive academicYear means the one containing week.
func WeekHeader(week time.Time, academicYear int) string {
	if academicYear <= 0 {
		academicYear = scraper.CurrentAcademicYear(week)
	}
	return fmt.Sprintf("Settimana dal %s · A.A. %s", DayHeader(week), scraper.AcademicYearLabel(academicYear))
}

// StaleNotice describes a result served from the offline snapshot, or "" for fresh data.
func StaleNotice(stale offline.Stale) string {
	if !stale.IsStale() {
		return ""
	}
	return warnStyle.Render(fmt.Sprintf("⚠ Portale non raggiungibile: dati salvati il %s",
		stale.SavedAt.In(scraper.Location()).Format("02/01/2006 15:04")))
}

// RenderLessons prints lessons grouped by day.
func RenderLessons(w io.Writer, lessons []scraper.Lesson) {
	if len(lessons) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nessuna lezione in questa settimana."))
		return
	}

	var current time.Time
	for _, l := range lessons {
		if !l.Date.Equal(current) {
			current = l.Date
			fmt.Fprintln(w, accentStyle.Bold(true).Render("\n"+DayHeader(l.Date)))
		}
		fmt.Fprintf(w, "  %s  %s\n", timeStyle.Render(l.StartTime+"–"+l.EndTime), l.Title)
		fmt.Fprintf(w, "               %s\n", dimStyle.Render(fmt.Sprintf("%s · %s · %s", l.Room, l.Building, l.Professor)))
	}
}

// RenderAgendas prints the bookings of every room.
func RenderAgendas(w io.Writer, agendas []scraper.RoomAgenda) {
	if len(agendas) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nessuna prenotazione."))
		return
	}
	for _, a := range agendas {
		fmt.Fprintln(w, accentStyle.Bold(true).Render(a.RoomName))
		for _, l := range a.Lessons {
			fmt.Fprintf(w, "  %s  %s %s\n", timeStyle.Render(l.FromTime+"–"+l.ToTime), l.Subject,
				dimStyle.Render(fmt.Sprintf("(%s · %s)", l.Professor, l.CourseName)))
		}
	}
}

// RenderFreeSlots prints the free intervals, one room per line.
func RenderFreeSlots(w io.Writer, slots []scraper.FreeRoomSlot) {
	if len(slots) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nessuna aula libera."))
		return
	}

	var (
		room      string
		intervals []string
	)
	flush := func() {
		if room != "" {
			fmt.Fprintf(w, "%s  %s\n", accentStyle.Render(room), timeStyle.Render(strings.Join(intervals, ", ")))
		}
	}
	for _, s := range slots {
		if s.RoomName != room {
			flush()
			room, intervals = s.RoomName, nil
		}
		intervals = append(intervals, s.FromTime+"–"+s.ToTime)
	}
	flush()
}
