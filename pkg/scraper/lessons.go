package scraper

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"orarictl/pkg/record"
	"orarictl/pkg/textutil"
)

const gridPath = "grid_call.php"

const (
	missingRoom      = "Aula non disponibile"
	missingBuilding  = "Edificio non specificato"
	missingProfessor = "Docente non disponibile"
)

var (
	lessonListKeys    = []string{"celle", "events", "lessons"}
	lessonTitleKeys   = []string{"nome_insegnamento", "name", "nome", "subject", "insegnamento"}
	lessonDateKeys    = []string{"data", "date", "giorno"}
	lessonRoomKeys    = []string{"aula", "room", "NomeAula"}
	professorKeys     = []string{"docente", "prof", "nome_docente"}
	rawIDKeys         = []string{"id", "identifier_cell"}
	startTimeKeys     = []string{"ora_inizio", "from_time", "from", "inizio"}
	endTimeKeys       = []string{"ora_fine", "to_time", "to", "fine"}
	lessonDateLayouts = []string{"02-01-2006", "2006-01-02", "02/01/2006", "2006/01/02", "02.01.2006", "2-1-2006", "2/1/2006", "2.1.2006"}
	roomSeparators    = []string{" - ", " – ", ", "}
)

// ParseWeeklyLessons normalizes a grid response into lessons ordered by day and
// start time. Records without a title, a date or a time range are dropped, as
// are repeats of an already seen lesson.
func ParseWeeklyLessons(root map[string]any) []Lesson {
	var raw []record.Record
	for _, key := range lessonListKeys {
		if raw = record.Objects(root[key]); len(raw) > 0 {
			break
		}
	}

	seen := make(map[string]bool, len(raw))
	lessons := make([]Lesson, 0, len(raw))
	for _, rec := range raw {
		lesson, ok := parseLesson(rec)
		if !ok || seen[lesson.ID] {
			continue
		}
		seen[lesson.ID] = true
		lessons = append(lessons, lesson)
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		if !lessons[i].Date.Equal(lessons[j].Date) {
			return lessons[i].Date.Before(lessons[j].Date)
		}
		return lessons[i].StartTime < lessons[j].StartTime
	})
	return lessons
}

func parseLesson(rec record.Record) (Lesson, bool) {
	title, ok := rec.First(lessonTitleKeys...)
	if !ok {
		return Lesson{}, false
	}
	rawDate, _ := rec.First(lessonDateKeys...)
	date, ok := parseLessonDate(rawDate)
	if !ok {
		return Lesson{}, false
	}
	start, end, ok := recordTimeRange(rec)
	if !ok {
		if start, end, ok = parseTimeRange(rec["orario"]); !ok {
			if start, end, ok = parseTimeRange(rec["time"]); !ok {
				return Lesson{}, false
			}
		}
	}

	startTime := textutil.NormalizeTime(start)
	endTime := textutil.NormalizeTime(end)
	room := rec.FirstOr(missingRoom, lessonRoomKeys...)

	building, ok := rec.First("NomeSede")
	if !ok {
		if building, ok = extractBuilding(room); !ok {
			building = missingBuilding
		}
	}

	professor, ok := record.Joined(rec["docenti"])
	if !ok {
		professor = rec.FirstOr(missingProfessor, professorKeys...)
	}

	rawID, ok := rec.First(rawIDKeys...)
	if !ok {
		rawID = uuid.NewString()
	}

	return Lesson{
		ID:        fmt.Sprintf("%s-%s-%s-%s-%s", rawID, FormatDate(date), startTime, endTime, room),
		Title:     title,
		Professor: professor,
		Room:      room,
		Building:  building,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
	}, true
}

// parseLessonDate tries the known day layouts in order, then a Unix timestamp
// in seconds. The result is midnight in the portal time zone.
func parseLessonDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range lessonDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, portalLocation); err == nil {
			return StartOfDay(t), true
		}
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		whole, frac := math.Modf(secs)
		return StartOfDay(time.Unix(int64(whole), int64(frac*1e9))), true
	}
	return time.Time{}, false
}

// recordTimeRange reads explicit start/end fields.
func recordTimeRange(rec record.Record) (string, string, bool) {
	start, okStart := rec.First(startTimeKeys...)
	end, okEnd := rec.First(endTimeKeys...)
	if !okStart || !okEnd {
		return "", "", false
	}
	return start, end, true
}

// parseTimeRange understands "08:30 - 10:30" (hyphen, en or em dash), a
// two-element array, or an object with start/end fields.
func parseTimeRange(v any) (string, string, bool) {
	switch x := v.(type) {
	case string:
		sanitized := strings.ReplaceAll(x, " - ", "-")
		for _, sep := range []string{"-", "–", "—"} {
			parts := strings.SplitN(sanitized, sep, 2)
			if len(parts) != 2 {
				continue
			}
			start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if start != "" && end != "" {
				return start, end, true
			}
		}
	case []any:
		if len(x) >= 2 {
			start, _ := record.String(x[0])
			end, _ := record.String(x[1])
			if start != "" && end != "" {
				return start, end, true
			}
		}
	case map[string]any:
		return recordTimeRange(record.Record(x))
	}
	return "", "", false
}

// extractBuilding infers the building from a room label: "Aula T.1 [Borgo Roma]"
// or "Aula T.1 - Borgo Roma".
func extractBuilding(room string) (string, bool) {
	if open := strings.LastIndex(room, "["); open >= 0 {
		if closing := strings.Index(room[open:], "]"); closing > 0 {
			if b := strings.TrimSpace(room[open+1 : open+closing]); b != "" {
				return b, true
			}
		}
	}

	normalized := strings.ReplaceAll(room, "  ", " ")
	for _, sep := range roomSeparators {
		if i := strings.LastIndex(normalized, sep); i >= 0 {
			if b := strings.TrimSpace(normalized[i+len(sep):]); b != "" {
				return b, true
			}
		}
	}
	return "", false
}

// FetchWeeklyLessons downloads the lessons of one course year for the week
// starting at weekStart. A non-positive academicYear falls back to the year
// the course was last listed in, then to the current one.
func (c *Client) FetchWeeklyLessons(ctx context.Context, courseID string, courseYear, academicYear int, weekStart time.Time) ([]Lesson, error) {
	year := max(courseYear, 1)
	option := c.resolveYearOption(ctx, courseID, year)

	if academicYear <= 0 {
		if cached, ok := c.years.AcademicYear(courseID); ok {
			academicYear = cached
		} else {
			academicYear = CurrentAcademicYear(c.now())
		}
	}

	body, err := c.get(ctx, gridPath, url.Values{
		"view":       {"easycourse"},
		"include":    {"corso"},
		"_lang":      {"it"},
		"all_events": {"0"},
		"anno":       {strconv.Itoa(academicYear)},
		"corso":      {courseID},
		"date":       {FormatDate(weekStart)},
		"txtcurr":    {option.Label},
		"anno2[]":    {option.ParameterValue},
	})
	if err != nil {
		return nil, err
	}

	root, err := decodeRootObject(body)
	if err != nil {
		return nil, newError(KindInvalidResponse, gridPath, err)
	}
	return ParseWeeklyLessons(root), nil
}

// resolveYearOption looks up the year token for a course, fetching catalogs
// for the candidate academic years until the course shows up.
func (c *Client) resolveYearOption(ctx context.Context, courseID string, year int) CourseYearOption {
	if _, ok := c.years.Options(courseID); !ok {
		for _, academicYear := range CandidateAcademicYears(c.now()) {
			if _, err := c.fetchCourses(ctx, academicYear); err != nil {
				c.logger.Printf("Year options bootstrap for %s (%d): %v", courseID, academicYear, err)
			}
			if _, ok := c.years.Options(courseID); ok {
				break
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	options, _ := c.years.Options(courseID)
	if option, ok := SelectYearOption(options, year); ok {
		return option
	}
	return FallbackYearOption(year)
}
