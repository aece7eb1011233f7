package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"orarictl/pkg/record"
	"orarictl/pkg/textutil"
)

const roomsPath = "rooms_call.php"

// lastSlotMinutes is the nominal length of the final time slot of the day,
// used to close a free interval that runs to the end of the grid.
const lastSlotMinutes = 10

// endOfDay is the latest time a free interval may end at.
const endOfDay = "23:59"

const (
	unknownRoom      = "Aula sconosciuta"
	defaultSubject   = "Lezione"
	missingCourse    = "Corso non specificato"
	roomNameFallback = "Aula %s"
)

var (
	roomNameKeys      = []string{"room_name", "nome", "name"}
	roomCodeKeys      = []string{"room_code", "CodiceAula"}
	fasciaLabelKeys   = []string{"label", "nome", "value"}
	bookingCodeKeys   = []string{"CodiceAula", "codice_aula", "room_code"}
	bookingRoomKeys   = []string{"NomeAula", "aula", "room_name"}
	bookingTitleKeys  = []string{"name", "nome", "nome_insegnamento", "subject", "insegnamento"}
	bookingCourseKeys = []string{"nome_corso", "corso", "faculty"}
	cellIDKeys        = []string{"id", "identifier_cell", "name", "nome"}
	cellFromKeys      = []string{"from", "from_time", "ora_inizio"}
	cellToKeys        = []string{"to", "to_time", "ora_fine"}
	legacyRoomKeys    = []string{"room_name", "aula", "room"}
	legacyFromKeys    = []string{"from_time", "from", "inizio"}
	legacyToKeys      = []string{"to_time", "to", "fine"}
)

// roomBooking is an occupancy record plus the table row it came from, if any.
type roomBooking struct {
	roomCode string
	payload  record.Record
}

// ParseRoomOccupancy builds the per-room agendas and the free intervals of a
// rooms_call.php response.
func ParseRoomOccupancy(root map[string]any) RoomOccupancy {
	names := parseRoomNamesByCode(root["all_rooms"])
	rows := extractTableRows(root["table"])
	fasce := parseFasceLabels(root["fasce"])

	var bookings []roomBooking
	for _, rec := range record.Objects(root["events"]) {
		bookings = append(bookings, roomBooking{payload: rec})
	}
	if len(bookings) == 0 {
		bookings = extractBookingsFromTable(rows)
	}

	byRoom := make(map[string][]RoomLesson)
	seen := make(map[string]bool)
	for _, b := range bookings {
		roomName, lesson, ok := parseRoomLesson(b.payload, b.roomCode, names)
		if !ok || seen[lesson.ID] {
			continue
		}
		seen[lesson.ID] = true
		byRoom[roomName] = append(byRoom[roomName], lesson)
	}

	agendas := make([]RoomAgenda, 0, len(byRoom))
	for roomName, lessons := range byRoom {
		sort.SliceStable(lessons, func(i, j int) bool {
			return lessons[i].FromTime < lessons[j].FromTime
		})
		agendas = append(agendas, RoomAgenda{ID: roomName, RoomName: roomName, Lessons: lessons})
	}
	col := newNameCollator()
	sort.SliceStable(agendas, func(i, j int) bool {
		return col.CompareString(agendas[i].RoomName, agendas[j].RoomName) < 0
	})

	free := DeriveFreeSlots(rows, fasce, names)
	if len(free) == 0 {
		free = parseLegacyFreeSlots(root["aule_libere"])
	}
	sortFreeSlots(free)

	return RoomOccupancy{Agendas: agendas, FreeSlots: free}
}

// DeriveFreeSlots scans every room's slot cells in chronological order and
// emits one FreeRoomSlot per maximal run of empty cells. fasce holds the
// start label of each slot; a run that reaches the last slot ends
// lastSlotMinutes after the final label.
func DeriveFreeSlots(rows map[string][]any, fasce []string, names map[string]string) []FreeRoomSlot {
	if len(rows) == 0 || len(fasce) == 0 {
		return nil
	}

	var slots []FreeRoomSlot
	for _, code := range record.SortedKeys(rows) {
		cells := rows[code]
		n := min(len(cells), len(fasce))
		if n == 0 {
			continue
		}

		roomName, ok := names[code]
		if !ok {
			roomName = fmt.Sprintf(roomNameFallback, code)
		}

		free := make([]bool, n)
		for i := 0; i < n; i++ {
			free[i] = isFreeSlot(cells[i])
		}

		for _, run := range freeRuns(free) {
			from, to, ok := runBounds(fasce, run[0], run[1])
			if !ok {
				continue
			}
			slots = append(slots, FreeRoomSlot{
				ID:       fmt.Sprintf("%s-%s-%s", roomName, from, to),
				RoomName: roomName,
				FromTime: from,
				ToTime:   to,
			})
		}
	}
	return slots
}

type runState int

const (
	noRun runState = iota
	inRun
)

// freeRuns returns the [start, end) index pairs of every maximal run of true
// values in free.
func freeRuns(free []bool) [][2]int {
	var runs [][2]int
	state, start := noRun, 0
	for i, f := range free {
		switch {
		case state == noRun && f:
			state, start = inRun, i
		case state == inRun && !f:
			runs = append(runs, [2]int{start, i})
			state = noRun
		}
	}
	if state == inRun {
		runs = append(runs, [2]int{start, len(free)})
	}
	return runs
}

// runBounds turns a slot run into wall-clock bounds within one day. A tail
// extension that would cross midnight is clamped to endOfDay; any other
// interval that does not move forward in time is rejected.
func runBounds(fasce []string, start, end int) (string, string, bool) {
	if end <= start || start >= len(fasce) {
		return "", "", false
	}

	from := textutil.NormalizeTime(fasce[start])
	var to string
	if end < len(fasce) {
		to = textutil.NormalizeTime(fasce[end])
	} else {
		last := textutil.NormalizeTime(fasce[len(fasce)-1])
		var ok bool
		if to, ok = textutil.AddMinutes(lastSlotMinutes, last); !ok {
			to = last
		} else if to < last {
			to = endOfDay
		}
	}

	if from == to {
		return "", "", false
	}
	if isClock(from) && isClock(to) && to < from {
		return "", "", false
	}
	return from, to, true
}

// isClock reports whether s is a normalized "HH:MM" time, which orders
// correctly as a string.
func isClock(s string) bool {
	out, ok := textutil.AddMinutes(0, s)
	return ok && out == s
}

// isFreeSlot reports whether a table cell has no booking.
func isFreeSlot(cell any) bool {
	return record.IsBlank(cell)
}

func parseRoomNamesByCode(v any) map[string]string {
	names := make(map[string]string)
	m, ok := v.(map[string]any)
	if !ok {
		return names
	}

	for _, key := range record.SortedKeys(m) {
		room, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		rec := record.Record(room)

		name := rec.FirstOr(key, roomNameKeys...)
		names[key] = name
		if code, ok := rec.First(roomCodeKeys...); ok {
			names[code] = name
		}
		if id, ok := record.String(rec["id"]); ok {
			names[id] = name
		}
	}
	return names
}

// parseFasceLabels reads slot start labels; entries may be plain strings or
// objects with a label.
func parseFasceLabels(v any) []string {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case map[string]any:
		for _, k := range record.SortedKeys(x) {
			items = append(items, x[k])
		}
	}

	var labels []string
	for _, item := range items {
		switch x := item.(type) {
		case string:
			if s, ok := textutil.FirstNonEmpty(x); ok {
				labels = append(labels, s)
			}
		case map[string]any:
			if s, ok := record.Record(x).First(fasciaLabelKeys...); ok {
				labels = append(labels, s)
			}
		}
	}
	return labels
}

func extractTableRows(v any) map[string][]any {
	rows := make(map[string][]any)
	m, ok := v.(map[string]any)
	if !ok {
		return rows
	}
	for code, cells := range m {
		if arr, ok := cells.([]any); ok {
			rows[code] = arr
		}
	}
	return rows
}

// extractBookingsFromTable turns the occupied cells of the table into
// bookings, dropping repeats of a lesson spanning several slots.
func extractBookingsFromTable(rows map[string][]any) []roomBooking {
	var bookings []roomBooking
	seen := make(map[string]bool)

	for _, code := range record.SortedKeys(rows) {
		for _, cell := range rows[code] {
			m, ok := cell.(map[string]any)
			if !ok || len(m) == 0 {
				continue
			}
			rec := record.Record(m)

			from := textutil.NormalizeTime(rec.FirstOr("", cellFromKeys...))
			to := textutil.NormalizeTime(rec.FirstOr("", cellToKeys...))
			identifier, ok := rec.First(cellIDKeys...)
			if !ok {
				identifier = uuid.NewString()
			}

			key := fmt.Sprintf("%s-%s-%s-%s", code, identifier, from, to)
			if seen[key] {
				continue
			}
			seen[key] = true
			bookings = append(bookings, roomBooking{roomCode: code, payload: rec})
		}
	}
	return bookings
}

func parseRoomLesson(rec record.Record, fallbackCode string, names map[string]string) (string, RoomLesson, bool) {
	start, end, ok := recordTimeRange(rec)
	if !ok {
		if start, end, ok = parseTimeRange(rec["orario"]); !ok {
			return "", RoomLesson{}, false
		}
	}

	code, hasCode := rec.First(bookingCodeKeys...)
	if !hasCode {
		code, hasCode = textutil.FirstNonEmpty(fallbackCode)
	}

	roomName, ok := rec.First(bookingRoomKeys...)
	if !ok && hasCode {
		roomName, ok = names[code]
	}
	if !ok {
		roomName, ok = names[rec.Raw("room")]
	}
	if !ok || roomName == "" {
		roomName = unknownRoom
	}

	subject := rec.FirstOr(defaultSubject, bookingTitleKeys...)

	professor, ok := record.Joined(rec["docenti"])
	if !ok {
		professor = rec.FirstOr(missingProfessor, professorKeys...)
	}

	course, ok := record.Joined(rec["insegnamenti"])
	if !ok {
		course = rec.FirstOr(missingCourse, bookingCourseKeys...)
	}

	fromTime := textutil.NormalizeTime(start)
	toTime := textutil.NormalizeTime(end)

	rawID, ok := rec.First(rawIDKeys...)
	if !ok {
		rawID = uuid.NewString()
	}

	return roomName, RoomLesson{
		ID:         fmt.Sprintf("%s-%s-%s-%s-%s", rawID, roomName, fromTime, toTime, subject),
		Subject:    subject,
		Professor:  professor,
		CourseName: course,
		FromTime:   fromTime,
		ToTime:     toTime,
	}, true
}

// parseLegacyFreeSlots reads the flat `aule_libere` list older responses carry.
func parseLegacyFreeSlots(v any) []FreeRoomSlot {
	var slots []FreeRoomSlot
	for _, rec := range record.Objects(v) {
		room, okRoom := rec.First(legacyRoomKeys...)
		from, okFrom := rec.First(legacyFromKeys...)
		to, okTo := rec.First(legacyToKeys...)
		if !okRoom || !okFrom || !okTo {
			continue
		}
		from, to = textutil.NormalizeTime(from), textutil.NormalizeTime(to)
		slots = append(slots, FreeRoomSlot{
			ID:       fmt.Sprintf("%s-%s-%s", room, from, to),
			RoomName: room,
			FromTime: from,
			ToTime:   to,
		})
	}
	return slots
}

func sortFreeSlots(slots []FreeRoomSlot) {
	col := newNameCollator()
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].RoomName != slots[j].RoomName {
			if c := col.CompareString(slots[i].RoomName, slots[j].RoomName); c != 0 {
				return c < 0
			}
			return slots[i].RoomName < slots[j].RoomName
		}
		return slots[i].FromTime < slots[j].FromTime
	})
}

// FetchRoomAgenda downloads the room occupancy of one day, optionally limited
// to a building.
func (c *Client) FetchRoomAgenda(ctx context.Context, date time.Time, buildingID string) (RoomOccupancy, error) {
	query := url.Values{
		"all_events": {"true"},
		"view":       {"easyroom"},
		"include":    {"occupazione"},
		"_lang":      {"it"},
		"date":       {FormatDate(date)},
	}
	if buildingID != "" {
		query.Set("sede", buildingID)
	}

	body, err := c.get(ctx, roomsPath, query)
	if err != nil {
		return RoomOccupancy{}, err
	}

	root, err := decodeRootObject(body)
	if err != nil {
		return RoomOccupancy{}, newError(KindInvalidResponse, roomsPath, err)
	}
	return ParseRoomOccupancy(root), nil
}
