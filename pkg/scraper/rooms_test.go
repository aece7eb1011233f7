package scraper

import (
	"reflect"
	"testing"
)

func TestDeriveFreeSlots(t *testing.T) {
	busy := map[string]any{"name": "Analisi"}
	rows := map[string][]any{
		"A1": {busy, "", nil, busy, []any{}},
	}
	fasce := []string{"08:00", "09:00", "10:00", "11:00", "12:00"}
	names := map[string]string{"A1": "Aula Magna"}

	got := DeriveFreeSlots(rows, fasce, names)
	want := []FreeRoomSlot{
		{ID: "Aula Magna-09:00-11:00", RoomName: "Aula Magna", FromTime: "09:00", ToTime: "11:00"},
		{ID: "Aula Magna-12:00-12:10", RoomName: "Aula Magna", FromTime: "12:00", ToTime: "12:10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestDeriveFreeSlots_UnknownRoomAndShortRows(t *testing.T) {
	rows := map[string][]any{
		"Z9": {"", "", "", "", "", ""},
		"Z1": {},
	}
	fasce := []string{"8:30", "9:30"}

	got := DeriveFreeSlots(rows, fasce, nil)
	want := []FreeRoomSlot{
		{ID: "Aula Z9-08:30-09:40", RoomName: "Aula Z9", FromTime: "08:30", ToTime: "09:40"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}

	if got := DeriveFreeSlots(rows, nil, nil); got != nil {
		t.Errorf("expected nothing without fasce, got %+v", got)
	}
}

func TestFreeRuns(t *testing.T) {
	tests := []struct {
		in   []bool
		want [][2]int
	}{
		{nil, nil},
		{[]bool{false, false}, nil},
		{[]bool{true, true}, [][2]int{{0, 2}}},
		{[]bool{true, false, true}, [][2]int{{0, 1}, {2, 3}}},
		{[]bool{false, true, true, false, true}, [][2]int{{1, 3}, {4, 5}}},
	}
	for _, tt := range tests {
		if got := freeRuns(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("freeRuns(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunBounds(t *testing.T) {
	fasce := []string{"08:00", "08:00", "09:00"}
	if _, _, ok := runBounds(fasce, 0, 1); ok {
		t.Error("expected zero-width interval to be rejected")
	}
	if _, _, ok := runBounds(fasce, 2, 2); ok {
		t.Error("expected empty run to be rejected")
	}
	from, to, ok := runBounds([]string{"23:30", "23:55"}, 0, 2)
	if !ok || from != "23:30" || to != "23:59" {
		t.Errorf("runBounds past midnight = (%q, %q, %v), want clamp to 23:59", from, to, ok)
	}
	if from, to, ok := runBounds([]string{"23:59"}, 0, 1); ok {
		t.Errorf("runBounds at 23:59 = (%q, %q), want rejection", from, to)
	}
	if from, to, ok := runBounds([]string{"10:00", "09:00"}, 0, 1); ok {
		t.Errorf("runBounds backwards = (%q, %q), want rejection", from, to)
	}
}

func TestDeriveFreeSlots_StaysWithinDay(t *testing.T) {
	rows := map[string][]any{
		"A": {nil, "busy"},
		"B": {"busy", nil, nil},
	}
	fasce := []string{"10:00", "09:00", "23:55"}
	names := map[string]string{"A": "Aula A", "B": "Aula B"}

	got := DeriveFreeSlots(rows, fasce, names)
	want := []FreeRoomSlot{
		{ID: "Aula B-09:00-23:59", RoomName: "Aula B", FromTime: "09:00", ToTime: "23:59"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeriveFreeSlots = %+v, want %+v", got, want)
	}
	for _, s := range got {
		if s.FromTime >= s.ToTime {
			t.Errorf("slot %+v does not move forward in time", s)
		}
	}
}

func TestIsFreeSlot(t *testing.T) {
	free := []any{nil, "", "  ", []any{}, map[string]any{}}
	for _, cell := range free {
		if !isFreeSlot(cell) {
			t.Errorf("expected %#v to be free", cell)
		}
	}
	busy := []any{"x", []any{"x"}, map[string]any{"id": "1"}, true}
	for _, cell := range busy {
		if isFreeSlot(cell) {
			t.Errorf("expected %#v to be busy", cell)
		}
	}
}

func TestParseRoomOccupancy_FromEvents(t *testing.T) {
	root := decodeFixture(t, `{
		"all_rooms": {
			"R2": {"room_name": "Aula Zeta", "room_code": "Z"},
			"R1": {"room_name": "aula Beta", "id": 11}
		},
		"fasce": [{"label": "08:30"}, {"label": "09:30"}, "10:30"],
		"table": {
			"R1": ["", {"id": "x"}, {"id": "x"}],
			"R2": [{"id": "y"}, "", ""]
		},
		"events": [
			{"id": "2", "name": "Reti", "CodiceAula": "R1", "from": "10:30", "to": "11:30", "docenti": ["Neri"], "nome_corso": "Informatica"},
			{"id": "1", "name": "Analisi", "CodiceAula": "R1", "from": "9:30", "to": "10:30"},
			{"id": "1", "name": "Analisi", "CodiceAula": "R1", "from": "9:30", "to": "10:30"},
			{"id": "3", "NomeAula": "Aula Zeta", "orario": "08:30 - 09:30"},
			{"id": "4", "name": "Senza orario", "CodiceAula": "R2"},
			{"id": "5", "name": "Fantasma", "room": "11", "from": "08:30", "to": "09:00"}
		]
	}`)

	occ := ParseRoomOccupancy(root)

	var rooms []string
	for _, a := range occ.Agendas {
		rooms = append(rooms, a.RoomName)
	}
	if want := []string{"aula Beta", "Aula Zeta"}; !reflect.DeepEqual(rooms, want) {
		t.Fatalf("agenda order = %v, want %v", rooms, want)
	}

	beta := occ.Agendas[0].Lessons
	if len(beta) != 3 {
		t.Fatalf("expected 3 lessons in aula Beta, got %+v", beta)
	}
	if beta[0].Subject != "Fantasma" || beta[1].Subject != "Analisi" || beta[2].Subject != "Reti" {
		t.Errorf("lessons not sorted by start: %+v", beta)
	}
	if beta[1].FromTime != "09:30" || beta[1].Professor != missingProfessor || beta[1].CourseName != missingCourse {
		t.Errorf("unexpected fallbacks: %+v", beta[1])
	}
	if beta[2].Professor != "Neri" || beta[2].CourseName != "Informatica" {
		t.Errorf("unexpected professor/course: %+v", beta[2])
	}

	zeta := occ.Agendas[1].Lessons
	if len(zeta) != 1 || zeta[0].Subject != defaultSubject {
		t.Errorf("expected default subject in Aula Zeta, got %+v", zeta)
	}

	wantFree := []FreeRoomSlot{
		{ID: "aula Beta-08:30-09:30", RoomName: "aula Beta", FromTime: "08:30", ToTime: "09:30"},
		{ID: "Aula Zeta-09:30-10:40", RoomName: "Aula Zeta", FromTime: "09:30", ToTime: "10:40"},
	}
	if !reflect.DeepEqual(occ.FreeSlots, wantFree) {
		t.Errorf("free slots = %+v\nwant %+v", occ.FreeSlots, wantFree)
	}
}

func TestParseRoomOccupancy_FromTableCells(t *testing.T) {
	root := decodeFixture(t, `{
		"all_rooms": {"A": {"nome": "Aula A"}},
		"fasce": ["08:30", "09:30", "10:30"],
		"table": {
			"A": [
				{"id": "c1", "nome": "Chimica", "from": "08:30", "to": "10:30"},
				{"id": "c1", "nome": "Chimica", "from": "08:30", "to": "10:30"},
				""
			],
			"B": [{"nome": "Fisica", "ora_inizio": "8:30", "ora_fine": "9:30"}, "", ""]
		}
	}`)

	occ := ParseRoomOccupancy(root)
	if len(occ.Agendas) != 2 {
		t.Fatalf("expected 2 agendas, got %+v", occ.Agendas)
	}
	if occ.Agendas[0].RoomName != "Aula A" || len(occ.Agendas[0].Lessons) != 1 {
		t.Errorf("expected one deduplicated lesson in Aula A, got %+v", occ.Agendas[0])
	}
	if occ.Agendas[1].RoomName != unknownRoom {
		t.Errorf("expected unnamed room fallback, got %q", occ.Agendas[1].RoomName)
	}

	wantFree := []FreeRoomSlot{
		{ID: "Aula A-10:30-10:40", RoomName: "Aula A", FromTime: "10:30", ToTime: "10:40"},
		{ID: "Aula B-09:30-10:40", RoomName: "Aula B", FromTime: "09:30", ToTime: "10:40"},
	}
	if !reflect.DeepEqual(occ.FreeSlots, wantFree) {
		t.Errorf("free slots = %+v\nwant %+v", occ.FreeSlots, wantFree)
	}
}

func TestParseRoomOccupancy_LegacyFreeRooms(t *testing.T) {
	root := decodeFixture(t, `{
		"aule_libere": [
			{"room_name": "Aula 2", "from_time": "14:00", "to_time": "16:00"},
			{"aula": "Aula 1", "from": "9:00", "to": "10:00"},
			{"aula": "Aula 1", "from": "8:00"}
		]
	}`)

	occ := ParseRoomOccupancy(root)
	if len(occ.Agendas) != 0 {
		t.Errorf("expected no agendas, got %+v", occ.Agendas)
	}
	want := []FreeRoomSlot{
		{ID: "Aula 1-09:00-10:00", RoomName: "Aula 1", FromTime: "09:00", ToTime: "10:00"},
		{ID: "Aula 2-14:00-16:00", RoomName: "Aula 2", FromTime: "14:00", ToTime: "16:00"},
	}
	if !reflect.DeepEqual(occ.FreeSlots, want) {
		t.Errorf("got %+v\nwant %+v", occ.FreeSlots, want)
	}
}

func TestParseFasceLabels(t *testing.T) {
	got := parseFasceLabels(map[string]any{
		"10": map[string]any{"nome": "17:30"},
		"2":  "09:30",
		"1":  " 08:30 ",
		"3":  42,
	})
	want := []string{"08:30", "09:30", "17:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
