package scraper

import (
	"reflect"
	"testing"
)

func TestParseCourses_SkipsPlaceholders(t *testing.T) {
	text := `var elenco_corsi = [{"valore":"1","label":"Informatica"},{"valore":"-","label":"Seleziona"}];`

	catalog := ParseCourses(text)
	if len(catalog.Courses) != 1 {
		t.Fatalf("expected 1 course, got %d: %+v", len(catalog.Courses), catalog.Courses)
	}
	c := catalog.Courses[0]
	if c.ID != "1" || c.Name != "Informatica" || c.FacultyName != DefaultFaculty || c.MaxYear != 3 {
		t.Errorf("unexpected course %+v", c)
	}
}

func TestParseCourses_YearOptionsAndOrdering(t *testing.T) {
	text := `<script>
	var elenco_corsi = [
		{"valore":"GP004","label":"Scienze della formazione","elenco_anni":[
			{"valore":"GP004|3","label":"3° anno"},
			{"valore":"GP004|1","label":"1° anno"},
			{"valore":"GP004|1","label":"Duplicate"},
			{"valore":"X","label":"Seleziona un anno"}
		]},
		{"value":"M10","name":"Corso di Laurea Magistrale in Data Science"},
		{"id":"CU1","label":"medicina e chirurgia (ciclo unico)"},
		{"valore":"GP004","label":"Scienze della formazione primaria"},
		{"valore":" ","label":"Vuoto"},
		{"valore":"Z","label":"-"},
		"not an object"
	];
	</script>`

	catalog := ParseCourses(text)

	names := make([]string, len(catalog.Courses))
	for i, c := range catalog.Courses {
		names[i] = c.Name
	}
	want := []string{
		"Corso di Laurea Magistrale in Data Science",
		"medicina e chirurgia (ciclo unico)",
		"Scienze della formazione primaria",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected order/dedup: %v", names)
	}

	byID := make(map[string]StudyCourse)
	for _, c := range catalog.Courses {
		byID[c.ID] = c
	}
	if byID["M10"].MaxYear != 2 {
		t.Errorf("magistrale should default to 2 years, got %d", byID["M10"].MaxYear)
	}
	if byID["CU1"].MaxYear != 5 {
		t.Errorf("ciclo unico should default to 5 years, got %d", byID["CU1"].MaxYear)
	}
	// The last GP004 entry has no options, so the name heuristic applies.
	if byID["GP004"].MaxYear != 3 {
		t.Errorf("expected heuristic max year 3, got %d", byID["GP004"].MaxYear)
	}

	opts := catalog.YearOptions["GP004"]
	wantOpts := []CourseYearOption{
		{Year: 1, ParameterValue: "GP004|1", Label: "1° anno"},
		{Year: 3, ParameterValue: "GP004|3", Label: "3° anno"},
	}
	if !reflect.DeepEqual(opts, wantOpts) {
		t.Errorf("unexpected year options %+v", opts)
	}
	if o, ok := catalog.YearOptions["M10"]; !ok || len(o) != 0 {
		t.Errorf("expected M10 to be recorded without options, got %+v (%v)", o, ok)
	}
}

func TestParseCourses_MaxYearFromOptions(t *testing.T) {
	text := `var elenco_corsi = [{"valore":"A","label":"Laurea Magistrale X","elenco_anni":[{"valore":"A|1","label":"1"},{"valore":"A|4","label":"4"}]}];`
	catalog := ParseCourses(text)
	if len(catalog.Courses) != 1 || catalog.Courses[0].MaxYear != 4 {
		t.Fatalf("expected max year 4 from options, got %+v", catalog.Courses)
	}
}

func TestParseCourses_NoVariable(t *testing.T) {
	catalog := ParseCourses(`<html>nothing here</html>`)
	if len(catalog.Courses) != 0 {
		t.Errorf("expected no courses, got %+v", catalog.Courses)
	}
}

func TestParseBuildings(t *testing.T) {
	text := `var elenco_sedi = [
		{"valore":"","label":"Seleziona una sede"},
		{"valore":"2","label":"Veronetta"},
		{"valore":"1","label":"Borgo Roma &amp; Ca' Vignal"},
		{"valore":"2","label":"Veronetta (dup)"}
	];`

	got := ParseBuildings(text)
	want := []Building{
		{ID: "2", Name: "Veronetta"},
		{ID: "1", Name: "Borgo Roma & Ca' Vignal"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDetectMaxYear(t *testing.T) {
	tests := map[string]int{
		"Corso di Laurea Magistrale in X":    2,
		"Medicina e Chirurgia - Ciclo Unico": 5,
		"Informatica":                        3,
		"LAUREA MAGISTRALE A CICLO UNICO":    2,
	}
	for name, want := range tests {
		if got := DetectMaxYear(name); got != want {
			t.Errorf("DetectMaxYear(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestParseCourseYear(t *testing.T) {
	tests := []struct {
		label, value string
		want         int
	}{
		{"Primo anno", "GP004|2", 2},
		{"2° anno", "GP004", 2},
		{"anno 0", "GP004|0", 1},
		{"Unico", "GP004|x", 1},
		{"Anno 3 - percorso 1", "P|", 3},
	}
	for _, tt := range tests {
		if got := parseCourseYear(tt.label, tt.value); got != tt.want {
			t.Errorf("parseCourseYear(%q, %q) = %d, want %d", tt.label, tt.value, got, tt.want)
		}
	}
}

func TestMergeYearOptions_IncomingWins(t *testing.T) {
	existing := []CourseYearOption{
		{Year: 2, ParameterValue: "A|2", Label: "old"},
		{Year: 1, ParameterValue: "A|1", Label: "1"},
	}
	incoming := []CourseYearOption{
		{Year: 2, ParameterValue: "A|2", Label: "new"},
		{Year: 3, ParameterValue: "A|3", Label: "3"},
	}

	got := MergeYearOptions(existing, incoming)
	want := []CourseYearOption{
		{Year: 1, ParameterValue: "A|1", Label: "1"},
		{Year: 2, ParameterValue: "A|2", Label: "new"},
		{Year: 3, ParameterValue: "A|3", Label: "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSearchCourses(t *testing.T) {
	courses := []StudyCourse{
		{ID: "1", Name: "Informatica"},
		{ID: "2", Name: "Bioinformatica"},
		{ID: "3", Name: "Lettere"},
	}

	got := SearchCourses(courses, "INFORMÀTICA")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %+v", got)
	}
	if len(SearchCourses(courses, "  ")) != 3 {
		t.Errorf("blank query should return every course")
	}
}
