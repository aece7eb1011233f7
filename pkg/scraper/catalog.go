package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"orarictl/pkg/jsvar"
	"orarictl/pkg/record"
	"orarictl/pkg/textutil"
)

const comboPath = "combo.php"

var (
	optionIDKeys    = []string{"valore", "value", "id"}
	optionLabelKeys = []string{"label", "name"}
	firstNumber     = regexp.MustCompile(`\d+`)
)

// Catalog is the parsed content of one course catalog response.
type Catalog struct {
	Courses []StudyCourse
	// YearOptions holds the year options seen for each course id, including
	// courses that list none (empty slice).
	YearOptions map[string][]CourseYearOption
}

// ParseCourses reads the `var elenco_corsi = [...]` assignment from a catalog
// page. Placeholder entries are skipped, duplicate ids keep the last entry and
// the result is ordered by name.
func ParseCourses(text string) Catalog {
	catalog := Catalog{YearOptions: make(map[string][]CourseYearOption)}

	raw, ok := jsvar.Extract(text, "elenco_corsi")
	if !ok {
		return catalog
	}
	items, ok := raw.([]any)
	if !ok {
		return catalog
	}

	unique := make(map[string]StudyCourse)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := record.Record(m)

		id, hasID := rec.First(optionIDKeys...)
		name, hasName := rec.First(optionLabelKeys...)
		if !hasID || !hasName || !isUsefulOption(id, name) {
			continue
		}

		options := parseCourseYearOptions(rec["elenco_anni"])
		catalog.YearOptions[id] = MergeYearOptions(catalog.YearOptions[id], options)

		maxYear := DetectMaxYear(name)
		if len(options) > 0 {
			maxYear = options[len(options)-1].Year
		}

		unique[id] = StudyCourse{
			ID:          id,
			Name:        name,
			FacultyName: DefaultFaculty,
			MaxYear:     maxYear,
		}
	}

	catalog.Courses = make([]StudyCourse, 0, len(unique))
	for _, c := range unique {
		catalog.Courses = append(catalog.Courses, c)
	}
	sortCourses(catalog.Courses)
	return catalog
}

// ParseBuildings reads the `var elenco_sedi = [...]` assignment. Duplicate
// ids keep the first entry; the portal order is preserved.
func ParseBuildings(text string) []Building {
	raw, ok := jsvar.Extract(text, "elenco_sedi")
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var buildings []Building
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := record.Record(m)

		id, hasID := rec.First(optionIDKeys...)
		name, hasName := rec.First(optionLabelKeys...)
		if !hasID || !hasName || !isUsefulOption(id, name) || seen[id] {
			continue
		}
		seen[id] = true
		buildings = append(buildings, Building{ID: id, Name: name})
	}
	return buildings
}

// DetectMaxYear guesses the course length from its name when the catalog
// does not list year options.
func DetectMaxYear(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "magistrale"):
		return 2
	case strings.Contains(lower, "ciclo unico"):
		return 5
	default:
		return 3
	}
}

// MergeYearOptions combines two option lists keyed by ParameterValue, with
// incoming entries replacing existing ones. The result is ordered by year.
func MergeYearOptions(existing, incoming []CourseYearOption) []CourseYearOption {
	byValue := make(map[string]CourseYearOption, len(existing)+len(incoming))
	for _, o := range existing {
		byValue[o.ParameterValue] = o
	}
	for _, o := range incoming {
		byValue[o.ParameterValue] = o
	}

	merged := make([]CourseYearOption, 0, len(byValue))
	for _, o := range byValue {
		merged = append(merged, o)
	}
	sortYearOptions(merged)
	return merged
}

// SearchCourses keeps the courses whose folded name contains the folded query.
func SearchCourses(courses []StudyCourse, query string) []StudyCourse {
	key := textutil.NormalizeSearchKey(query)
	if key == "" {
		return courses
	}
	var out []StudyCourse
	for _, c := range courses {
		if strings.Contains(textutil.NormalizeSearchKey(c.Name), key) {
			out = append(out, c)
		}
	}
	return out
}

func parseCourseYearOptions(v any) []CourseYearOption {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var options []CourseYearOption
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := record.Record(m)

		value, hasValue := rec.First(optionIDKeys...)
		label, hasLabel := rec.First(optionLabelKeys...)
		if !hasValue || !hasLabel || !isUsefulOption(value, label) || seen[value] {
			continue
		}
		seen[value] = true
		options = append(options, CourseYearOption{
			Year:           parseCourseYear(label, value),
			ParameterValue: value,
			Label:          label,
		})
	}
	sortYearOptions(options)
	return options
}

// parseCourseYear prefers the number after the last '|' of the token
// ("GP004|2"), then the first number in the label ("2° anno").
func parseCourseYear(label, parameterValue string) int {
	if i := strings.LastIndex(parameterValue, "|"); i >= 0 {
		if n, err := strconv.Atoi(parameterValue[i+1:]); err == nil {
			return max(n, 1)
		}
	}
	if m := firstNumber.FindString(label); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return max(n, 1)
		}
	}
	return 1
}

// isUsefulOption rejects blank entries and "Seleziona..." placeholders.
func isUsefulOption(value, label string) bool {
	label = strings.TrimSpace(label)
	value = strings.TrimSpace(value)
	if label == "" || value == "" {
		return false
	}
	lower := strings.ToLower(label)
	return !strings.Contains(lower, "seleziona") && !strings.Contains(lower, "select") && lower != "-"
}

func sortYearOptions(options []CourseYearOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Year != options[j].Year {
			return options[i].Year < options[j].Year
		}
		return options[i].ParameterValue < options[j].ParameterValue
	})
}

func newNameCollator() *collate.Collator {
	return collate.New(language.Italian, collate.IgnoreCase)
}

func sortCourses(courses []StudyCourse) {
	col := newNameCollator()
	sort.SliceStable(courses, func(i, j int) bool {
		if c := col.CompareString(courses[i].Name, courses[j].Name); c != 0 {
			return c < 0
		}
		return courses[i].ID < courses[j].ID
	})
}

func sortBuildings(buildings []Building) {
	col := newNameCollator()
	sort.SliceStable(buildings, func(i, j int) bool {
		return col.CompareString(buildings[i].Name, buildings[j].Name) < 0
	})
}

// FetchCourses downloads the course catalog, trying the candidate academic
// years in order until one returns courses.
func (c *Client) FetchCourses(ctx context.Context) ([]StudyCourse, error) {
	var lastErr error
	for _, academicYear := range CandidateAcademicYears(c.now()) {
		courses, err := c.fetchCourses(ctx, academicYear)
		if err != nil {
			c.logger.Printf("Course catalog for %d unavailable: %v", academicYear, err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(courses) > 0 {
			return courses, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, newError(KindNoData, comboPath, nil)
}

// FetchBuildings downloads the list of buildings ordered by name.
func (c *Client) FetchBuildings(ctx context.Context) ([]Building, error) {
	body, err := c.get(ctx, comboPath, url.Values{
		"sw":    {"rooms_"},
		"_lang": {"it"},
	})
	if err != nil {
		return nil, err
	}

	text, err := decodeText(body)
	if err != nil {
		return nil, newError(KindInvalidEncoding, comboPath, err)
	}

	buildings := ParseBuildings(text)
	if len(buildings) == 0 {
		return nil, newError(KindNoData, comboPath, nil)
	}
	sortBuildings(buildings)
	return buildings, nil
}

// fetchCourses fetches one academic year's catalog and records its year
// options in the client cache.
func (c *Client) fetchCourses(ctx context.Context, academicYear int) ([]StudyCourse, error) {
	body, err := c.get(ctx, comboPath, url.Values{
		"sw":    {"ec_"},
		"aa":    {strconv.Itoa(academicYear)},
		"page":  {"corsi"},
		"_lang": {"it"},
	})
	if err != nil {
		return nil, err
	}

	text, err := decodeText(body)
	if err != nil {
		return nil, newError(KindInvalidEncoding, comboPath, err)
	}

	catalog := ParseCourses(text)
	for courseID, options := range catalog.YearOptions {
		c.years.Merge(courseID, academicYear, options)
	}

	if len(catalog.Courses) == 0 {
		return nil, newError(KindNoData, comboPath, fmt.Errorf("academic year %d", academicYear))
	}
	return catalog.Courses, nil
}
