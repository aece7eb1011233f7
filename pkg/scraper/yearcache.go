package scraper

import (
	"fmt"
	"strings"
	"sync"
)

// YearOptionCache remembers, per course id, the year options and the academic
// year they were last seen in. Entries only grow; a stale entry just means the
// portal rejects the token and the caller refetches the catalog.
type YearOptionCache struct {
	mu            sync.RWMutex
	options       map[string][]CourseYearOption
	academicYears map[string]int
}

// NewYearOptionCache returns an empty cache.
func NewYearOptionCache() *YearOptionCache {
	return &YearOptionCache{
		options:       make(map[string][]CourseYearOption),
		academicYears: make(map[string]int),
	}
}

// Options returns the cached options of a course. The second result reports
// whether the course was seen at all, even with no options.
func (c *YearOptionCache) Options(courseID string) ([]CourseYearOption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	opts, ok := c.options[courseID]
	return opts, ok
}

// AcademicYear returns the academic year the course was last listed in.
func (c *YearOptionCache) AcademicYear(courseID string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	y, ok := c.academicYears[courseID]
	return y, ok
}

// Merge folds newly parsed options into the cache; see MergeYearOptions.
func (c *YearOptionCache) Merge(courseID string, academicYear int, incoming []CourseYearOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options[courseID] = MergeYearOptions(c.options[courseID], incoming)
	c.academicYears[courseID] = academicYear
}

// SelectYearOption picks the option for a course year: an exact year match,
// then a token ending in "|<year>", then the lowest year available.
func SelectYearOption(options []CourseYearOption, year int) (CourseYearOption, bool) {
	if len(options) == 0 {
		return CourseYearOption{}, false
	}
	for _, o := range options {
		if o.Year == year {
			return o, true
		}
	}
	suffix := fmt.Sprintf("|%d", year)
	for _, o := range options {
		if strings.HasSuffix(o.ParameterValue, suffix) {
			return o, true
		}
	}

	lowest := options[0]
	for _, o := range options[1:] {
		if o.Year < lowest.Year {
			lowest = o
		}
	}
	return lowest, true
}

// FallbackYearOption is what the grid endpoint is sent when the catalog never
// listed options for a course.
func FallbackYearOption(year int) CourseYearOption {
	return CourseYearOption{
		Year:           year,
		ParameterValue: fmt.Sprintf("999|%d", year),
		Label:          fmt.Sprintf("Anno %d", year),
	}
}
