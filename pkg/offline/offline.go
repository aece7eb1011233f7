// Package offline serves portal data with a fallback to the last snapshot
// saved for the same request.
package offline

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"orarictl/pkg/scraper"
	"orarictl/pkg/store"
)

// Portal is the subset of scraper.Client the service needs.
type Portal interface {
	FetchCourses(ctx context.Context) ([]scraper.StudyCourse, error)
	FetchBuildings(ctx context.Context) ([]scraper.Building, error)
	FetchWeeklyLessons(ctx context.Context, courseID string, courseYear, academicYear int, weekStart time.Time) ([]scraper.Lesson, error)
	FetchRoomAgenda(ctx context.Context, date time.Time, buildingID string) (scraper.RoomOccupancy, error)
}

// Stale describes where a result came from. The zero value means the data is
// fresh from the portal.
type Stale struct {
	SavedAt time.Time
	// Cause is the portal error that forced the fallback.
	Cause error
}

// IsStale reports whether the result was loaded from a snapshot.
func (s Stale) IsStale() bool {
	return !s.SavedAt.IsZero()
}

// Service wraps a Portal with an optional snapshot store.
type Service struct {
	portal Portal
	store  store.Store
	logger *log.Logger
}

// New returns a Service. A nil store disables snapshots and a nil logger
// discards diagnostics.
func New(portal Portal, st store.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{portal: portal, store: st, logger: logger}
}

// Courses returns the course catalog.
func (s *Service) Courses(ctx context.Context) ([]scraper.StudyCourse, Stale, error) {
	return withFallback(s, "courses", func() ([]scraper.StudyCourse, error) {
		return s.portal.FetchCourses(ctx)
	})
}

// Buildings returns the buildings ordered by name.
func (s *Service) Buildings(ctx context.Context) ([]scraper.Building, Stale, error) {
	return withFallback(s, "buildings", func() ([]scraper.Building, error) {
		return s.portal.FetchBuildings(ctx)
	})
}

// WeeklyLessons returns the lessons of one course year for the week starting at weekStart.
func (s *Service) WeeklyLessons(ctx context.Context, courseID string, courseYear, academicYear int, weekStart time.Time) ([]scraper.Lesson, Stale, error) {
	key := LessonsKey(courseID, courseYear, academicYear, weekStart)
	return withFallback(s, key, func() ([]scraper.Lesson, error) {
		return s.portal.FetchWeeklyLessons(ctx, courseID, courseYear, academicYear, weekStart)
	})
}

// RoomAgenda returns the room occupancy of one day.
func (s *Service) RoomAgenda(ctx context.Context, date time.Time, buildingID string) (scraper.RoomOccupancy, Stale, error) {
	return withFallback(s, RoomsKey(buildingID, date), func() (scraper.RoomOccupancy, error) {
		return s.portal.FetchRoomAgenda(ctx, date, buildingID)
	})
}

// LessonsKey is the snapshot key of a weekly lessons request.
func LessonsKey(courseID string, courseYear, academicYear int, weekStart time.Time) string {
	return fmt.Sprintf("lessons:%s:%d:%d:%s", courseID, courseYear, academicYear, scraper.FormatDate(weekStart))
}

// RoomsKey is the snapshot key of a room agenda request.
func RoomsKey(buildingID string, date time.Time) string {
	if buildingID == "" {
		buildingID = "all"
	}
	return fmt.Sprintf("rooms:%s:%s", buildingID, scraper.FormatDate(date))
}

func withFallback[T any](s *Service, key string, fetch func() (T, error)) (T, Stale, error) {
	v, err := fetch()
	if err == nil {
		if s.store != nil {
			if serr := s.store.Save(key, v); serr != nil {
				s.logger.Printf("Saving snapshot %s failed: %v", key, serr)
			}
		}
		return v, Stale{}, nil
	}

	if s.store != nil {
		var cached T
		if savedAt, ok := s.store.Load(key, &cached); ok {
			s.logger.Printf("Portal unavailable for %s, using snapshot from %s: %v", key, savedAt.Format(time.RFC3339), err)
			return cached, Stale{SavedAt: savedAt, Cause: err}, nil
		}
	}

	var zero T
	return zero, Stale{}, err
}
