// Package server exposes the timetable over HTTP: a small JSON API and
// subscribable ICS feeds.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orarictl/pkg/exporter"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
)

// maxCalendarWeeks bounds the weeks a single feed request may span.
const maxCalendarWeeks = 12

// Timetable is the data source behind the handlers; *offline.Service
// implements it.
type Timetable interface {
	Courses(ctx context.Context) ([]scraper.StudyCourse, offline.Stale, error)
	Buildings(ctx context.Context) ([]scraper.Building, offline.Stale, error)
	WeeklyLessons(ctx context.Context, courseID string, courseYear, academicYear int, weekStart time.Time) ([]scraper.Lesson, offline.Stale, error)
	RoomAgenda(ctx context.Context, date time.Time, buildingID string) (scraper.RoomOccupancy, offline.Stale, error)
}

// Server is the main HTTP server.
type Server struct {
	timetable Timetable
	router    chi.Router
	now       func() time.Time
}

// New creates a new server.
func New(tt Timetable) *Server {
	s := &Server{timetable: tt, now: time.Now}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/courses", s.handleCourses)
		r.Get("/buildings", s.handleBuildings)
		r.Get("/lessons", s.handleLessons)
		r.Get("/rooms", s.handleRooms)
	})
	r.Get("/calendar/{courseID}/{year}.ics", s.handleCalendar)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router = r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// envelope wraps every JSON payload.
type envelope struct {
	Data       any    `json:"data"`
	StaleSince string `json:"stale_since,omitempty"`
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, stale, err := s.timetable.Courses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		courses = scraper.SearchCourses(courses, q)
	}
	if courses == nil {
		courses = []scraper.StudyCourse{}
	}
	writeJSON(w, http.StatusOK, courses, stale)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, stale, err := s.timetable.Buildings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildings, stale)
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courseID := strings.TrimSpace(q.Get("course"))
	if courseID == "" {
		writeError(w, badRequest("missing course"))
		return
	}
	year, err := intParam(q.Get("year"), 1)
	if err != nil || year < 1 {
		writeError(w, badRequest("invalid year %q", q.Get("year")))
		return
	}
	aa, err := intParam(q.Get("aa"), 0)
	if err != nil {
		writeError(w, badRequest("invalid academic year %q", q.Get("aa")))
		return
	}
	week, err := s.dateParam(q.Get("week"))
	if err != nil {
		writeError(w, badRequest("invalid week %q", q.Get("week")))
		return
	}

	lessons, stale, err := s.timetable.WeeklyLessons(r.Context(), courseID, year, aa, scraper.WeekStart(week))
	if err != nil {
		writeError(w, err)
		return
	}
	if lessons == nil {
		lessons = []scraper.Lesson{}
	}
	writeJSON(w, http.StatusOK, lessons, stale)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := s.dateParam(q.Get("date"))
	if err != nil {
		writeError(w, badRequest("invalid date %q", q.Get("date")))
		return
	}

	occ, stale, err := s.timetable.RoomAgenda(r.Context(), date, strings.TrimSpace(q.Get("building")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occ, stale)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		writeError(w, badRequest("invalid year %q", chi.URLParam(r, "year")))
		return
	}
	q := r.URL.Query()
	week, err := s.dateParam(q.Get("week"))
	if err != nil {
		writeError(w, badRequest("invalid week %q", q.Get("week")))
		return
	}
	weeks, err := intParam(q.Get("weeks"), 1)
	if err != nil || weeks < 1 || weeks > maxCalendarWeeks {
		writeError(w, badRequest("weeks must be between 1 and %d", maxCalendarWeeks))
		return
	}

	var all []scraper.Lesson
	start := scraper.WeekStart(week)
	for i := 0; i < weeks; i++ {
		lessons, _, err := s.timetable.WeeklyLessons(r.Context(), courseID, year, 0, start.AddDate(0, 0, 7*i))
		if err != nil {
			writeError(w, err)
			return
		}
		all = append(all, lessons...)
	}

	var buf bytes.Buffer
	if err := exporter.GenerateICS(fmt.Sprintf("%s - %d° anno", courseID, year), all, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fmt.Sprintf("%s-%d.ics", courseID, year)))
	w.Write(buf.Bytes())
}

// dateParam parses yyyy-MM-dd, defaulting to today.
func (s *Server) dateParam(v string) (time.Time, error) {
	if v == "" {
		return scraper.StartOfDay(s.now()), nil
	}
	return scraper.ParseDate(v)
}

func intParam(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps an error to the HTTP status reported to clients.
func statusFor(err error) int {
	var perr *paramError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, scraper.ErrInvalidURL):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		var serr *scraper.Error
		if errors.As(err, &serr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.Printf("Request failed: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any, stale offline.Stale) {
	env := envelope{Data: data}
	if stale.IsStale() {
		env.StaleSince = stale.SavedAt.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
