package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"orarictl/pkg/config"
	"orarictl/pkg/exporter"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// RunScheduleTUI runs the interactive flow for picking a course and viewing or exporting its timetable
func RunScheduleTUI(svc *offline.Service) error {
	fmt.Println(accentStyle.Render("Orario lezioni UniVR"))

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.AppConfig{}
	}
	ctx := context.Background()

	var courses []scraper.StudyCourse
	var stale offline.Stale

	_ = spinner.New().
		Title("Scarico l'elenco dei corsi...").
		Action(func() {
			courses, stale, err = svc.Courses(ctx)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch courses: %w", err)
	}
	if notice := StaleNotice(stale); notice != "" {
		fmt.Println(notice)
	}

	courseID := cfg.CourseID
	courseForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Seleziona il corso di studio").
				Description("Inizia a scrivere per filtrare.").
				Options(courseOptions(courses)...).
				Value(&courseID).
				Filtering(true).
				Height(12),
		),
	).WithTheme(GetTheme())

	if err := courseForm.Run(); err != nil {
		return err
	}

	course, ok := findCourse(courses, courseID)
	if !ok {
		fmt.Println(errorStyle.Render("Nessun corso selezionato!"))
		return nil
	}

	year := cfg.CourseYear
	if year < 1 || year > max(course.MaxYear, 1) {
		year = 1
	}
	var weekStart time.Time
	var action string
	remember := courseID == cfg.CourseID
	outputFile := fmt.Sprintf("%s-%d.ics", course.ID, year)

	detailForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Anno di corso").
				Options(yearOptions(course.MaxYear)...).
				Value(&year),
			huh.NewSelect[time.Time]().
				Title("Settimana").
				Options(weekOptions(time.Now())...).
				Value(&weekStart),
			huh.NewSelect[string]().
				Title("Azione").
				Options(
					huh.NewOption("Mostra l'orario", "view"),
					huh.NewOption("Esporta in un file .ics", "export"),
				).
				Value(&action),
			huh.NewConfirm().
				Title("Ricordare questo corso?").
				Value(&remember),
		),
	).WithTheme(GetTheme())

	if err := detailForm.Run(); err != nil {
		return err
	}

	if action == "export" {
		fileForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Nome del file").
					Value(&outputFile).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("file name cannot be empty")
						}
						return nil
					}),
			),
		).WithTheme(GetTheme())
		if err := fileForm.Run(); err != nil {
			return err
		}
	}

	if remember {
		cfg.CourseID = course.ID
		cfg.CourseYear = year
		if err := config.Save(cfg); err != nil {
			return err
		}
	}

	var lessons []scraper.Lesson
	_ = spinner.New().
		Title(fmt.Sprintf("Scarico l'orario di %s (%d° anno)...", course.Name, year)).
		Action(func() {
			lessons, stale, err = svc.WeeklyLessons(ctx, course.ID, year, cfg.AcademicYear, weekStart)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch lessons: %w", err)
	}
	if notice := StaleNotice(stale); notice != "" {
		fmt.Println(notice)
	}

	if action != "export" {
		fmt.Println(accentStyle.Bold(true).Render(fmt.Sprintf("%s · %d° anno", course.Name, year)))
		fmt.Println(dimStyle.Render(WeekHeader(weekStart, cfg.AcademicYear)))
		RenderLessons(os.Stdout, lessons)
		return nil
	}

	if len(lessons) == 0 {
		fmt.Println(errorStyle.Render("Nessuna lezione da esportare in questa settimana!"))
		return nil
	}

	if !strings.HasSuffix(outputFile, ".ics") {
		outputFile += ".ics"
	}
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := exporter.GenerateICS(fmt.Sprintf("%s - %d° anno", course.Name, year), lessons, file); err != nil {
		return fmt.Errorf("failed to generate ICS: %w", err)
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\nFatto! Esportate %d lezioni in %s", len(lessons), outputFile)))
	return nil
}

func courseOptions(courses []scraper.StudyCourse) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(courses))
	for _, c := range courses {
		options = append(options, huh.NewOption(c.Name, c.ID))
	}
	return options
}

func findCourse(courses []scraper.StudyCourse, id string) (scraper.StudyCourse, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return scraper.StudyCourse{}, false
}

func yearOptions(maxYear int) []huh.Option[int] {
	options := make([]huh.Option[int], 0, max(maxYear, 1))
	for y := 1; y <= max(maxYear, 1); y++ {
		options = append(options, huh.NewOption(fmt.Sprintf("%d° anno", y), y))
	}
	return options
}

// weekOptions offers the current week and the three following ones.
func weekOptions(now time.Time) []huh.Option[time.Time] {
	labels := []string{"Questa settimana", "Prossima settimana", "Tra due settimane", "Tra tre settimane"}
	start := scraper.WeekStart(now)

	options := make([]huh.Option[time.Time], 0, len(labels))
	for i, label := range labels {
		week := start.AddDate(0, 0, 7*i)
		options = append(options, huh.NewOption(fmt.Sprintf("%s (dal %s)", label, week.Format("02/01")), week))
	}
	return options
}
