package tui

import (
	"context"
	"fmt"
	"strings"

	"orarictl/pkg/config"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
)

// RunConfigTUI launches the interactive experience for managing configurations
func RunConfigTUI(svc *offline.Service) error {
	for {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		var action string

		initialForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Impostazioni").
					Options(
						huh.NewOption("Colore principale (tema)", "theme"),
						huh.NewOption("Corso predefinito", "course"),
						huh.NewOption("Sede predefinita", "building"),
						huh.NewOption("Archivio offline", "backend"),
						huh.NewOption("Mostra configurazione", "view"),
						huh.NewOption("Torna al menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(GetTheme())

		if err := initialForm.Run(); err != nil {
			return err
		}

		switch action {
		case "back":
			return nil
		case "theme":
			err = runSetThemeTUI(cfg)
		case "course":
			err = runSetCourseTUI(svc, cfg)
		case "building":
			err = runSetBuildingTUI(svc, cfg)
		case "backend":
			err = runSetBackendTUI(cfg)
		case "view":
			fmt.Println(accentStyle.Render("\n--- Configurazione attuale (~/.orarictl.json) ---"))
			PrintConfig(cfg)
			fmt.Println()
		}

		if err != nil {
			return err
		}
	}
}

// PrintConfig prints every setting, marking the unset ones.
func PrintConfig(cfg *config.AppConfig) {
	orUnset := func(s string) string {
		if s == "" {
			return "non impostato"
		}
		return s
	}
	intOrUnset := func(n int) string {
		if n == 0 {
			return "non impostato"
		}
		return fmt.Sprint(n)
	}

	fmt.Printf("Corso: %s\n", orUnset(cfg.CourseID))
	fmt.Printf("Anno di corso: %s\n", intOrUnset(cfg.CourseYear))
	fmt.Printf("Anno accademico: %s\n", academicYearSetting(cfg.AcademicYear))
	fmt.Printf("Sede: %s\n", orUnset(cfg.BuildingID))
	fmt.Printf("Archivio offline: %s\n", cfg.Backend())
	fmt.Printf("Timeout richieste (s): %s\n", intOrUnset(cfg.TimeoutSeconds))
	fmt.Printf("Portale: %s\n", orUnset(cfg.PortalURL))
	fmt.Printf("Colore: %s\n", orUnset(cfg.AccentColor))
}

// academicYearSetting shows a pinned academic year as "2024/25".
func academicYearSetting(academicYear int) string {
	if academicYear <= 0 {
		return "rilevato automaticamente"
	}
	return scraper.AcademicYearLabel(academicYear)
}

func runSetCourseTUI(svc *offline.Service, cfg *config.AppConfig) error {
	var courses []scraper.StudyCourse
	var err error

	_ = spinner.New().
		Title("Scarico l'elenco dei corsi...").
		Action(func() {
			courses, _, err = svc.Courses(context.Background())
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch courses: %w", err)
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
		return nil
	}

	year := cfg.CourseYear
	yearForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Anno di corso").
				Options(yearOptions(course.MaxYear)...).
				Value(&year),
		),
	).WithTheme(GetTheme())

	if err := yearForm.Run(); err != nil {
		return err
	}

	cfg.CourseID = course.ID
	cfg.CourseYear = year
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Corso predefinito: %s, %d° anno\n", course.Name, year)))
	return nil
}

func runSetBuildingTUI(svc *offline.Service, cfg *config.AppConfig) error {
	var buildings []scraper.Building
	var err error

	_ = spinner.New().
		Title("Scarico l'elenco delle sedi...").
		Action(func() {
			buildings, _, err = svc.Buildings(context.Background())
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch buildings: %w", err)
	}

	buildingID := cfg.BuildingID
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sede predefinita per le aule").
				Options(buildingOptions(buildings)...).
				Value(&buildingID).
				Filtering(true).
				Height(10),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.BuildingID = buildingID
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render("\n✅ Sede predefinita salvata.\n"))
	return nil
}

func runSetBackendTUI(cfg *config.AppConfig) error {
	backend := cfg.Backend()
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Dove salvare i dati per l'uso offline?").
				Description("Le nuove impostazioni valgono dal prossimo avvio.").
				Options(
					huh.NewOption("File JSON (~/.orarictl_cache)", config.BackendFile),
					huh.NewOption("Database SQLite (~/.orarictl_cache/snapshots.db)", config.BackendSQLite),
				).
				Value(&backend),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Archivio offline: %s\n", backend)))
	return nil
}

func colorBlock(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("██")
}

func runSetThemeTUI(cfg *config.AppConfig) error {
	var input string

	inputForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Scegli il colore principale").
				Description("Scegli uno stile o inserisci un colore esadecimale.").
				Options(
					huh.NewOption(fmt.Sprintf("%s Blu UniVR", colorBlock(defaultAccent)), defaultAccent),
					huh.NewOption(fmt.Sprintf("%s Rosso Verona", colorBlock("160")), "160"),
					huh.NewOption(fmt.Sprintf("%s Verde Adige", colorBlock("42")), "42"),
					huh.NewOption(fmt.Sprintf("%s Viola", colorBlock("99")), "99"),
					huh.NewOption("✨ Colore personalizzato", "custom"),
				).
				Value(&input),
		),
	).WithTheme(GetTheme())

	if err := inputForm.Run(); err != nil {
		return err
	}

	if input == "custom" {
		var hexInput string
		hexForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Codice colore esadecimale").
					Description("Includi il simbolo `#`. Esempio: #FF00FF").
					Placeholder("#").
					Value(&hexInput).
					Validate(validateHexColor),
			),
		).WithTheme(GetTheme())

		if err := hexForm.Run(); err != nil {
			return err
		}
		cfg.AccentColor = hexInput
	} else {
		cfg.AccentColor = input
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(GetCustomTheme(cfg.AccentColor).Focused.Title.Render("\n✅ Colore salvato.\n"))
	return nil
}

func validateHexColor(str string) error {
	if len(str) != 7 || !strings.HasPrefix(str, "#") {
		return fmt.Errorf("must be a valid 6-character hex code starting with #")
	}
	for _, r := range strings.ToLower(str[1:]) {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return fmt.Errorf("%q is not a hex digit", r)
		}
	}
	return nil
}
