package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"orarictl/pkg/config"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// allBuildings is the option value for "every building".
const allBuildings = ""

// RunRoomsTUI shows the free rooms (freeOnly) or the bookings of every room
// for a building and day.
func RunRoomsTUI(svc *offline.Service, freeOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.AppConfig{}
	}
	ctx := context.Background()

	var buildings []scraper.Building
	var stale offline.Stale

	_ = spinner.New().
		Title("Scarico l'elenco delle sedi...").
		Action(func() {
			buildings, stale, err = svc.Buildings(ctx)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch buildings: %w", err)
	}
	if notice := StaleNotice(stale); notice != "" {
		fmt.Println(notice)
	}

	buildingID := cfg.BuildingID
	var day time.Time

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sede").
				Options(buildingOptions(buildings)...).
				Value(&buildingID).
				Filtering(true).
				Height(10),
			huh.NewSelect[time.Time]().
				Title("Giorno").
				Options(dayOptions(time.Now())...).
				Value(&day),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	var occ scraper.RoomOccupancy
	_ = spinner.New().
		Title(fmt.Sprintf("Scarico l'occupazione delle aule per %s...", DayHeader(day))).
		Action(func() {
			occ, stale, err = svc.RoomAgenda(ctx, day, buildingID)
		}).
		Run()

	if err != nil {
		return fmt.Errorf("failed to fetch room agenda: %w", err)
	}
	if notice := StaleNotice(stale); notice != "" {
		fmt.Println(notice)
	}

	fmt.Println(accentStyle.Bold(true).Render(DayHeader(day)))
	if freeOnly {
		RenderFreeSlots(os.Stdout, occ.FreeSlots)
	} else {
		RenderAgendas(os.Stdout, occ.Agendas)
	}
	return nil
}

func buildingOptions(buildings []scraper.Building) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(buildings)+1)
	options = append(options, huh.NewOption("Tutte le sedi", allBuildings))
	for _, b := range buildings {
		options = append(options, huh.NewOption(b.Name, b.ID))
	}
	return options
}

// dayOptions offers today and the six following days.
func dayOptions(now time.Time) []huh.Option[time.Time] {
	today := scraper.StartOfDay(now)
	options := make([]huh.Option[time.Time], 0, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		label := DayHeader(day)
		switch i {
		case 0:
			label = "Oggi, " + label
		case 1:
			label = "Domani, " + label
		}
		options = append(options, huh.NewOption(label, day))
	}
	return options
}
