package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
	"orarictl/pkg/tui"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Show room bookings or free rooms for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		freeOnly, _ := cmd.Flags().GetBool("free")

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		building := s.cfg.BuildingID
		if cmd.Flags().Changed("building") {
			building, _ = cmd.Flags().GetString("building")
		}

		day := scraper.StartOfDay(time.Now())
		if date != "" {
			day, err = scraper.ParseDate(date)
			if err != nil {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", date, err)
			}
		}

		var occ scraper.RoomOccupancy
		var stale offline.Stale
		_ = spinner.New().
			Title(fmt.Sprintf("Fetching room occupancy for %s...", scraper.FormatDate(day))).
			Action(func() {
				occ, stale, err = s.service.RoomAgenda(context.Background(), day, building)
			}).
			Run()

		if err != nil {
			return fmt.Errorf("could not fetch rooms: %w", err)
		}
		printStale(stale)

		if freeOnly {
			if ok, err := printResult(occ.FreeSlots); ok || err != nil {
				return err
			}
		} else if ok, err := printResult(occ); ok || err != nil {
			return err
		}

		fmt.Println(tui.AccentStyle().Bold(true).Render(tui.DayHeader(day)))
		if freeOnly {
			tui.RenderFreeSlots(os.Stdout, occ.FreeSlots)
		} else {
			tui.RenderAgendas(os.Stdout, occ.Agendas)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.Flags().StringP("date", "d", "", "Day to show, YYYY-MM-DD (default: today)")
	roomsCmd.Flags().StringP("building", "b", "", "Building ID (see 'orarictl buildings'); empty for all")
	roomsCmd.Flags().BoolP("free", "f", false, "Only list free rooms")
}
