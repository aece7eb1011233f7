package cmd

import (
	"context"
	"fmt"

	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
	"orarictl/pkg/tui"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var buildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "List the university buildings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var buildings []scraper.Building
		var stale offline.Stale
		_ = spinner.New().
			Title("Fetching buildings...").
			Action(func() {
				buildings, stale, err = s.service.Buildings(context.Background())
			}).
			Run()

		if err != nil {
			return fmt.Errorf("could not fetch buildings: %w", err)
		}
		printStale(stale)

		if ok, err := printResult(buildings); ok || err != nil {
			return err
		}

		idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
		for _, b := range buildings {
			fmt.Printf("%s %s\n", idStyle.Render(b.ID), tui.AccentStyle().Render(b.Name))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildingsCmd)
}
