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

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the study courses",
	Long:  `List the degree programmes of the current academic year, optionally filtered by name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var courses []scraper.StudyCourse
		var stale offline.Stale
		_ = spinner.New().
			Title("Fetching the course catalog...").
			Action(func() {
				courses, stale, err = s.service.Courses(context.Background())
			}).
			Run()

		if err != nil {
			return fmt.Errorf("could not fetch courses: %w", err)
		}
		printStale(stale)

		if search != "" {
			courses = scraper.SearchCourses(courses, search)
		}
		if ok, err := printResult(courses); ok || err != nil {
			return err
		}

		if len(courses) == 0 {
			fmt.Println("No matching courses.")
			return nil
		}

		idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
		for _, c := range courses {
			fmt.Printf("%s %s %s\n", idStyle.Render(c.ID), tui.AccentStyle().Render(c.Name),
				lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(fmt.Sprintf("(%d anni)", c.MaxYear)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.Flags().StringP("search", "s", "", "Only show courses whose name contains this text (accents and case ignored)")
}
