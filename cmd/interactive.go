package cmd

import (
	"orarictl/pkg/tui"

	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the interactive TUI",
	Long:  `Launch the Text User Interface to browse course timetables, find free rooms and export lessons interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return tui.RunTUI(s.service)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
