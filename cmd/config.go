package cmd

import (
	"fmt"

	"orarictl/pkg/config"
	"orarictl/pkg/tui"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage orarictl configuration",
	Long: `View or edit your local configuration (default course, year and building).
The global --backend, --portal and --timeout flags are saved too when given here.
Without flags the interactive editor is launched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if show, _ := cmd.Flags().GetBool("show"); show {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ok, err := printResult(cfg); ok || err != nil {
				return err
			}
			tui.PrintConfig(cfg)
			return nil
		}

		flags := cmd.Flags()
		if !flags.Changed("course") && !flags.Changed("year") && !flags.Changed("aa") &&
			!flags.Changed("building") && !flags.Changed("backend") &&
			!flags.Changed("portal") && !flags.Changed("timeout") {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()
			return tui.RunConfigTUI(s.service)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flags.Changed("course") {
			cfg.CourseID, _ = flags.GetString("course")
		}
		if flags.Changed("year") {
			cfg.CourseYear, _ = flags.GetInt("year")
		}
		if flags.Changed("aa") {
			cfg.AcademicYear, _ = flags.GetInt("aa")
		}
		if flags.Changed("building") {
			cfg.BuildingID, _ = flags.GetString("building")
		}
		if flags.Changed("backend") {
			cfg.CacheBackend = backend
		}
		if flags.Changed("portal") {
			cfg.PortalURL = portalURL
		}
		if flags.Changed("timeout") {
			cfg.TimeoutSeconds = int(timeout.Seconds())
		}

		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Println("✅ Configuration saved.")
		tui.PrintConfig(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().Bool("show", false, "Print the current configuration and exit")
	configCmd.Flags().StringP("course", "c", "", "Default course ID")
	configCmd.Flags().IntP("year", "y", 0, "Default course year")
	configCmd.Flags().Int("aa", 0, "Pin an academic year (0 = detect)")
	configCmd.Flags().StringP("building", "b", "", "Default building ID for room queries")
}
