package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"orarictl/pkg/config"
	"orarictl/pkg/offline"
	"orarictl/pkg/scraper"
	"orarictl/pkg/store"
	"orarictl/pkg/tui"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	noCache   bool
	timeout   time.Duration
	portalURL string
	backend   string
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "orarictl",
	Short: "A CLI and TUI for UniVR timetables",
	Long: `orarictl is an application for students at the University of Verona
to browse course timetables, find free rooms and export lessons to an .ics file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log portal diagnostics to stderr")
	flags.BoolVar(&noCache, "no-cache", false, "Do not read or write offline snapshots")
	flags.DurationVar(&timeout, "timeout", 0, "Per-request timeout (default 30s)")
	flags.StringVar(&portalURL, "portal", "", "Portal base URL override")
	flags.StringVar(&backend, "backend", "", "Offline snapshot backend: file or sqlite")
	flags.BoolVar(&jsonOut, "json", false, "Print results as JSON")
}

// session bundles what every command needs to talk to the portal.
type session struct {
	cfg     *config.AppConfig
	service *offline.Service
	logger  *log.Logger
	store   store.Store
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Printf("Closing offline store: %v", err)
		}
	}
}

// newSession merges config file and flags and wires client, store and service.
func newSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	tui.GetTheme()

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "orarictl: ", log.LstdFlags)
	}

	var opts []scraper.Option
	opts = append(opts, scraper.WithLogger(logger))
	if d := cfg.Timeout(); d > 0 {
		opts = append(opts, scraper.WithTimeout(d))
	}
	if timeout > 0 {
		opts = append(opts, scraper.WithTimeout(timeout))
	}
	if u := firstSet(portalURL, cfg.PortalURL); u != "" {
		opts = append(opts, scraper.WithBaseURL(u))
	}
	client := scraper.NewClient(opts...)

	var st store.Store
	if !noCache {
		st, err = store.Open(firstSet(backend, cfg.Backend()))
		if err != nil {
			// Continue without offline snapshots.
			logger.Printf("Offline store unavailable: %v", err)
			st = nil
		}
	}

	return &session{
		cfg:     cfg,
		service: offline.New(client, st, logger),
		logger:  logger,
		store:   st,
	}, nil
}

// printResult writes v as JSON when --json is set and reports whether it did.
func printResult(v any) (bool, error) {
	if !jsonOut {
		return false, nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

// printStale warns on stderr when a result came from the offline store.
func printStale(stale offline.Stale) {
	if notice := tui.StaleNotice(stale); notice != "" {
		fmt.Fprintln(os.Stderr, notice)
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
