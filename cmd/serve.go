package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orarictl/pkg/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve timetables over HTTP",
	Long: `Start a small HTTP server exposing courses, lessons, room occupancy and
subscribable ICS calendars as JSON endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Listening on %s\n", addr)
		return server.New(s.service).Start(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
