// Package main is the command line client of the trip logbook. It opens the
// configured storage backend directly; no server is needed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/trip-logbook/internal/bootstrap"
	"github.com/pkordes/trip-logbook/internal/config"
)

// appOpener builds the services a command runs against.
type appOpener func(ctx context.Context) (*bootstrap.App, error)

func main() {
	if err := newRootCmd(loadApp).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(open appOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "logbook",
		Short:         "Vehicle trip logbook",
		Long:          `Record trip departures and arrivals, browse the history and export it to xlsx, json or csv.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(open),
		newFinishCmd(open),
		newActiveCmd(open),
		newListCmd(open),
		newUpdateCmd(open),
		newImportCmd(open),
		newExportCmd(open),
	)
	return root
}

// loadApp reads .env and the environment, then opens the configured backend.
// Logs go to stderr so they never mix with command output.
func loadApp(ctx context.Context) (*bootstrap.App, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return bootstrap.Open(ctx, cfg, logger)
}
