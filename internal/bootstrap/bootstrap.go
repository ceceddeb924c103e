// Package bootstrap wires the configured storage backend to the services.
// Both the API server and the CLI start from Open.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/trip-logbook/internal/config"
	"github.com/pkordes/trip-logbook/internal/repo"
	"github.com/pkordes/trip-logbook/internal/service"
)

// App holds the services built for one process.
type App struct {
	Trips  *service.TripService
	Export *service.ExportService

	close func()
}

// Close releases the storage backend. It is safe to call more than once.
func (a *App) Close() {
	if a.close != nil {
		a.close()
		a.close = nil
	}
}

// Open builds the repo selected by cfg.Backend and the services on top of it.
// The SQL backends are migrated before Open returns.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	trips, closeFn, err := openRepo(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.Open: %w", err)
	}
	log.InfoContext(ctx, "storage ready", "backend", cfg.Backend)

	clk := service.SystemClock{}
	tripSvc := service.NewTripService(trips, clk, log)
	return &App{
		Trips:  tripSvc,
		Export: service.NewExportService(tripSvc, clk, cfg.ExportDir, log),
		close:  closeFn,
	}, nil
}

func openRepo(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.TripRepo, func(), error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		r, err := repo.NewJSONTripRepo(cfg.DataFile, log)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil

	case config.BackendSQLite:
		db, err := repo.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewSQLiteTripRepo(db), func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := repo.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewPostgresTripRepo(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
