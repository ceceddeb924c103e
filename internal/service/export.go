package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/export"
)

// HistorySource supplies the display-ordered history. *TripService satisfies it.
type HistorySource interface {
	History(ctx context.Context) ([]domain.TripRecord, error)
}

// ExportService writes the trip history to xlsx, json or csv files.
type ExportService struct {
	history HistorySource
	clock   Clock
	dir     string
	log     *slog.Logger
}

// NewExportService constructs an ExportService. Files without an explicit
// path are written to dir.
func NewExportService(history HistorySource, clock Clock, dir string, log *slog.Logger) *ExportService {
	if clock == nil {
		clock = SystemClock{}
	}
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExportService{history: history, clock: clock, dir: dir, log: log}
}

// Records returns the history to export.
// Returns domain.ErrEmptyHistory when no trip has been recorded.
func (s *ExportService) Records(ctx context.Context) ([]domain.TripRecord, error) {
	records, err := s.history.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("service.ExportService.Records: %w: no trips to export", domain.ErrEmptyHistory)
	}
	return records, nil
}

// ExportAs writes the history to path in the given format and returns the
// path written. An empty path gets a timestamped name in the export directory.
// Nothing is written when the history is empty.
func (s *ExportService) ExportAs(ctx context.Context, format domain.ExportFormat, path string) (string, error) {
	if _, err := domain.ParseExportFormat(string(format)); err != nil {
		return "", fmt.Errorf("service.ExportService.ExportAs: %w", err)
	}
	records, err := s.Records(ctx)
	if err != nil {
		return "", fmt.Errorf("service.ExportService.ExportAs: %w", err)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join(s.dir, s.FileName(format))
	}
	if err := writeExport(path, format, records); err != nil {
		return "", fmt.Errorf("service.ExportService.ExportAs: %w", err)
	}
	s.log.InfoContext(ctx, "history exported", "format", format, "path", path, "trips", len(records))
	return path, nil
}

// FileName returns the default export file name for the current time,
// e.g. historico_viagens_20240101_081500.xlsx.
func (s *ExportService) FileName(format domain.ExportFormat) string {
	return "historico_viagens_" + s.clock.Now().Format("20060102_150405") + format.Extension()
}

// writeExport encodes records into a new file at path. A failed encode
// removes the partial file.
func writeExport(path string, format domain.ExportFormat, records []domain.TripRecord) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := export.Encode(f, format, records); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}
