package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// jsonTripRepo keeps the whole history in one JSON document: an indented
// array of domain.TripRecord. The file is read on every call and rewritten
// wholesale on every mutation. IDs are 1-indexed positions in the array.
type jsonTripRepo struct {
	mu   sync.Mutex // serialises read-modify-write cycles
	path string
	log  *slog.Logger
}

// NewJSONTripRepo constructs a TripRepo backed by the JSON document at path.
// The parent directory is created if needed; the file itself is created by
// the first mutation.
func NewJSONTripRepo(path string, log *slog.Logger) (TripRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("repo.NewJSONTripRepo: %w: %w", domain.ErrPersistence, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &jsonTripRepo{path: path, log: log}, nil
}

func (r *jsonTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Create: %w", err)
	}
	if trip.IsActive() {
		for _, t := range trips {
			if t.IsActive() {
				return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Create: %w: another trip is already active", domain.ErrValidation)
			}
		}
	}
	trip.ID = int64(len(trips) + 1)
	trips = append(trips, trip)
	if err := r.save(trips); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Create: %w", err)
	}
	return trip, nil
}

func (r *jsonTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.GetByID: %w", err)
	}
	if id < 1 || id > int64(len(trips)) {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.GetByID: %w", domain.ErrNotFound)
	}
	return trips[id-1], nil
}

func (r *jsonTripRepo) GetActive(ctx context.Context) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.GetActive: %w", err)
	}
	for i := len(trips) - 1; i >= 0; i-- {
		if trips[i].IsActive() {
			return trips[i], nil
		}
	}
	return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.GetActive: %w", domain.ErrNotFound)
}

func (r *jsonTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.jsonTripRepo.List: %w", err)
	}
	return trips, nil
}

func (r *jsonTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trips, err := r.load(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Update: %w", err)
	}
	if trip.ID < 1 || trip.ID > int64(len(trips)) {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Update: %w", domain.ErrNotFound)
	}
	trips[trip.ID-1] = trip
	if err := r.save(trips); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.jsonTripRepo.Update: %w", err)
	}
	return trip, nil
}

func (r *jsonTripRepo) ReplaceAll(ctx context.Context, trips []domain.Trip) ([]domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]domain.Trip, len(trips))
	for i, t := range trips {
		t.ID = int64(i + 1)
		stored[i] = t
	}
	if err := r.save(stored); err != nil {
		return nil, fmt.Errorf("repo.jsonTripRepo.ReplaceAll: %w", err)
	}
	return stored, nil
}

// load reads the document. A missing file is an empty history. Records that
// no longer validate are skipped with a warning; positions, and so IDs, are
// renumbered over the surviving records.
func (r *jsonTripRepo) load(ctx context.Context) ([]domain.Trip, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Trip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrPersistence, r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Trip{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrPersistence, r.path, err)
	}

	trips := make([]domain.Trip, 0, len(raw))
	for i, msg := range raw {
		var rec domain.TripRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			r.log.WarnContext(ctx, "skipping unreadable trip record", "file", r.path, "index", i, "error", err)
			continue
		}
		trip, err := domain.TripFromRecord(rec)
		if err != nil {
			r.log.WarnContext(ctx, "skipping invalid trip record", "file", r.path, "index", i, "error", err)
			continue
		}
		trip.ID = int64(len(trips) + 1)
		trips = append(trips, trip)
	}
	return trips, nil
}

// save writes the whole document to a temporary file next to the target and
// renames it into place, so a failed write never truncates the history.
func (r *jsonTripRepo) save(trips []domain.Trip) error {
	records := make([]domain.TripRecord, len(trips))
	for i, t := range trips {
		records[i] = t.ToRecord(int64(i + 1))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".trips-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistence, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrPersistence, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", domain.ErrPersistence, r.path, err)
	}
	return nil
}
