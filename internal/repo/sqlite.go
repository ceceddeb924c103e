package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pkordes/trip-logbook/internal/domain"
)

const sqliteTripColumns = `id, data, hora_saida, km_inicial, destino, hora_chegada, km_final, criado_em, atualizado_em`

// sqliteTripRow adds the timestamp columns, which SQLite hands back as text.
type sqliteTripRow struct {
	tripRow
	CreatedAt string `db:"criado_em"`
	UpdatedAt string `db:"atualizado_em"`
}

func (r sqliteTripRow) toDomain() (domain.Trip, error) {
	return r.tripRow.toDomain(parseSQLiteTime(r.CreatedAt), parseSQLiteTime(r.UpdatedAt))
}

// sqliteTimeLayouts are the shapes CURRENT_TIMESTAMP values take once they
// have gone through the driver and database/sql.
var sqliteTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"}

func parseSQLiteTime(s string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// sqliteTripRepo is the SQLite implementation of TripRepo.
type sqliteTripRepo struct {
	db *sqlx.DB
}

// NewSQLiteTripRepo constructs a TripRepo backed by a migrated SQLite database
// (see OpenSQLite).
func NewSQLiteTripRepo(db *sqlx.DB) TripRepo {
	return &sqliteTripRepo{db: db}
}

// Create inserts a new trip and reads it back to pick up id and timestamps.
func (r *sqliteTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	id, err := sqliteInsert(ctx, r.db, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.Create: %w", err)
	}
	result, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *sqliteTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	const q = `SELECT ` + sqliteTripColumns + ` FROM viagens WHERE id = ?`

	result, err := r.getOne(ctx, q, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetActive returns the newest trip without an arrival.
func (r *sqliteTripRepo) GetActive(ctx context.Context) (domain.Trip, error) {
	const q = `
		SELECT ` + sqliteTripColumns + `
		FROM viagens
		WHERE hora_chegada IS NULL
		ORDER BY id DESC
		LIMIT 1`

	result, err := r.getOne(ctx, q)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.GetActive: %w", err)
	}
	return result, nil
}

// List returns all trips ordered by id.
func (r *sqliteTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := sqliteList(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.List: %w", err)
	}
	return trips, nil
}

// Update overwrites the stored columns of a trip. The atualiza_timestamp
// trigger refreshes atualizado_em.
func (r *sqliteTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE viagens
		SET data         = :data,
		    hora_saida   = :hora_saida,
		    km_inicial   = :km_inicial,
		    destino      = :destino,
		    hora_chegada = :hora_chegada,
		    km_final     = :km_final
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, q, tripArgs(trip))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.Update: %w: %w", domain.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.Update: %w: %w", domain.ErrPersistence, err)
	}
	if n == 0 {
		return domain.Trip{}, fmt.Errorf("repo.sqliteTripRepo.Update: %w", domain.ErrNotFound)
	}
	return r.GetByID(ctx, trip.ID)
}

// ReplaceAll deletes every row and re-inserts trips inside one transaction.
func (r *sqliteTripRepo) ReplaceAll(ctx context.Context, trips []domain.Trip) ([]domain.Trip, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: begin: %w: %w", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM viagens`); err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: delete: %w: %w", domain.ErrPersistence, err)
	}
	// Restart AUTOINCREMENT so the new history is numbered from 1.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'viagens'`); err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: reset sequence: %w: %w", domain.ErrPersistence, err)
	}
	for _, trip := range trips {
		if _, err := sqliteInsert(ctx, tx, trip); err != nil {
			return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: %w", err)
		}
	}
	stored, err := sqliteList(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("repo.sqliteTripRepo.ReplaceAll: commit: %w: %w", domain.ErrPersistence, err)
	}
	return stored, nil
}

func (r *sqliteTripRepo) getOne(ctx context.Context, q string, args ...any) (domain.Trip, error) {
	var row sqliteTripRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return row.toDomain()
}

// sqliteExt is satisfied by both *sqlx.DB and *sqlx.Tx.
type sqliteExt interface {
	sqlx.ExtContext
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func sqliteInsert(ctx context.Context, db sqliteExt, trip domain.Trip) (int64, error) {
	const q = `
		INSERT INTO viagens (data, hora_saida, km_inicial, destino, hora_chegada, km_final)
		VALUES (:data, :hora_saida, :km_inicial, :destino, :hora_chegada, :km_final)`

	res, err := db.NamedExecContext(ctx, q, tripArgs(trip))
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return 0, fmt.Errorf("insert: %w: another trip is already active", domain.ErrValidation)
	}
	if err != nil {
		return 0, fmt.Errorf("insert: %w: %w", domain.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert: %w: %w", domain.ErrPersistence, err)
	}
	return id, nil
}

func sqliteList(ctx context.Context, db sqliteExt) ([]domain.Trip, error) {
	const q = `SELECT ` + sqliteTripColumns + ` FROM viagens ORDER BY id`

	var rows []sqliteTripRow
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	trips := make([]domain.Trip, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}
