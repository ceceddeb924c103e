package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// pgDB is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
// Accepting it instead of *pgxpool.Pool lets integration tests pass a
// transaction that is rolled back after each test. Begin on a pgx.Tx opens a
// savepoint, so ReplaceAll stays atomic in both cases.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgUniqueViolation is the SQLSTATE of a unique index violation.
const pgUniqueViolation = "23505"

const pgTripColumns = `id, data, hora_saida, km_inicial, destino, hora_chegada, km_final, criado_em, atualizado_em`

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db pgDB
}

// NewPostgresTripRepo constructs a TripRepo backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresTripRepo(db pgDB) TripRepo {
	return &pgTripRepo{db: db}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	result, err := pgInsert(ctx, r.db, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	const q = `SELECT ` + pgTripColumns + ` FROM viagens WHERE id = @id`

	result, err := scanPgTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetActive returns the newest trip without an arrival.
func (r *pgTripRepo) GetActive(ctx context.Context) (domain.Trip, error) {
	const q = `
		SELECT ` + pgTripColumns + `
		FROM viagens
		WHERE hora_chegada IS NULL
		ORDER BY id DESC
		LIMIT 1`

	result, err := scanPgTrip(r.db.QueryRow(ctx, q))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.GetActive: %w", err)
	}
	return result, nil
}

// List returns all trips ordered by id.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + pgTripColumns + ` FROM viagens ORDER BY id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.List: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanPgTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.pgTripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.List: rows: %w: %w", domain.ErrPersistence, err)
	}
	return trips, nil
}

// Update overwrites the stored columns of a trip. The atualiza_timestamp
// trigger refreshes atualizado_em.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE viagens
		SET data         = @data,
		    hora_saida   = @hora_saida,
		    km_inicial   = @km_inicial,
		    destino      = @destino,
		    hora_chegada = @hora_chegada,
		    km_final     = @km_final
		WHERE id = @id
		RETURNING ` + pgTripColumns

	result, err := scanPgTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs(tripArgs(trip))))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.Update: %w", err)
	}
	return result, nil
}

// ReplaceAll empties the table and re-inserts trips inside one transaction.
func (r *pgTripRepo) ReplaceAll(ctx context.Context, trips []domain.Trip) ([]domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.ReplaceAll: begin: %w: %w", domain.ErrPersistence, err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	// RESTART IDENTITY numbers the new history from 1 again.
	if _, err := tx.Exec(ctx, `TRUNCATE viagens RESTART IDENTITY`); err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.ReplaceAll: truncate: %w: %w", domain.ErrPersistence, err)
	}

	stored := make([]domain.Trip, 0, len(trips))
	for _, trip := range trips {
		t, err := pgInsert(ctx, tx, trip)
		if err != nil {
			return nil, fmt.Errorf("repo.pgTripRepo.ReplaceAll: %w", err)
		}
		stored = append(stored, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.ReplaceAll: commit: %w: %w", domain.ErrPersistence, err)
	}
	return stored, nil
}

// pgInsert inserts one trip through db, which may be the pool or a transaction.
func pgInsert(ctx context.Context, db pgDB, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO viagens (data, hora_saida, km_inicial, destino, hora_chegada, km_final)
		VALUES (@data, @hora_saida, @km_inicial, @destino, @hora_chegada, @km_final)
		RETURNING ` + pgTripColumns

	return scanPgTrip(db.QueryRow(ctx, q, pgx.NamedArgs(tripArgs(trip))))
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanPgTrip to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanPgTrip maps a single database row into a domain.Trip.
func scanPgTrip(s scanner) (domain.Trip, error) {
	var (
		row       tripRow
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.Scan(&row.ID, &row.Date, &row.Departure, &row.StartKm, &row.Destination,
		&row.Arrival, &row.EndKm, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "viagens_uma_ativa" {
			return domain.Trip{}, fmt.Errorf("%w: another trip is already active", domain.ErrValidation)
		}
		return domain.Trip{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return row.toDomain(createdAt, updatedAt)
}
