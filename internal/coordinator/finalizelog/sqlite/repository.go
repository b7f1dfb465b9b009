// Package sqlite provides a SQLite-backed implementation of finalizelog.Repository.
//
// WAL mode is enabled on Open so that the status endpoint can read while a
// checkout is writing.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"

	// Pure-Go driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const columns = `payment_id, status, current_step, COALESCE(payload,''), COALESCE(result,''),
       error_messages, trace_id, span_id, updated_at`

// Repository is the SQLite implementation of finalizelog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema.
//
//	repo, err := sqlite.Open("./data/finalize.db")
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir for %q: %w", path, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new record. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, rec *finalizelog.Record) error {
	const q = `
		INSERT INTO finalize_logs
			(payment_id, status, current_step, payload, result, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		rec.PaymentID,
		string(rec.Status),
		rec.CurrentStep,
		nullableString(rec.Payload),
		nullableString(rec.Result),
		rec.ErrorMessages,
		rec.TraceID,
		rec.SpanID,
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save finalize record for %q: %w", rec.PaymentID, err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, paymentID string) ([]*finalizelog.Record, error) {
	q := `SELECT ` + columns + `
		FROM   finalize_logs
		WHERE  payment_id = ?
		ORDER  BY id ASC`

	rows, err := r.db.QueryContext(ctx, q, paymentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", paymentID, err)
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", paymentID, err)
	}
	if len(out) == 0 {
		return nil, finalizelog.ErrNotFound
	}
	return out, nil
}

func (r *Repository) GetLatest(ctx context.Context, paymentID string) (*finalizelog.Record, error) {
	q := `SELECT ` + columns + `
		FROM   finalize_logs
		WHERE  payment_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, finalizelog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", paymentID, err)
	}
	return rec, nil
}

func (r *Repository) ListPending(ctx context.Context, limit int) ([]*finalizelog.Record, error) {
	q := `SELECT ` + columns + `
		FROM   finalize_logs
		WHERE  id IN (SELECT MAX(id) FROM finalize_logs GROUP BY payment_id)
		AND    status <> ?
		ORDER  BY id ASC
		LIMIT  ?`

	rows, err := r.db.QueryContext(ctx, q, string(finalizelog.StatusCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list pending: %w", err)
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list pending: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*finalizelog.Record, error) {
	var rec finalizelog.Record
	var updatedAt string
	err := s.Scan(
		&rec.PaymentID,
		&rec.Status,
		&rec.CurrentStep,
		&rec.Payload,
		&rec.Result,
		&rec.ErrorMessages,
		&rec.TraceID,
		&rec.SpanID,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*finalizelog.Record, error) {
	var out []*finalizelog.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlite: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return nil
}

// nullableString stores NULL instead of an empty TEXT.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
