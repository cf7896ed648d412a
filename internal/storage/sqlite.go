package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contas/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on modernc.org/sqlite. Inside InTx the same
// type runs with q bound to the transaction, so every query method works
// identically in and out of a transaction.
type SQLiteStore struct {
	db *sql.DB
	q  querier
	tx *sql.Tx // non-nil when this store is a transactional view
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.tx != nil {
		// Transactional views do not own the connection.
		return nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InTx starts a transaction and hands fn a store bound to it. Nested calls
// reuse the enclosing transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapSQLErr translates driver errors into the domain taxonomy.
func mapSQLErr(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return core.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return core.ErrConflict
	}
	return err
}

func newRowID() string { return uuid.New().String() }

// Date and timestamp column helpers. Plain dates use ISO day precision,
// timestamps full RFC 3339.

const dayFormat = "2006-01-02"

func dateToCol(d core.Date) string { return d.Format(dayFormat) }

func dateFromCol(s string) (core.Date, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date column %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func datePtrToCol(d *core.Date) any {
	if d == nil {
		return nil
	}
	return dateToCol(*d)
}

func datePtrFromCol(ns sql.NullString) (*core.Date, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := dateFromCol(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func timeToCol(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func timeFromCol(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp column %q: %w", s, err)
	}
	return t, nil
}

func timePtrToCol(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeToCol(*t)
}

func timePtrFromCol(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := timeFromCol(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func intPtrToCol(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func intPtrFromCol(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func moneyPtrToCol(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func moneyPtrFromCol(ni sql.NullInt64) *core.Money {
	if !ni.Valid {
		return nil
	}
	return &core.Money{Cents: ni.Int64}
}

func strPtrToCol(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strPtrFromCol(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
