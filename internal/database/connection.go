package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/derbot/internal/apperr"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database to connect to.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string
	// DSN is a file path for SQLite or a connection URL for PostgreSQL.
	DSN string
}

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext

	Users    *UserRepository
	Words    *WordRepository
	Personal *PersonalRepository
	Global   *GlobalRatingRepository
	Shared   *SharedRepository
	Grammar  *GrammarRepository
	Stats    *StatisticsRepository
}

func newStore(db *sqlx.DB, ext sqlx.ExtContext) *Store {
	return &Store{
		db:       db,
		ext:      ext,
		Users:    &UserRepository{ext: ext},
		Words:    &WordRepository{ext: ext},
		Personal: &PersonalRepository{ext: ext},
		Global:   &GlobalRatingRepository{ext: ext},
		Shared:   &SharedRepository{ext: ext},
		Grammar:  &GrammarRepository{ext: ext},
		Stats:    &StatisticsRepository{ext: ext},
	}
}

// Open establishes a connection, initializes the schema and seeds the fixed
// tables.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" || driver == "sqlite" {
		driver = DriverSQLite
	}

	if driver == DriverSQLite && cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers, and every connection to
		// :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := newStore(db, db)
	if err := s.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DriverName reports the driver the store runs on.
func (s *Store) DriverName() string {
	return s.ext.DriverName()
}

// WithinTx runs fn against a transaction-scoped Store. The transaction is
// committed when fn returns nil and rolled back otherwise. Calls on a store
// that is already transactional run fn directly.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(newStore(s.db, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation recognises unique constraint failures of both drivers.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// notFound wraps sql.ErrNoRows-style misses.
func notFound(err error, what string, args ...any) error {
	return apperr.New(apperr.NotFound, err, what, args...)
}
