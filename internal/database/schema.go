package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/grammar"
)

var tables = []string{
	"users",
	"articles",
	"words",
	"user_words",
	"global_ratings",
	"shared_dictionaries",
	"shared_members",
	"shared_words",
	"possessive_forms",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		language TEXT NOT NULL DEFAULT '',
		flavour INTEGER NOT NULL DEFAULT 0,
		shared_dict_id BIGINT,
		level INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		last_active DATE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY,
		article TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS words (
		id {{serial}},
		word TEXT NOT NULL,
		word_key TEXT NOT NULL,
		article_id INTEGER NOT NULL DEFAULT 4 REFERENCES articles(id),
		en_tran TEXT,
		uk_tran TEXT,
		ru_tran TEXT,
		tr_tran TEXT,
		ar_tran TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_key ON words(word_key)`,
	`CREATE TABLE IF NOT EXISTS user_words (
		user_id BIGINT NOT NULL REFERENCES users(id),
		word_id BIGINT NOT NULL REFERENCES words(id),
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		translation TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, word_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_words_word ON user_words(word_id)`,
	`CREATE TABLE IF NOT EXISTS global_ratings (
		user_id BIGINT NOT NULL REFERENCES users(id),
		word_id BIGINT NOT NULL REFERENCES words(id),
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, word_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shared_dictionaries (
		id {{serial}},
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		creator_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS shared_members (
		user_id BIGINT NOT NULL REFERENCES users(id),
		dict_id BIGINT NOT NULL REFERENCES shared_dictionaries(id) ON DELETE CASCADE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, dict_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shared_words (
		dict_id BIGINT NOT NULL REFERENCES shared_dictionaries(id) ON DELETE CASCADE,
		word_id BIGINT NOT NULL REFERENCES words(id),
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		translation TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (dict_id, word_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shared_words_word ON shared_words(word_id)`,
	`CREATE TABLE IF NOT EXISTS possessive_forms (
		pronoun TEXT NOT NULL,
		case_name TEXT NOT NULL,
		gender TEXT NOT NULL,
		number TEXT NOT NULL,
		form TEXT NOT NULL,
		PRIMARY KEY (pronoun, case_name, gender, number)
	)`,
}

// initializeSchema creates necessary tables if they don't exist and seeds
// the article rows and the possessive paradigm.
func (s *Store) initializeSchema(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.DriverName() == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", serial)
		if _, err := s.ext.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	articles := []struct {
		id   int64
		name string
	}{{1, "der"}, {2, "die"}, {3, "das"}, {4, ""}}
	for _, a := range articles {
		_, err := s.ext.ExecContext(ctx,
			s.ext.Rebind(`INSERT INTO articles (id, article) VALUES (?, ?) ON CONFLICT DO NOTHING`), a.id, a.name)
		if err != nil {
			return fmt.Errorf("failed to seed articles: %w", err)
		}
	}

	return s.WithinTx(ctx, func(tx *Store) error {
		return tx.Grammar.Seed(ctx, grammar.Generate())
	})
}

// CheckSchema verifies that every table exists and the possessive paradigm
// has been seeded.
func (s *Store) CheckSchema(ctx context.Context) error {
	for _, table := range tables {
		var n int
		err := s.ext.QueryRowxContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
		if err != nil {
			return apperr.New(apperr.SchemaMissing, err, "table %s is missing", table)
		}
	}

	n, err := s.Grammar.Count(ctx)
	if err != nil {
		return err
	}
	if n < len(grammar.Generate()) {
		return apperr.New(apperr.SchemaMissing, nil, "possessive forms not seeded (%d rows)", n)
	}
	return nil
}
