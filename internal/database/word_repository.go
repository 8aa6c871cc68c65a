package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// WordRepository handles database operations for catalogue words
type WordRepository struct {
	ext sqlx.ExtContext
}

const wordColumns = `id, word, word_key, article_id, en_tran, uk_tran, ru_tran, tr_tran, ar_tran, created_at, updated_at`

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	err := sqlx.GetContext(ctx, r.ext, &word, r.ext.Rebind(`SELECT `+wordColumns+` FROM words WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(err, "word %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", err)
	}
	return &word, nil
}

// GetByKey returns every word sharing a lookup key, best merge survivor
// first: rows with an article before rows without, then by id.
func (r *WordRepository) GetByKey(ctx context.Context, key string) ([]models.Word, error) {
	var words []models.Word
	err := sqlx.SelectContext(ctx, r.ext, &words, r.ext.Rebind(`
		SELECT `+wordColumns+` FROM words
		WHERE word_key = ?
		ORDER BY CASE WHEN article_id IN (1, 2, 3) THEN 0 ELSE 1 END, id`), key)
	if err != nil {
		return nil, fmt.Errorf("failed to get words by key: %w", err)
	}
	return words, nil
}

// Create inserts a new word and sets its ID
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	if word.ArticleID == 0 {
		word.ArticleID = models.ArticleEmpty
	}
	err := r.ext.QueryRowxContext(ctx, r.ext.Rebind(`
		INSERT INTO words (word, word_key, article_id, en_tran, uk_tran, ru_tran, tr_tran, ar_tran)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		word.Word,
		word.Key,
		word.ArticleID,
		word.EN,
		word.UK,
		word.RU,
		word.TR,
		word.AR,
	).Scan(&word.ID)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, err, "word %q already exists", word.Key)
	}
	if err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	return nil
}

// Update modifies an existing word
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		UPDATE words SET
			word = ?,
			word_key = ?,
			article_id = ?,
			en_tran = ?,
			uk_tran = ?,
			ru_tran = ?,
			tr_tran = ?,
			ar_tran = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		word.Word,
		word.Key,
		word.ArticleID,
		word.EN,
		word.UK,
		word.RU,
		word.TR,
		word.AR,
		word.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "word %d", word.ID)
	}
	return nil
}

// Delete removes a word
func (r *WordRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM words WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// Reassign points every membership and rating row of word from to word to.
// Rows that would collide with an existing row for to are dropped so the
// survivor's own rows win.
func (r *WordRepository) Reassign(ctx context.Context, from, to int64) error {
	stmts := []struct {
		table, owner string
	}{
		{"user_words", "user_id"},
		{"global_ratings", "user_id"},
		{"shared_words", "dict_id"},
	}
	for _, s := range stmts {
		_, err := r.ext.ExecContext(ctx, r.ext.Rebind(fmt.Sprintf(`
			UPDATE %[1]s SET word_id = ?
			WHERE word_id = ? AND %[2]s NOT IN (SELECT %[2]s FROM %[1]s WHERE word_id = ?)`, s.table, s.owner)),
			to, from, to)
		if err != nil {
			return fmt.Errorf("failed to reassign %s: %w", s.table, err)
		}
		_, err = r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM `+s.table+` WHERE word_id = ?`), from)
		if err != nil {
			return fmt.Errorf("failed to drop duplicate %s rows: %w", s.table, err)
		}
	}
	return nil
}

// DuplicateKeys returns the lookup keys held by more than one word.
func (r *WordRepository) DuplicateKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := sqlx.SelectContext(ctx, r.ext, &keys, `
		SELECT word_key FROM words
		GROUP BY word_key
		HAVING COUNT(*) > 1
		ORDER BY word_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate words: %w", err)
	}
	return keys, nil
}

// EnforceUniqueKeys adds the unique index on word_key. It fails with
// Conflict while duplicate keys remain.
func (r *WordRepository) EnforceUniqueKeys(ctx context.Context) error {
	_, err := r.ext.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS uq_words_key ON words(word_key)`)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, err, "duplicate word keys remain")
	}
	if err != nil {
		return fmt.Errorf("failed to create unique word index: %w", err)
	}
	return nil
}

// GetMissingTranslation returns up to limit words with an id above after
// that have no translation into lang, in id order.
func (r *WordRepository) GetMissingTranslation(ctx context.Context, lang models.Language, after int64, limit int) ([]models.Word, error) {
	var words []models.Word
	col := models.TranslationColumn(lang)
	err := sqlx.SelectContext(ctx, r.ext, &words, r.ext.Rebind(`
		SELECT `+wordColumns+` FROM words
		WHERE id > ? AND (`+col+` IS NULL OR `+col+` = '')
		ORDER BY id
		LIMIT ?`), after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get untranslated words: %w", err)
	}
	return words, nil
}

// GetRandomTranslations returns up to limit random translations into lang,
// skipping the given words.
func (r *WordRepository) GetRandomTranslations(ctx context.Context, lang models.Language, exclude []int64, limit int) ([]string, error) {
	col := models.TranslationColumn(lang)
	query := `SELECT ` + col + ` FROM words WHERE ` + col + ` IS NOT NULL AND ` + col + ` <> ''`
	args := []any{}
	if len(exclude) > 0 {
		in, inArgs, err := sqlx.In(` AND id NOT IN (?)`, exclude)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)

	var out []string
	if err := sqlx.SelectContext(ctx, r.ext, &out, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get random translations: %w", err)
	}
	return out, nil
}

// Count returns the number of catalogue words
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.ext, &n, `SELECT COUNT(*) FROM words`); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}
