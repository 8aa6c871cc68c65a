package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// PersonalRepository handles the words of personal dictionaries
type PersonalRepository struct {
	ext sqlx.ExtContext
}

// Add links a word to the user's dictionary with rating 0. It reports
// whether a new row was created.
func (r *PersonalRepository) Add(ctx context.Context, userID, wordID int64) (bool, error) {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		INSERT INTO user_words (user_id, word_id, rating) VALUES (?, ?, 0)
		ON CONFLICT (user_id, word_id) DO NOTHING`), userID, wordID)
	if err != nil {
		return false, fmt.Errorf("failed to add personal word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add personal word: %w", err)
	}
	return n > 0, nil
}

// Remove unlinks a word from the user's dictionary
func (r *PersonalRepository) Remove(ctx context.Context, userID, wordID int64) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM user_words WHERE user_id = ? AND word_id = ?`), userID, wordID)
	if err != nil {
		return fmt.Errorf("failed to remove personal word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "word %d in personal dictionary of %d", wordID, userID)
	}
	return nil
}

// Rating returns the rating of a word in the user's dictionary
func (r *PersonalRepository) Rating(ctx context.Context, userID, wordID int64) (float64, error) {
	var rating float64
	err := sqlx.GetContext(ctx, r.ext, &rating, r.ext.Rebind(`SELECT rating FROM user_words WHERE user_id = ? AND word_id = ?`), userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(err, "word %d in personal dictionary of %d", wordID, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get personal rating: %w", err)
	}
	return rating, nil
}

// SetRating stores a new rating for a word in the user's dictionary
func (r *PersonalRepository) SetRating(ctx context.Context, userID, wordID int64, rating float64) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`UPDATE user_words SET rating = ? WHERE user_id = ? AND word_id = ?`), rating, userID, wordID)
	if err != nil {
		return fmt.Errorf("failed to set personal rating: %w", err)
	}
	return nil
}

// SetTranslation overrides the catalogue translation for this user only
func (r *PersonalRepository) SetTranslation(ctx context.Context, userID, wordID int64, translation string) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`UPDATE user_words SET translation = ? WHERE user_id = ? AND word_id = ?`),
		sql.NullString{String: translation, Valid: translation != ""}, userID, wordID)
	if err != nil {
		return fmt.Errorf("failed to set personal translation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "word %d in personal dictionary of %d", wordID, userID)
	}
	return nil
}

// List returns the user's words, weakest first.
func (r *PersonalRepository) List(ctx context.Context, userID int64, lang models.Language) ([]models.Entry, error) {
	var entries []models.Entry
	err := sqlx.SelectContext(ctx, r.ext, &entries, r.ext.Rebind(`
		SELECT w.id AS word_id, w.word, w.article_id,
			COALESCE(uw.translation, w.`+models.TranslationColumn(lang)+`, '') AS translation,
			uw.rating
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = ?
		ORDER BY uw.rating, uw.created_at, w.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal words: %w", err)
	}
	return entries, nil
}
