package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// GlobalRatingRepository keeps each user's ratings over the global catalogue
type GlobalRatingRepository struct {
	ext sqlx.ExtContext
}

// Rating returns the user's rating of a catalogue word; words never drilled
// rate 0.
func (r *GlobalRatingRepository) Rating(ctx context.Context, userID, wordID int64) (float64, error) {
	var rating float64
	err := sqlx.GetContext(ctx, r.ext, &rating, r.ext.Rebind(`SELECT rating FROM global_ratings WHERE user_id = ? AND word_id = ?`), userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get global rating: %w", err)
	}
	return rating, nil
}

// SetRating upserts the user's rating of a catalogue word
func (r *GlobalRatingRepository) SetRating(ctx context.Context, userID, wordID int64, rating float64) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		INSERT INTO global_ratings (user_id, word_id, rating) VALUES (?, ?, ?)
		ON CONFLICT (user_id, word_id) DO UPDATE SET rating = excluded.rating`), userID, wordID, rating)
	if err != nil {
		return fmt.Errorf("failed to set global rating: %w", err)
	}
	return nil
}

// List returns the catalogue words translated into lang, weakest first for
// this user.
func (r *GlobalRatingRepository) List(ctx context.Context, userID int64, lang models.Language) ([]models.Entry, error) {
	col := models.TranslationColumn(lang)
	var entries []models.Entry
	err := sqlx.SelectContext(ctx, r.ext, &entries, r.ext.Rebind(`
		SELECT w.id AS word_id, w.word, w.article_id, w.`+col+` AS translation,
			COALESCE(g.rating, 0) AS rating
		FROM words w
		LEFT JOIN global_ratings g ON g.word_id = w.id AND g.user_id = ?
		WHERE w.`+col+` IS NOT NULL AND w.`+col+` <> ''
		ORDER BY COALESCE(g.rating, 0), w.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list global words: %w", err)
	}
	return entries, nil
}
