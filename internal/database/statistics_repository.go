package database

import (
	"context"
	"fmt"

	"github.com/example/derbot/internal/rating"
	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StatisticsRepository computes rating summaries over dictionaries
type StatisticsRepository struct {
	ext sqlx.ExtContext
}

// SystemStats counts the rows of the main tables.
type SystemStats struct {
	Users  int `db:"users"`
	Words  int `db:"words"`
	Shared int `db:"shared"`
}

// ForScope returns word count, mastered count and average rating of the
// dictionary named by scope. lang only matters for the global catalogue,
// which counts the words translated into it.
func (r *StatisticsRepository) ForScope(ctx context.Context, scope models.Scope, lang models.Language) (*models.DictionaryStats, error) {
	var (
		query string
		args  []any
	)
	switch scope.Flavour {
	case models.FlavourPersonal:
		query = `
			SELECT COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN rating >= ? THEN 1 ELSE 0 END), 0) AS mastered,
				COALESCE(AVG(rating), 0) AS average_rating
			FROM user_words WHERE user_id = ?`
		args = []any{rating.MasteredThreshold, scope.UserID}
	case models.FlavourShared:
		query = `
			SELECT COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN rating >= ? THEN 1 ELSE 0 END), 0) AS mastered,
				COALESCE(AVG(rating), 0) AS average_rating
			FROM shared_words WHERE dict_id = ?`
		args = []any{rating.MasteredThreshold, scope.SharedID}
	default:
		col := models.TranslationColumn(lang)
		query = `
			SELECT COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN COALESCE(g.rating, 0) >= ? THEN 1 ELSE 0 END), 0) AS mastered,
				COALESCE(AVG(COALESCE(g.rating, 0)), 0) AS average_rating
			FROM words w
			LEFT JOIN global_ratings g ON g.word_id = w.id AND g.user_id = ?
			WHERE w.` + col + ` IS NOT NULL AND w.` + col + ` <> ''`
		args = []any{rating.MasteredThreshold, scope.UserID}
	}

	var stats models.DictionaryStats
	if err := sqlx.GetContext(ctx, r.ext, &stats, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get dictionary statistics: %w", err)
	}
	return &stats, nil
}

// System returns table counts for the admin overview
func (r *StatisticsRepository) System(ctx context.Context) (*SystemStats, error) {
	var stats SystemStats
	err := sqlx.GetContext(ctx, r.ext, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM words) AS words,
			(SELECT COUNT(*) FROM shared_dictionaries) AS shared`)
	if err != nil {
		return nil, fmt.Errorf("failed to get system statistics: %w", err)
	}
	return &stats, nil
}
