package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users
type UserRepository struct {
	ext sqlx.ExtContext
}

const userColumns = `id, language, flavour, shared_dict_id, level, streak, last_active, created_at`

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.ext, &user, r.ext.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(err, "user %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// GetOrCreate returns the user, creating a fresh row on first interaction.
// A fresh user has no language yet.
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64) (*models.User, error) {
	_, err := r.ext.ExecContext(ctx,
		r.ext.Rebind(`INSERT INTO users (id) VALUES (?) ON CONFLICT (id) DO NOTHING`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update stores every mutable column of the user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		UPDATE users SET
			language = ?,
			flavour = ?,
			shared_dict_id = ?,
			level = ?,
			streak = ?,
			last_active = ?
		WHERE id = ?`),
		user.Language,
		user.Flavour,
		user.SharedDictID,
		user.Level,
		user.Streak,
		user.LastActive,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "user %d", user.ID)
	}
	return nil
}

// GetStreakersInactiveSince returns users with a running streak who have not
// been active on or after day.
func (r *UserRepository) GetStreakersInactiveSince(ctx context.Context, day time.Time) ([]models.User, error) {
	var users []models.User
	err := sqlx.SelectContext(ctx, r.ext, &users, r.ext.Rebind(`
		SELECT `+userColumns+` FROM users
		WHERE streak > 0 AND language <> '' AND last_active IS NOT NULL AND last_active < ?
		ORDER BY id`), day)
	if err != nil {
		return nil, fmt.Errorf("failed to get inactive users: %w", err)
	}
	return users, nil
}

// ClearSharedSelection points every user that selected dictID back to their
// personal dictionary.
func (r *UserRepository) ClearSharedSelection(ctx context.Context, userID, dictID int64) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		UPDATE users SET flavour = ?, shared_dict_id = NULL
		WHERE id = ? AND shared_dict_id = ?`), models.FlavourPersonal, userID, dictID)
	if err != nil {
		return fmt.Errorf("failed to clear shared selection: %w", err)
	}
	return nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.ext, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
