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

// SharedRepository handles shared dictionaries, their members and words
type SharedRepository struct {
	ext sqlx.ExtContext
}

const sharedColumns = `id, name, code, creator_id, created_at`

// Create inserts a new shared dictionary. A taken code yields Conflict.
func (r *SharedRepository) Create(ctx context.Context, d *models.SharedDictionary) error {
	err := r.ext.QueryRowxContext(ctx, r.ext.Rebind(`
		INSERT INTO shared_dictionaries (name, code, creator_id) VALUES (?, ?, ?)
		RETURNING id`), d.Name, d.Code, d.CreatorID).Scan(&d.ID)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Conflict, err, "code %s is taken", d.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create shared dictionary: %w", err)
	}
	return nil
}

// GetByID returns a shared dictionary by ID
func (r *SharedRepository) GetByID(ctx context.Context, id int64) (*models.SharedDictionary, error) {
	var d models.SharedDictionary
	err := sqlx.GetContext(ctx, r.ext, &d, r.ext.Rebind(`SELECT `+sharedColumns+` FROM shared_dictionaries WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(err, "shared dictionary %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared dictionary: %w", err)
	}
	return &d, nil
}

// GetByCode returns a shared dictionary by its access code
func (r *SharedRepository) GetByCode(ctx context.Context, code string) (*models.SharedDictionary, error) {
	var d models.SharedDictionary
	err := sqlx.GetContext(ctx, r.ext, &d, r.ext.Rebind(`SELECT `+sharedColumns+` FROM shared_dictionaries WHERE code = ?`), code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(err, "shared dictionary with code %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared dictionary by code: %w", err)
	}
	return &d, nil
}

// GetAllByUserID returns the shared dictionaries the user belongs to
func (r *SharedRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.SharedDictionary, error) {
	var dicts []models.SharedDictionary
	err := sqlx.SelectContext(ctx, r.ext, &dicts, r.ext.Rebind(`
		SELECT d.id, d.name, d.code, d.creator_id, d.created_at
		FROM shared_dictionaries d
		JOIN shared_members m ON m.dict_id = d.id
		WHERE m.user_id = ?
		ORDER BY d.name, d.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shared dictionaries: %w", err)
	}
	return dicts, nil
}

// AddMember inserts a membership row. An existing row yields Conflict.
func (r *SharedRepository) AddMember(ctx context.Context, m models.SharedMembership) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		INSERT INTO shared_members (user_id, dict_id, is_admin) VALUES (?, ?, ?)
		ON CONFLICT (user_id, dict_id) DO NOTHING`), m.UserID, m.DictID, m.IsAdmin)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.Conflict, nil, "user %d is already a member of %d", m.UserID, m.DictID)
	}
	return nil
}

// Member returns the membership of a user in a shared dictionary
func (r *SharedRepository) Member(ctx context.Context, userID, dictID int64) (*models.SharedMembership, error) {
	var m models.SharedMembership
	err := sqlx.GetContext(ctx, r.ext, &m, r.ext.Rebind(`
		SELECT user_id, dict_id, is_admin FROM shared_members
		WHERE user_id = ? AND dict_id = ?`), userID, dictID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(err, "user %d is not a member of %d", userID, dictID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

// Members returns every membership of a shared dictionary, admins first
func (r *SharedRepository) Members(ctx context.Context, dictID int64) ([]models.SharedMembership, error) {
	var ms []models.SharedMembership
	err := sqlx.SelectContext(ctx, r.ext, &ms, r.ext.Rebind(`
		SELECT user_id, dict_id, is_admin FROM shared_members
		WHERE dict_id = ?
		ORDER BY is_admin DESC, user_id`), dictID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return ms, nil
}

// RemoveMember deletes a membership row
func (r *SharedRepository) RemoveMember(ctx context.Context, userID, dictID int64) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM shared_members WHERE user_id = ? AND dict_id = ?`), userID, dictID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "user %d is not a member of %d", userID, dictID)
	}
	return nil
}

// AddWord links a word to a shared dictionary. It reports whether a new row
// was created.
func (r *SharedRepository) AddWord(ctx context.Context, dictID, wordID int64) (bool, error) {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`
		INSERT INTO shared_words (dict_id, word_id, rating) VALUES (?, ?, 0)
		ON CONFLICT (dict_id, word_id) DO NOTHING`), dictID, wordID)
	if err != nil {
		return false, fmt.Errorf("failed to add shared word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add shared word: %w", err)
	}
	return n > 0, nil
}

// RemoveWord unlinks a word from a shared dictionary
func (r *SharedRepository) RemoveWord(ctx context.Context, dictID, wordID int64) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM shared_words WHERE dict_id = ? AND word_id = ?`), dictID, wordID)
	if err != nil {
		return fmt.Errorf("failed to remove shared word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "word %d in shared dictionary %d", wordID, dictID)
	}
	return nil
}

// Rating returns the dictionary-wide rating of a word
func (r *SharedRepository) Rating(ctx context.Context, dictID, wordID int64) (float64, error) {
	var rating float64
	err := sqlx.GetContext(ctx, r.ext, &rating, r.ext.Rebind(`SELECT rating FROM shared_words WHERE dict_id = ? AND word_id = ?`), dictID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(err, "word %d in shared dictionary %d", wordID, dictID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get shared rating: %w", err)
	}
	return rating, nil
}

// SetRating stores the dictionary-wide rating of a word
func (r *SharedRepository) SetRating(ctx context.Context, dictID, wordID int64, rating float64) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`UPDATE shared_words SET rating = ? WHERE dict_id = ? AND word_id = ?`), rating, dictID, wordID)
	if err != nil {
		return fmt.Errorf("failed to set shared rating: %w", err)
	}
	return nil
}

// SetTranslation overrides the catalogue translation inside one dictionary
func (r *SharedRepository) SetTranslation(ctx context.Context, dictID, wordID int64, translation string) error {
	res, err := r.ext.ExecContext(ctx, r.ext.Rebind(`UPDATE shared_words SET translation = ? WHERE dict_id = ? AND word_id = ?`),
		sql.NullString{String: translation, Valid: translation != ""}, dictID, wordID)
	if err != nil {
		return fmt.Errorf("failed to set shared translation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, "word %d in shared dictionary %d", wordID, dictID)
	}
	return nil
}

// ListWords returns the words of a shared dictionary, weakest first
func (r *SharedRepository) ListWords(ctx context.Context, dictID int64, lang models.Language) ([]models.Entry, error) {
	var entries []models.Entry
	err := sqlx.SelectContext(ctx, r.ext, &entries, r.ext.Rebind(`
		SELECT w.id AS word_id, w.word, w.article_id,
			COALESCE(sw.translation, w.`+models.TranslationColumn(lang)+`, '') AS translation,
			sw.rating
		FROM shared_words sw
		JOIN words w ON w.id = sw.word_id
		WHERE sw.dict_id = ?
		ORDER BY sw.rating, sw.created_at, w.id`), dictID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared words: %w", err)
	}
	return entries, nil
}
