package database

import (
	"context"
	"fmt"

	"github.com/example/derbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// GrammarRepository reads and seeds the possessive pronoun table
type GrammarRepository struct {
	ext sqlx.ExtContext
}

// Seed inserts the given forms, leaving existing cells untouched.
func (r *GrammarRepository) Seed(ctx context.Context, forms []models.PossessiveForm) error {
	query := r.ext.Rebind(`
		INSERT INTO possessive_forms (pronoun, case_name, gender, number, form)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	for _, f := range forms {
		if _, err := r.ext.ExecContext(ctx, query, f.Pronoun, f.Case, f.Gender, f.Number, f.Form); err != nil {
			return fmt.Errorf("failed to seed possessive forms: %w", err)
		}
	}
	return nil
}

// Forms returns every stored possessive form
func (r *GrammarRepository) Forms(ctx context.Context) ([]models.PossessiveForm, error) {
	var forms []models.PossessiveForm
	err := sqlx.SelectContext(ctx, r.ext, &forms, `
		SELECT pronoun, case_name, gender, number, form FROM possessive_forms
		ORDER BY pronoun, case_name, gender, number`)
	if err != nil {
		return nil, fmt.Errorf("failed to get possessive forms: %w", err)
	}
	return forms, nil
}

// Count returns the number of stored possessive forms
func (r *GrammarRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.ext, &n, `SELECT COUNT(*) FROM possessive_forms`); err != nil {
		return 0, fmt.Errorf("failed to count possessive forms: %w", err)
	}
	return n, nil
}
