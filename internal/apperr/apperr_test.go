package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, sql.ErrNoRows, "word %d", 7)

	assert.Equal(t, NotFound, KindOf(err))
	assert.Equal(t, "word 7: sql: no rows in result set", err.Error())
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	wrapped := fmt.Errorf("lookup: %w", err)
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Conflict))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Internal))
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(Validation, nil, "name too short")
	assert.Equal(t, "name too short", err.Error())
	assert.Equal(t, "validation", err.Kind.String())
}
