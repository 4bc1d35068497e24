package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("tenant", nil), CodeNotFound, http.StatusNotFound},
		{"conflict", NewConflict("already assigned", nil), CodeConflict, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("assign: %w", NewConflict("x", nil)), CodeConflict, http.StatusConflict},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
}

func TestWrapConflictKeepsCause(t *testing.T) {
	cause := errors.New("tenant already assigned")
	err := WrapConflict("cannot assign", cause, map[string]any{"tenant_id": "t-1"})

	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Contains(t, err.Error(), "tenant already assigned")
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("department", map[string]any{"unit_id": "U-12"})
	assert.Equal(t, "department not found", err.Error())
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}
