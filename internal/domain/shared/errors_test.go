package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("message includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapDomainError("UPSTREAM_ERROR", "hmis unavailable", cause)

		assert.Equal(t, "hmis unavailable: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("matches sentinel by code", func(t *testing.T) {
		err := fmt.Errorf("loading session: %w", NewDomainError("NOT_FOUND", "session gone"))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrConflict)
		assert.Equal(t, "NOT_FOUND", CodeOf(err))
	})

	t.Run("code of plain error is empty", func(t *testing.T) {
		assert.Empty(t, CodeOf(errors.New("boom")))
	})
}
