package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error", func(t *testing.T) {
		err := New(CodeNotFound, "request not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := New(CodeConcurrentModification, "version mismatch")
		outer := fmt.Errorf("complete response: %w", inner)
		assert.True(t, HasCode(outer, CodeConcurrentModification))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: duplicate key value violates unique constraint")
	err := Wrap(cause, CodeDuplicateResponse, "response already exists")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDuplicateResponse, CodeOf(err))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestWithReasons(t *testing.T) {
	base := New(CodeIneligibleDonor, "donor is not eligible")
	err := base.WithReasons([]string{"weight below 25kg", "donation interval"})

	assert.Equal(t, []string{"weight below 25kg", "donation interval"}, ReasonsOf(err))
	// The original must stay untouched.
	assert.Empty(t, base.Reasons)
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeIneligibleDonor, http.StatusForbidden},
		{CodeEligibilityExpired, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateResponse, http.StatusConflict},
		{CodeConcurrentModification, http.StatusConflict},
		{CodeInvalidTransition, http.StatusUnprocessableEntity},
		{CodeAlreadyCompleted, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(New(tt.code, "x")))
		})
	}

	t.Run("plain error maps to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("boom")))
	})
}
