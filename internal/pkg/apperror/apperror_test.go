package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrappedErrorsMatchSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("append user turn: %w", Store(cause))

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrProviderFailure)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.True(t, appErr.Retryable)
}

func TestOwnerMismatchIsReportedAsNotFound(t *testing.T) {
	assert.Equal(t, CodeSessionNotFound, ErrSessionOwnerMismatch.PublicCode())
	assert.Equal(t, ErrSessionNotFound.Message, ErrSessionOwnerMismatch.PublicMessage())
	assert.Equal(t, ErrSessionNotFound.Status, ErrSessionOwnerMismatch.Status)

	// The internal code still distinguishes the two for logs and tests.
	assert.NotErrorIs(t, ErrSessionOwnerMismatch, ErrSessionNotFound)
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := WithMessage(ErrInvalidRequest, "session_id is required")

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, "session_id is required", err.PublicMessage())
	assert.Equal(t, "invalid request", ErrInvalidRequest.Message)
}

func TestStoreDoesNotWrapTypedErrors(t *testing.T) {
	once := Store(errors.New("disk full"))
	twice := Store(fmt.Errorf("append: %w", once))

	assert.Equal(t, 1, strings.Count(twice.Error(), string(CodeStoreUnavailable)))
	assert.ErrorIs(t, twice, ErrStoreUnavailable)

	assert.Same(t, ErrSessionEnded, Store(ErrSessionEnded))
}
