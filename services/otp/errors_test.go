package otp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	for _, r := range reasons {
		wrapped := fmt.Errorf("handler: %w", r.err)
		assert.Equal(t, r.reason, Reason(wrapped))
		assert.Equal(t, r.err, ErrorForReason(r.reason))
	}

	assert.Empty(t, Reason(errors.New("something else")))
	assert.Empty(t, Reason(nil))
	assert.Nil(t, ErrorForReason("Unknown"))
}

func TestCooldownError(t *testing.T) {
	err := error(&CooldownError{Remaining: 42 * time.Second})

	assert.ErrorIs(t, err, ErrResendCooldown)
	assert.Equal(t, ReasonCooldown, Reason(err))
	assert.Contains(t, err.Error(), "42s")

	var cooldownErr *CooldownError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &cooldownErr)
	assert.Equal(t, 42*time.Second, cooldownErr.Remaining)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("disk full")
	err := unavailable("failed to store verification code", cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ReasonStore, Reason(err))
}
