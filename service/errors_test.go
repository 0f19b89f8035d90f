package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(conflict("dup")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", notFound("missing"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("outer: %w", insufficientFunds("Insufficient funds."))

	assert.True(t, errors.Is(err, &Error{Kind: KindInsufficientFunds}))
	assert.True(t, errors.Is(err, &Error{Kind: KindInsufficientFunds, Message: "Insufficient funds."}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict}))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := internal(cause, "failed to lock bet %d", 7)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to lock bet 7")
}

func TestAsServiceError(t *testing.T) {
	original := forbidden("nope")
	assert.Same(t, original, asServiceError(original, "ignored"))

	wrapped := asServiceError(errors.New("boom"), "failed to %s", "work")
	assert.Equal(t, KindInternal, KindOf(wrapped))
}

func TestAsDuplicate(t *testing.T) {
	dup := asDuplicate(fmt.Errorf("insert: %w", ErrDuplicate), "Already there.", "failed")
	assert.Equal(t, KindConflict, KindOf(dup))

	other := asDuplicate(errors.New("timeout"), "Already there.", "failed")
	assert.Equal(t, KindInternal, KindOf(other))
}
