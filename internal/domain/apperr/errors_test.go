package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input %d", 7)))
	assert.Equal(t, KindNotFound, KindOf(NotFound("review", "rev-1")))
	assert.Equal(t, KindConflict, KindOf(Conflict("already running")))
	assert.Equal(t, KindExternal, KindOf(External("provider failed", errors.New("timeout"))))
	assert.Equal(t, KindInternal, KindOf(Internal(errors.New("boom"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("fix", "fix-3"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad input 7", Message(Validation("bad input %d", 7)))
	assert.Equal(t, "review rev-1 not found", Message(NotFound("review", "rev-1")))

	// Unclassified errors never leak their text.
	assert.Equal(t, "internal error", Message(errors.New("secret detail")))
	assert.Equal(t, "internal error", Message(Internal(errors.New("secret detail"))))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("code host failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "conflict: already running", Conflict("already running").Error())
	assert.Equal(t,
		"external_service: provider failed: timeout",
		External("provider failed", errors.New("timeout")).Error(),
	)
}
