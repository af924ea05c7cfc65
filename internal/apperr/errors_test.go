package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	t.Run("NewMatchesKind", func(t *testing.T) {
		err := New(ErrInvalidAddress, "Invalid address: %s", "0x123")
		assert.EqualError(t, err, "Invalid address: 0x123")
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.NotErrorIs(t, err, ErrMissingField)
	})

	t.Run("WrapKeepsCause", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(ErrAbiParse, cause, "Invalid ABI in %s: %v", "token.json", cause)
		assert.ErrorIs(t, err, ErrAbiParse)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "abi_parse", Label(err))
	})

	t.Run("AdapterKeepsMessage", func(t *testing.T) {
		cause := errors.New("execution reverted")
		err := Adapter(cause)
		assert.EqualError(t, err, "execution reverted")
		assert.ErrorIs(t, err, ErrAdapter)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("AdapterPassesDomainErrors", func(t *testing.T) {
		original := New(ErrTimeout, "took too long")
		assert.Same(t, original, Adapter(original))
		assert.Nil(t, Adapter(nil))
	})

	t.Run("WrappedDomainErrorsAreDetected", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(ErrUnknownEvent, "Event Foo not found"))
		assert.True(t, IsDomain(err))
		assert.Equal(t, ErrUnknownEvent, KindOf(err))
	})

	t.Run("PlainErrorsAreInternal", func(t *testing.T) {
		err := errors.New("panic in router")
		assert.False(t, IsDomain(err))
		assert.Equal(t, "internal", Label(err))
	})
}
