package poserr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationWrapsSentinel(t *testing.T) {
	err := Validation(ErrInsufficientPayment, "")

	assert.True(t, errors.Is(err, ErrInsufficientPayment))
	assert.True(t, IsValidation(err))
	assert.Equal(t, "insufficient payment", Message(err))

	wrapped := fmt.Errorf("checkout: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientPayment))
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestRejectedFallsBackToGenericMessage(t *testing.T) {
	withMessage := Rejected(http.StatusConflict, "stock changed, reload the product")
	assert.Equal(t, "stock changed, reload the product", withMessage.Message)
	assert.Equal(t, http.StatusConflict, withMessage.Status)
	assert.True(t, IsRemote(withMessage))

	generic := Rejected(http.StatusInternalServerError, "")
	assert.Equal(t, genericRemoteMessage, generic.Message)
}

func TestTransportKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Transport(cause)

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, Message(err), "dial tcp")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "unknown", Kind(0).String())
}
