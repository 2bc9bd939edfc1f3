package poserr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it was detected.
type Kind int

const (
	// KindValidation is detected locally and never reaches the network.
	KindValidation Kind = iota + 1
	// KindRemoteRejection means the remote API answered with a non-success status.
	KindRemoteRejection
	// KindTransport means the remote API could not be reached at all.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRemoteRejection:
		return "remote_rejection"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinel causes. Wrap them in an *Error so callers can match with errors.Is.
var (
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInvalidTaxRate        = errors.New("tax rate must be between 0 and 100")
	ErrInvalidAction         = errors.New("unknown stock action")
	ErrVariantRequired       = errors.New("variant id is required")
	ErrMutationPending       = errors.New("a stock mutation for this variant is already pending")
	ErrSubmissionInFlight    = errors.New("a transaction is already being submitted")

	// ErrMalformedResponse means the server accepted the request but its
	// body could not be read. The remote side effect has happened.
	ErrMalformedResponse = errors.New("malformed success response")
)

const genericRemoteMessage = "The server could not complete the request. Please try again."

// Error is the typed failure returned by every core operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation wraps a local validation cause.
func Validation(cause error, message string) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: KindValidation, Code: "validation_error", Message: message, Err: cause}
}

// Rejected builds a RemoteRejection. An empty message falls back to a generic one.
func Rejected(status int, message string) *Error {
	if message == "" {
		message = genericRemoteMessage
	}
	return &Error{Kind: KindRemoteRejection, Code: "remote_rejection", Message: message, Status: status}
}

// Transport builds a TransportFailure around the underlying network error.
func Transport(cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Code:    "transport_failure",
		Message: "Unable to reach the server. Check the connection and try again.",
		Err:     cause,
	}
}

// KindOf reports the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the user-facing message carried by err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsRemote(err error) bool     { return KindOf(err) == KindRemoteRejection }
func IsTransport(err error) bool  { return KindOf(err) == KindTransport }
