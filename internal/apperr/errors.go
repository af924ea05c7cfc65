package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMissingField     = errors.New("missing field")
	ErrAbiNotFound      = errors.New("abi not found")
	ErrAbiParse         = errors.New("abi parse error")
	ErrUnknownFunction  = errors.New("unknown function")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrNoSigningAccount = errors.New("no signing account")
	ErrTimeout          = errors.New("timeout")
	ErrAdapter          = errors.New("adapter error")
)

var kinds = []error{
	ErrConfiguration,
	ErrInvalidAddress,
	ErrInvalidArgument,
	ErrMissingField,
	ErrAbiNotFound,
	ErrAbiParse,
	ErrUnknownFunction,
	ErrUnknownEvent,
	ErrNoSigningAccount,
	ErrTimeout,
	ErrAdapter,
}

// Error carries a kind, the message shown to API callers and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New returns an error of the given kind with a formatted message.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that keeps cause in its chain.
func Wrap(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Adapter classifies a chain client failure. Errors that already belong to
// a kind are returned unchanged; anything else keeps its message verbatim.
func Adapter(err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &Error{Kind: ErrAdapter, Message: err.Error(), Cause: err}
}

// KindOf returns the kind of err, or nil when err is not a domain error.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsDomain reports whether err belongs to one of the known kinds.
func IsDomain(err error) bool {
	return KindOf(err) != nil
}

// Label returns a short name for the kind of err, used as a metric label.
func Label(err error) string {
	switch KindOf(err) {
	case ErrConfiguration:
		return "configuration"
	case ErrInvalidAddress:
		return "invalid_address"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrMissingField:
		return "missing_field"
	case ErrAbiNotFound:
		return "abi_not_found"
	case ErrAbiParse:
		return "abi_parse"
	case ErrUnknownFunction:
		return "unknown_function"
	case ErrUnknownEvent:
		return "unknown_event"
	case ErrNoSigningAccount:
		return "no_signing_account"
	case ErrTimeout:
		return "timeout"
	case ErrAdapter:
		return "adapter"
	default:
		return "internal"
	}
}
