package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnexpected   = errors.New("unexpected response")
)

// StatusError is a non-2xx response. Message is taken from the JSON body's
// "message" or "error" field when present.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

// Is lets a 401 match ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// DecodeError is a 2xx response whose body could not be read or decoded.
// The server did handle the request. A timeout while reading the body
// matches ErrUnavailable, any other failure ErrUnexpected.
type DecodeError struct {
	StatusCode int
	Op         string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: decode %s: %v", e.class(), e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == e.class()
}

// Timeout reports whether reading the body ran out of time.
func (e *DecodeError) Timeout() bool {
	var ne net.Error
	return errors.Is(e.Err, context.DeadlineExceeded) || (errors.As(e.Err, &ne) && ne.Timeout())
}

func (e *DecodeError) class() error {
	if e.Timeout() {
		return ErrUnavailable
	}
	return ErrUnexpected
}

// ValidationError is a failed local precondition.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrCartEmpty       = &ValidationError{Message: "cart is empty"}
	ErrAddressRequired = &ValidationError{Message: "address required"}
)

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindAuth
	KindUnreachable
	KindServer
	KindUnexpected
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUnreachable:
		return "unreachable"
	case KindServer:
		return "server"
	case KindCanceled:
		return "canceled"
	default:
		return "unexpected"
	}
}

// KindOf classifies err. Auth is checked before Server since a 401 is also a
// *StatusError.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var ve *ValidationError
	var se *StatusError

	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrUnavailable):
		return KindUnreachable
	case errors.As(err, &se):
		return KindServer
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindUnexpected
	}
}

const (
	MsgUnreachable    = "Cannot connect to server. Please check if backend is running."
	MsgUnexpected     = "An error occurred. Please try again."
	MsgSessionExpired = "Your session has expired. Please log in again."
)

// UserMessage renders err for display.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindValidation:
		var ve *ValidationError
		errors.As(err, &ve)
		return ve.Message
	case KindAuth:
		return MsgSessionExpired
	case KindUnreachable:
		return MsgUnreachable
	case KindServer:
		var se *StatusError
		errors.As(err, &se)
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("Request failed (%d %s)", se.StatusCode, http.StatusText(se.StatusCode))
	default:
		return MsgUnexpected
	}
}

// ServerMessage returns the message of a *StatusError in err's chain.
func ServerMessage(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
