package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure. Codes are part of the API
// surface: handlers serialize them verbatim into error envelopes.
type Code string

const (
	// Sale-specific failures.
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInvalidPhaseRange Code = "INVALID_PHASE_RANGE"
	CodeIndexOutOfRange   Code = "INDEX_OUT_OF_RANGE"
	CodeNoActivePhase     Code = "NO_ACTIVE_PHASE"
	CodePriceUnavailable  Code = "PRICE_UNAVAILABLE"
	CodeCapExceeded       Code = "CAP_EXCEEDED"

	// Ambient failures shared across modules.
	CodeBadRequest Code = "BAD_REQUEST"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeTimeout    Code = "TIMEOUT"
	CodeInternal   Code = "INTERNAL"
)

// Error is a coded domain error. Services return these so transports can map
// them to responses without inspecting message text.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates a cause with a code. The cause stays reachable via errors.Is
// and errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, or CodeInternal when err is not a coded
// error. A nil err has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the status the transport layer should answer with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeInvalidPhaseRange, CodeBadRequest:
		return http.StatusBadRequest
	case CodeIndexOutOfRange, CodeNotFound:
		return http.StatusNotFound
	case CodeNoActivePhase, CodeCapExceeded:
		return http.StatusUnprocessableEntity
	case CodePriceUnavailable:
		return http.StatusBadGateway
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
