// Package domainerrors defines the coded errors shared by services, stores
// and transport. Handlers translate codes to HTTP statuses in one place so
// the mapping cannot drift between endpoints. Conventionally imported as
// dErrors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error independent of transport.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"
)

// Error carries a code plus a caller-safe message. The message is what a
// client may see; wrap underlying causes with %w before reaching this layer.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// GetCode extracts the code from err, defaulting to CodeInternal so
// unexpected faults degrade to a generic failure.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
