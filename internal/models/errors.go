package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of API failure classifications. Every
// failed backend call resolves to exactly one kind.
type ErrorKind string

const (
	ErrorKindNetwork            ErrorKind = "network_error"
	ErrorKindTimeout            ErrorKind = "timeout"
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindForbidden          ErrorKind = "forbidden"
	ErrorKindPreconditionFailed ErrorKind = "precondition_failed"
	ErrorKindServerError        ErrorKind = "server_error"
	ErrorKindInvalidResponse    ErrorKind = "invalid_response"
	ErrorKindUnknown            ErrorKind = "unknown"
)

// APIError is the uniform failure result of a backend call. Status is
// the original HTTP status code, or 0 when no response was received.
type APIError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

var ErrConferenceNotFound = errors.New("conference not found")
