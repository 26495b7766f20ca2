package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind partitions backend failures by how the UI must react:
// auth errors redirect to login, validation errors annotate form
// fields, everything else surfaces as a notification while the
// previously loaded data stays visible.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindServer
	KindAuth
	KindValidation
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrNoToken means no usable session exists. Requests fail closed on
// it instead of going out anonymously.
var ErrNoToken = errors.New("no access token available")

// APIError is a classified backend failure
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	// Fields carries per-field validation messages on KindValidation
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// NewAPIError creates a classified error with a fallback message
func NewAPIError(kind ErrorKind, status int, message string) *APIError {
	if message == "" {
		message = "request failed"
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}

// AsAPIError unwraps err into target, reporting success
func AsAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

// IsAuthError reports whether err requires re-authentication
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNoToken) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsNotFound reports whether err is a missing-record response
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}

// IsValidation reports whether err carries field validation failures
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindValidation
}
