package storypath

import (
	"errors"
	"fmt"
)

// ErrProjectNotFound is returned when a requested project id is absent from
// the published list. Fatal to the requesting screen, never to the process.
var ErrProjectNotFound = errors.New("project not found")

// ErrorKind classifies gateway failures. Callers treat both kinds as
// non-fatal and retryable by explicit user action; the distinction only
// changes the message the UI renders.
type ErrorKind string

const (
	// KindNetwork covers timeouts, connection failures and server-side errors.
	KindNetwork ErrorKind = "network"
	// KindAuth covers rejected credentials (401/403).
	KindAuth ErrorKind = "auth"
)

// APIError is a typed gateway failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error (status %d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func networkError(status int, err error) *APIError {
	return &APIError{Kind: KindNetwork, StatusCode: status, Err: err}
}

func authError(status int) *APIError {
	return &APIError{Kind: KindAuth, StatusCode: status}
}

// IsAuthError reports whether err is (or wraps) a credential rejection.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsNetworkError reports whether err is (or wraps) a network-side failure.
func IsNetworkError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}
