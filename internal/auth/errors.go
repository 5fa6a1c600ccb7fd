package auth

import (
	"errors"
	"fmt"
)

// ErrNoRefreshToken indicates the stored record has no refresh token, so a
// refresh cannot even be attempted.
var ErrNoRefreshToken = errors.New("stored credentials have no refresh token")

// RejectedError is a non-success response from the token endpoint.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure reaching the token endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// recoverable reports whether a refresh failure can be repaired by running
// the interactive authorization flow. A missing refresh token, a rejection
// from the token endpoint, and transport failures qualify; undecodable
// responses and store failures do not.
func recoverable(err error) bool {
	if errors.Is(err, ErrNoRefreshToken) {
		return true
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te)
}
