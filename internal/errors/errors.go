// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// TransportError wraps a network or timeout failure. It is the only error
// class the retry policy repeats.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidCredential means the refresh token was expired or rejected.
type InvalidCredential struct {
	Code    string
	Payload any
}

func (e *InvalidCredential) Error() string {
	return fmt.Sprintf("refresh token is invalid or expired (code %s)", e.Code)
}

// MalformedResponse carries the raw provider payload for diagnostics.
type MalformedResponse struct {
	Op      string
	Payload any
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("%s: malformed response", e.Op)
}

// ProviderRejected is an explicit failure status returned by the provider.
type ProviderRejected struct {
	Op      string
	Code    string
	Message string
	Payload any
}

func (e *ProviderRejected) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: rejected: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: rejected (%s): %s", e.Op, e.Code, e.Message)
}

// Helper constructors
func NewTransport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func NewMalformed(op string, payload any) error {
	return &MalformedResponse{Op: op, Payload: payload}
}

func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// Kind names the error class for reports.
func Kind(err error) string {
	var (
		t *TransportError
		i *InvalidCredential
		m *MalformedResponse
		p *ProviderRejected
	)
	switch {
	case errors.As(err, &t):
		return "TransportError"
	case errors.As(err, &i):
		return "InvalidCredential"
	case errors.As(err, &m):
		return "MalformedResponse"
	case errors.As(err, &p):
		return "ProviderRejected"
	default:
		return "Error"
	}
}

// Payload returns the provider payload attached to err, if any.
func Payload(err error) any {
	var (
		i *InvalidCredential
		m *MalformedResponse
		p *ProviderRejected
	)
	switch {
	case errors.As(err, &i):
		return i.Payload
	case errors.As(err, &m):
		return m.Payload
	case errors.As(err, &p):
		return p.Payload
	}
	return nil
}
