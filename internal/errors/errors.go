// Package errors provides sentinel errors and wrapping helpers shared by
// the TelTap packages. Call sites match on the sentinels with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Connection errors
	ErrConnectionClosed     = errors.New("connection closed by remote")
	ErrMaxReconnectAttempts = errors.New("maximum reconnection attempts reached")
	ErrNotConnected         = errors.New("not connected")

	// Configuration errors
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Provider errors
	ErrLinkExists = errors.New("link already registered")
	ErrNoSuchLink = errors.New("no such link")
)

// Wrap wraps an error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}
