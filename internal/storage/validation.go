// Package storage persists the session and selected location between runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidSession    = errors.New("invalid session")
	ErrInvalidPreference = errors.New("invalid preference")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSession(session *Session) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if strings.TrimSpace(session.Token) == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidSession)
	}
	if strings.ContainsAny(session.Token, " \t\r\n") {
		return fmt.Errorf("%w: token contains whitespace", ErrInvalidSession)
	}
	return nil
}

func validatePreferenceKey(key string) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if len(key) > 64 {
		return fmt.Errorf("%w: key %q is longer than 64 characters", ErrInvalidPreference, key)
	}
	return nil
}
