package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrMalformedCode signals a postal code that is not exactly five ASCII digits.
	ErrMalformedCode = errors.New("malformed postal code")
	// ErrNotFound signals a well-formed postal code absent from the dataset.
	ErrNotFound = errors.New("not found")
	// ErrStoreBuild signals a corrupted dataset detected while building the store.
	ErrStoreBuild = errors.New("store build failed")
	// ErrSourceUnavailable signals that the record source could not be read.
	ErrSourceUnavailable = errors.New("record source unavailable")
	// ErrNotReady signals that no dataset has been loaded yet.
	ErrNotReady = errors.New("dataset not loaded")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

// Unwrap exposes ErrValidation and, for postal codes, ErrMalformedCode.
func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewMalformedCodeError creates a validation error tagged as a malformed postal code.
func NewMalformedCodeError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason, cause: ErrMalformedCode}
}

// BuildError wraps ErrStoreBuild with the offending record.
type BuildError struct {
	Code   string
	Reason string
}

func (e *BuildError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", ErrStoreBuild.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: record %q: %s", ErrStoreBuild.Error(), e.Code, e.Reason)
}

func (e *BuildError) Unwrap() error { return ErrStoreBuild }

// NewBuildError creates a store build error.
func NewBuildError(code, reason string) error {
	return &BuildError{Code: code, Reason: reason}
}
