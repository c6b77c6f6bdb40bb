package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every lookup of an unknown id.
var ErrNotFound = errors.New("not found")

// DeniedPrefix marks permission and policy rejections.
const DeniedPrefix = "DENIED: "

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// DeniedError is a permission or policy rejection. It is always audited.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return DeniedPrefix + e.Reason }

// ConflictError reports a state transition attempted from the wrong state.
type ConflictError struct {
	Kind     string
	ID       string
	Current  string
	Expected string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s is %s, expected %s", e.Kind, e.ID, e.Current, e.Expected)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsDenied reports whether err is a DeniedError.
func IsDenied(err error) bool {
	var d *DeniedError
	return errors.As(err, &d)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
