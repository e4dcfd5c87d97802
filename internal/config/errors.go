package config

import "fmt"

// ErrorKind enumerates configuration failures.
type ErrorKind int

const (
	// Missing means a required field or environment variable is absent.
	Missing ErrorKind = iota
	// Malformed means a field is present but unusable.
	Malformed
)

func (k ErrorKind) String() string {
	if k == Malformed {
		return "malformed"
	}
	return "missing"
}

// Error is a configuration failure tied to a named field.
type Error struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("config: %s %s", e.Kind, e.Field)
}

func (e *Error) Unwrap() error { return e.Err }

func missing(field string) error {
	return &Error{Kind: Missing, Field: field}
}

func malformed(field string, err error) error {
	return &Error{Kind: Malformed, Field: field, Err: err}
}
