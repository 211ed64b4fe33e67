package gasprice

import (
	"errors"
	"fmt"
)

// Causes wrapped by DecodeError; match them with errors.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("unexpected type")
)

// DecodeError reports a payload that is missing a required field or has the wrong shape.
type DecodeError struct {
	// Field is the dotted path of the offending value, e.g. "[3].estimates.instant".
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	field := e.Field
	if field == "" {
		field = "payload"
	}
	return fmt.Sprintf("gasprice: decode %s: %v", field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missing(path string) error {
	return &DecodeError{Field: path, Err: ErrMissingField}
}

func wrongType(path string, cause error) error {
	if cause == nil {
		return &DecodeError{Field: path, Err: ErrWrongType}
	}
	return &DecodeError{Field: path, Err: fmt.Errorf("%w: %v", ErrWrongType, cause)}
}
