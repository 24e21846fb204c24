package parser

import (
	"errors"
	"fmt"
)

// ErrorKind separates failures a caller may retry from content that will not get better.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "backend_unavailable"
	KindTimeout         ErrorKind = "timeout"
	KindCanceled        ErrorKind = "canceled"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// ParsingError is returned when a CV could not be turned into a profile.
// The message never carries the model's raw output; Cause does, for logs.
type ParsingError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("cv parsing failed (%s): %s", e.Kind, e.Message)
}

func (e *ParsingError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a ParsingError that may succeed on a later attempt.
func IsRetryable(err error) bool {
	var perr *ParsingError
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Kind == KindUnavailable || perr.Kind == KindTimeout
}
