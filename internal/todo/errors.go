package todo

import (
	"errors"
	"fmt"
)

// ValidationError reports a title that the caller must not store.
// It is returned as a value; callers decide how to surface Message.
type ValidationError struct {
	// Code identifies the failed rule.
	Code ValidationCode

	// Message is the user-facing text.
	Message string
}

// ValidationCode categorizes validation failures.
type ValidationCode string

const (
	// ErrCodeDuplicateTitle indicates a list title collides case-insensitively
	// with an existing list.
	ErrCodeDuplicateTitle ValidationCode = "DUPLICATE_TITLE"

	// ErrCodeTitleLength indicates a title outside [MinTitleLength, MaxTitleLength].
	ErrCodeTitleLength ValidationCode = "TITLE_LENGTH"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateTitle returns true if err is a duplicate title validation error.
func IsDuplicateTitle(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeDuplicateTitle
	}
	return false
}

// IsTitleLength returns true if err is a title length validation error.
func IsTitleLength(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeTitleLength
	}
	return false
}

// UserMessage returns the user-facing message for a validation error,
// or err.Error() for anything else.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
