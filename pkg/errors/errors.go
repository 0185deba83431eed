package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrConflict
	ErrInternal
	ErrAlreadyEnrolled
	ErrAlreadySent
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
	}
}

func AlreadyEnrolled(patientID int64) *AppError {
	return &AppError{
		Code:    ErrAlreadyEnrolled,
		Message: fmt.Sprintf("patient %d is already on the waitlist", patientID),
	}
}

func AlreadySent(reminderID int64) *AppError {
	return &AppError{
		Code:    ErrAlreadySent,
		Message: fmt.Sprintf("reminder %d already sent", reminderID),
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

func IsNotFound(err error) bool        { return err != nil && CodeOf(err) == ErrNotFound }
func IsValidation(err error) bool      { return err != nil && CodeOf(err) == ErrValidation }
func IsConflict(err error) bool        { return err != nil && CodeOf(err) == ErrConflict }
func IsAlreadyEnrolled(err error) bool { return err != nil && CodeOf(err) == ErrAlreadyEnrolled }
func IsAlreadySent(err error) bool     { return err != nil && CodeOf(err) == ErrAlreadySent }

// As is errors.As, re-exported so callers need only this package.
func As(err error, target interface{}) bool { return errors.As(err, target) }
