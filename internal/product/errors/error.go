// Package errors provides the error taxonomy for catalog operations.
// Every expected failure is an *AppError carrying the HTTP status it maps to,
// so handlers only return errors and a single responder renders them.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrProductNotFound = errors.New("product not found")
var ErrCantCreateProduct = errors.New("can't create product")

// Kind names a class of failure. It is rendered as the "name" of the error envelope.
type Kind string

const (
	KindValidation     Kind = "ValidationError"
	KindNotFound       Kind = "NotFoundError"
	KindAuthentication Kind = "AuthenticationError"
	KindInternal       Kind = "Error"
)

// AppError is a failure with a kind, a client-facing message and a status code.
type AppError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error // underlying cause, never shown to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation returns a 400 ValidationError.
func NewValidation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, StatusCode: http.StatusBadRequest}
}

// NewNotFound returns a 404 NotFoundError.
func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, StatusCode: http.StatusNotFound, Err: ErrProductNotFound}
}

// NewAuthentication returns a 401 AuthenticationError.
func NewAuthentication(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message, StatusCode: http.StatusUnauthorized}
}

// NewInternal wraps an unexpected error into the generic 500 error.
func NewInternal(err error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    http.StatusText(http.StatusInternalServerError),
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// From converts any error into an *AppError.
// Errors that are not part of the taxonomy become the generic 500 error.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, ErrProductNotFound) {
		return &AppError{Kind: KindNotFound, Message: err.Error(), StatusCode: http.StatusNotFound, Err: err}
	}
	return NewInternal(err)
}
