package core

import (
	"errors"
	"net/http"
)

// ErrKind classifies a domain failure so the boundary handler can map it to an
// HTTP status without inspecting message text.
type ErrKind int

const (
	KindBadRequest ErrKind = iota
	KindAuth
	KindNotFound
	KindDb
	KindInvalidReport
)

// AppError is the single error type handlers surface to the boundary handler.
type AppError struct {
	Kind    ErrKind
	Message string
	cause   error
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.cause }

// Status maps the error kind to an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindBadRequest, KindInvalidReport:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest marks malformed or missing input, including duplicate registration.
func BadRequest(msg string) *AppError { return &AppError{Kind: KindBadRequest, Message: msg} }

// AuthErr marks a missing, invalid, or insufficient-role token.
func AuthErr(msg string) *AppError { return &AppError{Kind: KindAuth, Message: msg} }

// NotFound marks a resolvable identifier that matched nothing.
func NotFound(msg string) *AppError { return &AppError{Kind: KindNotFound, Message: msg} }

// DbErr wraps a persistence layer failure.
func DbErr(msg string, cause error) *AppError {
	return &AppError{Kind: KindDb, Message: msg, cause: cause}
}

// InvalidReport marks an unrecognized report identifier.
func InvalidReport(msg string) *AppError {
	return &AppError{Kind: KindInvalidReport, Message: msg}
}

// AsAppError extracts an *AppError from err, treating anything else as a
// persistence failure.
func AsAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return DbErr("internal error", err)
}
