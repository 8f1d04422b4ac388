package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports roll numbers that are already registered, in normalized form.
type ConflictError struct {
	Rolls []string
}

func NewConflictError(rolls []string) error {
	return &ConflictError{Rolls: rolls}
}

func (err ConflictError) Error() string {
	return "roll numbers already registered: " + strings.Join(err.Rolls, ", ")
}

// InvalidEncodingError is returned when an uploaded payload cannot be decoded.
type InvalidEncodingError struct {
	msg string
}

func NewInvalidEncodingError(msg string) error {
	return &InvalidEncodingError{msg: msg}
}

func (err InvalidEncodingError) Error() string {
	return err.msg
}

// PersistenceError wraps any failure of a backing store. errors.Cause stops at it.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func (err PersistenceError) Error() string {
	if err.Err == nil {
		return err.Op
	}
	return err.Op + ": " + err.Err.Error()
}

func (err PersistenceError) Unwrap() error {
	return err.Err
}

// ClosedError is returned when registration for an event is closed.
type ClosedError struct {
	Event string
}

func NewClosedError(event string) error {
	return &ClosedError{Event: event}
}

func (err ClosedError) Error() string {
	return "registration is closed for " + err.Event
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
