// Package errors provides comprehensive error handling utilities for mlworkflow.
//
// This file contains panic recovery utilities. gonum's mat package reports
// shape mismatches by panicking; pipelines run their numeric stages through
// SafeExecute so such panics surface as ordinary errors and abort the run.

package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError represents an error that was created from a recovered panic.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// MarshalZerologObject adds the panic context to a zerolog event.
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic_value", fmt.Sprint(e.PanicValue)).
		Str("type", "PanicError")
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover is meant to be deferred with a pointer to the caller's error result.
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//	    defer Recover(&err, "Model.Fit")
//	    ...
//	}
//
// A recovered panic becomes a PanicError. If the function had already set an
// error, that error is kept and annotated with the panic.
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		if *err != nil {
			*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
			return
		}
		*err = NewPanicError(operation, r)
	}
}

// SafeExecute executes fn and converts any panic into an error.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
