// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

import (
	"github.com/pkg/errors"
)

// A Kind classifies errors returned by graph construction and simulation.
//
type Kind int

// Error kinds.
//
const (
	// KindUnknown is reported for errors that did not originate in this
	// package.
	KindUnknown Kind = iota
	// KindGraphConstruction covers malformed topology: dangling wires,
	// width mismatches, combinational cycles, missing ports.
	KindGraphConstruction
	// KindInputMismatch is a missing, unknown or oversized per-cycle input.
	// The failed Step leaves the simulation state untouched.
	KindInputMismatch
	// KindInvalidPhase is a call made in the wrong simulation phase, such
	// as configuring memory contents after the first step.
	KindInvalidPhase
	// KindReadOnlyViolation is an attempt to write or seed the contents of
	// a ROM.
	KindReadOnlyViolation
)

func (k Kind) String() string {
	switch k {
	case KindGraphConstruction:
		return "graph construction error"
	case KindInputMismatch:
		return "input mismatch"
	case KindInvalidPhase:
		return "invalid phase"
	case KindReadOnlyViolation:
		return "read-only violation"
	}
	return "unknown error"
}

// Error is the error type returned by this package. It pairs a Kind with
// an underlying error carrying a stack trace.
//
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string { return e.kind.String() + ": " + e.err.Error() }

// Kind returns the error's kind.
//
func (e *Error) Kind() Kind { return e.kind }

// Cause returns the underlying error. It implements the causer interface
// of package errors.
//
func (e *Error) Cause() error { return e.err }

// Unwrap returns the underlying error.
//
func (e *Error) Unwrap() error { return e.err }

func newError(k Kind, msg string) *Error {
	return &Error{kind: k, err: errors.New(msg)}
}

func newErrorf(k Kind, format string, args ...interface{}) *Error {
	return &Error{kind: k, err: errors.Errorf(format, args...)}
}

// KindOf returns the Kind of err, unwrapping intermediate causes. It
// returns KindUnknown for nil and foreign errors.
//
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.kind
		}
		switch e := err.(type) {
		case interface{ Cause() error }:
			err = e.Cause()
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		default:
			return KindUnknown
		}
	}
	return KindUnknown
}
