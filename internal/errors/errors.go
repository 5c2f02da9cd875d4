// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the row store client or the bulk coordinator reports carries a
// machine-readable Kind, so callers can decide whether a retry is safe, whether
// the user has to re-select against a fresh table, or whether the input itself
// was rejected locally before any network call was made.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// TransportFailure indicates the call never reached the store or never returned.
	// No effect is confirmed, so a retry is safe to attempt.
	TransportFailure Kind = "transport_failure"
	// RemoteRejection indicates the store answered and declined the operation.
	RemoteRejection Kind = "remote_rejection"
	// StalePosition indicates a position from a superseded snapshot generation.
	StalePosition Kind = "stale_position"
	// Validation indicates required fields were missing before submission.
	Validation Kind = "validation"
	// MoveSourceRetained indicates a move created its destination row but could
	// not remove the source row; the source must be deleted manually.
	MoveSourceRetained Kind = "move_source_retained"
	// Cancelled indicates a batch item that was never issued because the batch stopped.
	Cancelled Kind = "cancelled"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the outermost *E in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether repeating the failed call is safe.
func Retryable(err error) bool {
	return Is(err, TransportFailure)
}
