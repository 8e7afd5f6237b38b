/*
errors.go - Centralized error types shared by the store and API layers

PURPOSE:
  The rules core itself never returns errors: a refused booking is a
  Decision value and an illegal state-machine transition is ok=false.
  These errors belong to the collaborators around the core - the record
  store and the HTTP layer - and live here so both sides classify them
  the same way.

ERROR CATEGORIES:
  1. Not-found errors     - a referenced row does not exist
  2. Concurrency errors   - optimistic version token mismatch
  3. Input errors         - malformed dates, month keys, payloads

USAGE:
  if errors.Is(err, engine.ErrVersionConflict) {
      // tell the client to reload and retry
  }

SEE ALSO:
  - types.go: Decision and the rejection reason constants
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic-concurrency token
	// does not match the stored row. The client should reload and retry.
	ErrVersionConflict = errors.New("version conflict: record was modified")

	// ErrInvalidInput is returned for malformed request payloads at the
	// store/API boundary (bad date, bad month key, missing field).
	ErrInvalidInput = errors.New("invalid input")

	// ErrIllegalTransition is returned by the application layer when an
	// attendance action is attempted from a terminal or wrong state.
	ErrIllegalTransition = errors.New("illegal attendance transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// VersionConflictError reports which row conflicted and the versions seen.
type VersionConflictError struct {
	Table    string
	ID       string
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s/%s: expected v%d, stored v%d",
		e.Table, e.ID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// TransitionError reports a rejected attendance action.
type TransitionError struct {
	VisitID string
	From    VisitStatus
	Action  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s visit %s from status %q", e.Action, e.VisitID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// a stale client view (4xx territory).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrIllegalTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
