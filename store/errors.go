/*
errors.go - Centralized error taxonomy for the storage and service layers

PURPOSE:
  One place for the sentinel errors every component translates driver and
  validation failures into. Handlers map these onto HTTP statuses; nothing
  above the store layer ever sees a raw driver error.

TAXONOMY:
  ErrInvalidArgument  malformed or missing required input        -> 400
  ErrNotFound         identity/key absent                        -> 404
  ErrConflict         uniqueness violation                       -> 409
  ErrUnavailable      store unreachable, retryable               -> 503
  anything else       unexpected store failure                   -> 500

USAGE:
  Wrap with context, test with errors.Is:

    if err := col.Insert(ctx, doc); errors.Is(err, store.ErrConflict) {
        ...
    }
*/
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches the given key or filter.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique index.
	ErrConflict = errors.New("conflict: unique constraint violated")

	// ErrUnavailable is returned when the backing store is unreachable.
	// Callers should treat it as retryable.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidArgument is returned for malformed or missing input,
	// detected at the component boundary before any store call.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvalidArgf wraps ErrInvalidArgument with a formatted message.
func InvalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
func IsInvalidArg(err error) bool  { return errors.Is(err, ErrInvalidArgument) }
