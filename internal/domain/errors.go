// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a malformed input that was rejected before persistence.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition indicates an approval action on a case that is not pending.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrNotification indicates a notification gateway delivery failure. It is
// transient: the next scheduler pass retries the affected case.
var ErrNotification = errors.New("notification failed")
