package models

import "errors"

var (
	// ErrUnresolvedIdentity means no role could be derived for the actor.
	// Callers treat the actor as unauthenticated.
	ErrUnresolvedIdentity = errors.New("unresolved identity")
	// ErrForbidden means the actor neither authored the record nor owns its organization.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidStateTransition is returned for transitions outside the allowed set,
	// such as acting on a record that no longer exists.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrStaleWrite is returned when the stored version no longer matches the
	// version the caller acted on.
	ErrStaleWrite = errors.New("stale write")
	// ErrUnavailable wraps store and transport failures.
	ErrUnavailable = errors.New("store unavailable")

	ErrNotFound       = errors.New("record not found")
	ErrInvalidPayload = errors.New("invalid payload")
)
