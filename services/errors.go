package services

import "errors"

// Error taxonomy surfaced to controllers. Store failures are wrapped with
// ErrStoreUnavailable so callers can offer a retry; repeated operations that
// change nothing are successful no-ops, not errors.
var (
	// ErrAuthenticationRequired - no caller identity on the request
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrStoreUnavailable - transient DynamoDB/network failure
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotAuthorized - caller is not a participant of the record
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound - the match/chat/interest does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition - a terminal match status cannot move backward or
	// sideways (accepted/declined never downgrade)
	ErrInvalidTransition = errors.New("invalid status transition")
)
