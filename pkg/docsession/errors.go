// Package docsession implements the client-side coordination layer for one
// open document: the section outline, the binding ledger tracking where the
// participant's attention sits, the activation state machine that moves
// focus between sections, and the live presence view of other participants.
//
// The package owns the authoritative in-memory copy of the document's
// sections and bindings. Consumers submit intents through the Coordinator
// and read derived state back; nothing else holds a mutable copy.
package docsession

import "errors"

// Failure taxonomy. Every error returned by this package wraps one of
// these sentinels, so callers can branch with errors.Is.
var (
	// ErrLoadFailed means the initial fetch failed, partially or totally.
	// The session view is unusable until Load succeeds; prior state, if
	// any, is left untouched.
	ErrLoadFailed = errors.New("document load failed")

	// ErrStructuralViolation means a section mutation would create a parent
	// cycle or a duplicate sibling order. Rejected before any network call.
	ErrStructuralViolation = errors.New("structural violation")

	// ErrActivationFailed means a focus switch partially completed: the
	// previous binding was closed but the new one could not be created.
	// The controller is Idle; retry Activate to recover.
	ErrActivationFailed = errors.New("activation failed")

	// ErrPersistenceFailed is a generic mutation failure. Optimistic local
	// state is retained; the next successful save reconciles.
	ErrPersistenceFailed = errors.New("persistence call failed")

	// ErrNetworkFailed is a presence channel failure. The adapter
	// reconnects automatically and republishes the current position.
	ErrNetworkFailed = errors.New("presence channel failed")
)
