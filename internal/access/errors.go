package access

import "errors"

// The three user-visible failure classes of a transition. Handlers map
// them to 401/404/409; everything else is treated as a persistence
// failure and retried or surfaced as 500 by the caller layer.
var (
	// ErrUnauthorized: the actor lacks the role the transition requires.
	// Raised before any mutation, and deliberately also used where a
	// NotFound would confirm state to an unrelated party (accepting a
	// non-existent invitation).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound: the targeted membership or dataset row does not
	// exist, or was concurrently changed out of the expected state.
	ErrNotFound = errors.New("not found")

	// ErrConflict: creating a membership where one already exists.
	ErrConflict = errors.New("already exists")
)
