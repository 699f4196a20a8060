package reconciliation

import "errors"

var (
	// ErrConflict means the requested transition lost a race or targets a
	// match already terminal in an incompatible way. The caller must refresh
	// and decide; the service never retries on its own.
	ErrConflict = errors.New("reconciliation: conflicting match state")

	// ErrNotFound means the referenced match, transaction or entry does not exist.
	ErrNotFound = errors.New("reconciliation: not found")
)
