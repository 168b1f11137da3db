package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. The engine itself
// never returns them; they are raised at the API, CLI and storage boundaries.

var (
	// Input errors
	ErrUnknownAction = errors.New("unknown xp action")
	ErrUnknownStat   = errors.New("unknown stat counter")

	// Storage errors
	ErrSnapshotNotFound = errors.New("no persisted snapshot")

	// Remote profile errors
	ErrProfileNotFound = errors.New("remote profile not found")
	ErrRemoteDisabled  = errors.New("remote profile store is not configured")
)
