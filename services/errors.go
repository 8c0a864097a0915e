package services

import "errors"

// Typed failures returned by the core. All are local and recoverable:
// the caller decides whether to prompt a resubmit. None of them leave
// partial state behind.
var (
	// ErrUnknownAction: a submission referenced a key absent from the
	// catalog. Rejected before any write. Historical reads never return
	// this — unknown keys in old rows score zero instead.
	ErrUnknownAction = errors.New("unknown action key")

	// ErrStoreUnavailable: the backend could not be reached. Surfaced
	// immediately, no retry here.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidAttempt: malformed game record (negative elapsed time).
	ErrInvalidAttempt = errors.New("invalid game attempt")

	// Lottery desk conditions
	ErrAlreadyDrawn = errors.New("lottery already completed")
	ErrNotEligible  = errors.New("not enough points for the lottery")
)
