package domain

import "errors"

var (
	// ErrStoreUnavailable wraps any storage failure during a standings or
	// contest-status read. The broadcaster skips the tick and retries on the
	// next one; it is never surfaced to a streaming client.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrContestNotFound means the contest table has no row yet.
	ErrContestNotFound = errors.New("contest not found")

	// ErrContestantNotFound means a search by external id matched nothing.
	ErrContestantNotFound = errors.New("contestant not found")
)
