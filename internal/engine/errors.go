package engine

import "errors"

var (
	// ErrNoActiveOffers indicates the catalog holds no active offers for
	// the requested commodity at all. Not retryable.
	ErrNoActiveOffers = errors.New("no active offers for commodity")
	// ErrRunInProgress indicates a concurrent comparison holds the
	// advisory lock for this upload. The caller is rejected, not queued.
	ErrRunInProgress = errors.New("comparison already in progress for upload")
	// ErrStoreUnavailable wraps transient store failures; callers may
	// retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
)
