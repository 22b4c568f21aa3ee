package refreshcache

import (
	"context"
	"time"

	"github.com/arkwave/refreshcache/retry"
)

// Producer is the deferred computation that yields a fresh value of type
// A, or fails with a cause. It must be safely re-runnable: the Refresher
// may invoke it many times over the life of a cache.
type Producer[A any] func(ctx context.Context) (A, error)

// CadenceFunc computes the wait before the next refresh from the value
// just produced, so a TTL can depend on the content of the value itself
// (e.g. a token's own expiry).
type CadenceFunc[A any] func(value A) time.Duration

// CombineFunc merges the previous CachedValue with a freshly-produced
// successful one into the value actually stored. It is only invoked on
// successful production; an Error outcome bypasses it entirely.
type CombineFunc[A any] func(ctx context.Context, previous CachedValue[A], next CachedValue[A]) (A, error)

// RetryDetails accompanies an OnRefreshFailure callback invocation.
type RetryDetails struct {
	// Attempt is the 1-based count of failed producer calls within the
	// current refresh.
	Attempt int
	// Elapsed is the cumulative time spent in failed producer calls
	// within the current refresh, not counting time spent waiting
	// between attempts.
	Elapsed time.Duration
	// Delay is how long the Refresher will wait before the next attempt.
	Delay time.Duration
}

// OnNewValueFunc is invoked once per successful refresh after the first,
// with the value just published and the cadence chosen for it. It is
// never invoked for the initial value produced during acquisition, nor
// for Error or Cancelled outcomes.
type OnNewValueFunc[A any] func(ctx context.Context, value A, cadence time.Duration)

// OnRefreshFailureFunc is invoked once per failed producer call that the
// retry policy decided to retry.
type OnRefreshFailureFunc func(ctx context.Context, cause error, details RetryDetails)

// OnExhaustedRetriesFunc is invoked exactly once per Refresher instance
// that terminates because the retry policy gave up, after the Slot's
// Error write.
type OnExhaustedRetriesFunc func(ctx context.Context, cause error)

// RefresherConfig is the immutable configuration a Builder uses to
// construct a Controller. Producer and Cadence are required; everything
// else has a documented default.
type RefresherConfig[A any] struct {
	// Producer is the initial and periodic source of values. Required.
	Producer Producer[A]

	// Cadence computes the per-value TTL. Required.
	Cadence CadenceFunc[A]

	// Default salvages acquisition when the initial Producer call fails.
	// Nil means acquisition fails with the producer's cause instead.
	Default *A

	// RetryPolicy decides delay/give-up on successive refresh failures.
	// Nil means give up immediately on the first failure (retry.NoRetry).
	RetryPolicy retry.Policy

	// Combine merges prior state into each freshly-produced value. Nil
	// means the freshly-produced value is stored unchanged.
	Combine CombineFunc[A]

	// OnNewValue fires for every successful refresh after the first.
	OnNewValue OnNewValueFunc[A]

	// OnRefreshFailure fires for every retried failed attempt.
	OnRefreshFailure OnRefreshFailureFunc

	// OnExhaustedRetries fires once when the retry policy gives up.
	OnExhaustedRetries OnExhaustedRetriesFunc

	// UpdatesBufferSize bounds how far a Stream subscriber may lag before
	// it starts missing writes. Zero means defaultBacklog (16).
	UpdatesBufferSize int

	// Name identifies this cache in log lines emitted by the Refresher
	// and Controller. Optional.
	Name string
}

func (c RefresherConfig[A]) retryPolicy() retry.Policy {
	if c.RetryPolicy != nil {
		return c.RetryPolicy
	}

	return retry.NoRetry{}
}
