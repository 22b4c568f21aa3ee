package refreshcache

import (
	"context"

	"github.com/arkwave/refreshcache/internal/log"
)

// Builder collects a RefresherConfig and exposes the single scoped
// constructor, Acquire. It is stateless and safe to reuse for multiple
// independent acquisitions of the same configuration.
type Builder[A any] struct {
	cfg RefresherConfig[A]
}

// New constructs a Builder from a RefresherConfig. Producer and Cadence
// must be set; every other field has a documented default.
func New[A any](cfg RefresherConfig[A]) *Builder[A] {
	return &Builder[A]{cfg: cfg}
}

// Acquire runs the Producer once, synchronously, to obtain the initial
// value, then spawns the Refresher and returns a Controller scoped to
// ctx. Releasing the scope is the caller's responsibility: call
// Controller.Cancel to terminate the Refresher, await its exit and publish
// Cancelled. Cancelling ctx also stops the Refresher, but does not wait for
// it to exit and does not write Cancelled to the Slot.
//
// If the initial Producer call fails and no Default was configured,
// Acquire returns ErrAcquisitionFailed wrapping the producer's cause and
// retains no resources. If a Default was configured, acquisition always
// succeeds with Success(default) and the Refresher is left to produce a
// real value on its first tick.
func (b *Builder[A]) Acquire(ctx context.Context) (*Controller[A], error) {
	ensureHookRegistered()

	logCtx := contextWithCacheName(ctx, b.cfg.Name)

	initial, err := b.cfg.Producer(ctx)
	if err != nil {
		if b.cfg.Default == nil {
			log.Error(logCtx, "initial acquisition failed, no default configured", log.Cause(err))
			return nil, &acquisitionError{cause: err}
		}

		log.Warn(logCtx, "initial acquisition failed, falling back to default", log.Cause(err))

		initial = *b.cfg.Default
	} else {
		log.Info(logCtx, "initial acquisition succeeded")
	}

	slot := newSlot(Success(initial), b.cfg.UpdatesBufferSize)

	controller := &Controller[A]{
		slot: slot,
		cfg:  b.cfg,
		ctx:  ctx,
	}

	controller.Restart()

	return controller, nil
}
