package refreshcache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arkwave/refreshcache/internal/log"
)

// nameCtxKey carries a cache's configured Name through to internal/log so
// every line this package emits can be correlated without threading a
// name parameter through every call site.
type nameCtxKey struct{}

func contextWithCacheName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}

	return context.WithValue(ctx, nameCtxKey{}, name)
}

func cacheNameHook(ctx context.Context, _ string) []log.Field {
	name, ok := ctx.Value(nameCtxKey{}).(string)
	if !ok || name == "" {
		return nil
	}

	return []log.Field{log.String("cache", name)}
}

var registerHookOnce sync.Once

func ensureHookRegistered() {
	registerHookOnce.Do(func() {
		log.AddHook(log.HookFunc(cacheNameHook))
	})
}

// instance is one run of the background Refresher task. The Controller's
// current field is a single-winner CAS cell: cancel and restart both
// attempt a CompareAndSwap against it, and whichever call actually
// performs the swap is the one true winner.
type instance struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller is the user-facing handle for reading, observing, and
// controlling the lifecycle of a self-refreshing cache. Its lifetime is
// the scope a Builder's Acquire call was made in.
type Controller[A any] struct {
	slot *Slot[A]
	cfg  RefresherConfig[A]
	ctx  context.Context //nolint:containedctx // the long-lived parent for every spawned Refresher instance.

	current atomic.Pointer[instance]
}

// Get returns a non-blocking snapshot of the current CachedValue.
func (c *Controller[A]) Get() CachedValue[A] {
	return c.slot.Read()
}

// Value is a convenience for Get().Value().
func (c *Controller[A]) Value() A {
	return c.Get().Value()
}

// Updates returns a Stream of every CachedValue published since
// subscription, starting with the value currently in effect.
func (c *Controller[A]) Updates() Stream[A] {
	return c.slot.Subscribe()
}

// Cancel requests Refresher termination. It returns true iff this call
// was the one that actually transitioned the Refresher from active to
// cancelled; concurrent duplicate calls return false. Idempotent and safe
// to race with Restart and with the Refresher's own exhaustion.
func (c *Controller[A]) Cancel() bool {
	inst := c.current.Load()
	if inst == nil {
		return false
	}

	if !c.current.CompareAndSwap(inst, nil) {
		return false
	}

	inst.cancel()
	<-inst.done

	last := c.slot.Read().Value()
	c.slot.Write(Cancelled(last))

	log.Info(contextWithCacheName(c.ctx, c.cfg.Name), "refresher cancelled", log.String("instance", inst.id))

	return true
}

// Restart starts a fresh Refresher whose initial value is the Slot's
// current value, iff the Refresher is currently terminal (Cancelled or
// Exhausted). Returns true iff this call performed the transition.
func (c *Controller[A]) Restart() bool {
	if c.current.Load() != nil {
		return false
	}

	ctx, cancel := context.WithCancel(c.ctx)
	inst := &instance{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}

	if !c.current.CompareAndSwap(nil, inst) {
		cancel()
		return false
	}

	startValue := c.slot.Read().Value()

	go c.runRefresher(ctx, inst, startValue)

	log.Info(contextWithCacheName(c.ctx, c.cfg.Name), "refresher started", log.String("instance", inst.id))

	return true
}
