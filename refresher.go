package refreshcache

import (
	"context"
	"time"

	"github.com/arkwave/refreshcache/internal/log"
)

// runRefresher is the background task bound to one Slot. It implements
// the refresh state machine:
//
//	[[Running(v)]] --tick--> [[Refreshing]]
//	[[Refreshing]] --prod ok--> [[Running(new)]]
//	[[Refreshing]] --prod fail--> [[Retrying(n,cause)]]
//	[[Retrying(n)]] --policy says retry--> [[Refreshing]]
//	[[Retrying(n)]] --policy gives up--> [[Exhausted]] (terminal)
//	any --cancel--> [[Cancelled]] (terminal)
//
// It is not re-enterable: restart always spawns a new goroutine running
// this same function against a fresh instance token.
func (c *Controller[A]) runRefresher(ctx context.Context, inst *instance, startValue A) {
	defer close(inst.done)

	ctx = contextWithCacheName(ctx, c.cfg.Name)

	value := startValue
	firstTick := true

	for {
		cadence := c.cfg.Cadence(value)

		if !firstTick {
			c.safeOnNewValue(ctx, value, cadence)
		}

		firstTick = false

		select {
		case <-ctx.Done():
			return
		case <-time.After(cadence):
		}

		newValue, ok := c.refreshUntilSuccessOrGiveUp(ctx, inst, value)
		if !ok {
			return
		}

		value = newValue
	}
}

// refreshUntilSuccessOrGiveUp runs the Refreshing/Retrying sub-loop for a
// single tick. It returns the newly published value and true on success,
// or false if the Refresher terminated (exhausted retries, or was
// cancelled out from under it) and the caller must stop.
func (c *Controller[A]) refreshUntilSuccessOrGiveUp(ctx context.Context, inst *instance, lastGood A) (A, bool) {
	attempt := 0

	var attemptsElapsed time.Duration

	for {
		select {
		case <-ctx.Done():
			var zero A
			return zero, false
		default:
		}

		attempt++

		started := time.Now()
		produced, err, completed := c.produce(ctx)
		attemptsElapsed += time.Since(started)

		if !completed {
			// Cancelled mid-call; the Controller's Cancel already owns
			// the Slot write for this instance.
			var zero A
			return zero, false
		}

		if err == nil {
			published := c.applyCombine(ctx, produced)
			c.slot.Write(Success(published))

			return published, true
		}

		decision := c.cfg.retryPolicy().Decide(attempt, attemptsElapsed)

		if decision.GiveUp {
			if !c.current.CompareAndSwap(inst, nil) {
				// Already cancelled or superseded by a concurrent call;
				// that call owns the terminal Slot write instead.
				var zero A
				return zero, false
			}

			c.slot.Write(Error(lastGood, err))
			c.safeOnExhausted(ctx, err)

			log.Warn(ctx, "refresher exhausted retries", log.Cause(err), log.Int("attempts", attempt))

			var zero A

			return zero, false
		}

		c.safeOnRefreshFailure(ctx, err, RetryDetails{
			Attempt: attempt,
			Elapsed: attemptsElapsed,
			Delay:   decision.Delay,
		})

		select {
		case <-ctx.Done():
			var zero A
			return zero, false
		case <-time.After(decision.Delay):
		}
	}
}

// produce invokes the Producer, abandoning it if ctx is cancelled before
// it returns rather than waiting for a producer that ignores ctx.
func (c *Controller[A]) produce(ctx context.Context) (A, error, bool) {
	type result struct {
		value A
		err   error
	}

	ch := make(chan result, 1)

	go func() {
		v, err := c.cfg.Producer(ctx)
		ch <- result{value: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.value, res.err, true
	case <-ctx.Done():
		var zero A
		return zero, ctx.Err(), false
	}
}

// applyCombine merges the prior Slot state into a freshly-produced value
// via the configured Combine. It is only ever called on successful
// production; a failed attempt never reaches here.
func (c *Controller[A]) applyCombine(ctx context.Context, produced A) A {
	if c.cfg.Combine == nil {
		return produced
	}

	previous := c.slot.Read()

	combined, err := func() (value A, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()

		return c.cfg.Combine(ctx, previous, Success(produced))
	}()
	if err != nil {
		log.Warn(ctx, "combine callback failed, using produced value unmodified", log.Cause(err))
		return produced
	}

	return combined
}

func (c *Controller[A]) safeOnNewValue(ctx context.Context, value A, cadence time.Duration) {
	if c.cfg.OnNewValue == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn(ctx, "onNewValue callback panicked", log.Any("panic", r))
		}
	}()

	c.cfg.OnNewValue(ctx, value, cadence)
}

func (c *Controller[A]) safeOnRefreshFailure(ctx context.Context, cause error, details RetryDetails) {
	log.Debug(ctx, "refresh attempt failed, retrying",
		log.Cause(cause),
		log.Int("attempt", details.Attempt),
		log.Duration("delay", details.Delay))

	if c.cfg.OnRefreshFailure == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn(ctx, "onRefreshFailure callback panicked", log.Any("panic", r))
		}
	}()

	c.cfg.OnRefreshFailure(ctx, cause, details)
}

func (c *Controller[A]) safeOnExhausted(ctx context.Context, cause error) {
	if c.cfg.OnExhaustedRetries == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn(ctx, "onExhaustedRetries callback panicked", log.Any("panic", r))
		}
	}()

	c.cfg.OnExhaustedRetries(ctx, cause)
}
