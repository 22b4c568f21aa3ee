package refreshcache

import (
	"context"
	"sync"

	"github.com/arkwave/refreshcache/internal/ringbuffer"
)

// defaultBacklog is the default number of writes a slow Stream subscriber
// may fall behind by before it starts lagging. Must be at least 1.
const defaultBacklog = 16

// Slot is the single synchronization point for a CachedValue[A]: it holds
// the current value and broadcasts every write to any subscribed Stream.
//
// Writes are totally ordered; every subscriber observes that same order.
// A subscriber that joins at time T sees the value in effect at T followed
// by all writes after T. The broadcast is backed by a sequence-indexed
// journal (internal/ringbuffer) rather than a per-subscriber channel, so a
// lagging subscriber is told it lagged instead of silently losing writes
// mid-stream.
type Slot[A any] struct {
	mu      sync.Mutex
	current CachedValue[A]
	journal *ringbuffer.Journal[CachedValue[A]]
	nextSeq int64
	waitCh  chan struct{}
}

// newSlot creates a Slot with the given initial value and per-subscriber
// backlog bound. backlog below 1 is treated as defaultBacklog.
func newSlot[A any](initial CachedValue[A], backlog int) *Slot[A] {
	if backlog < 1 {
		backlog = defaultBacklog
	}

	s := &Slot[A]{
		current: initial,
		journal: ringbuffer.New[CachedValue[A]](backlog),
		waitCh:  make(chan struct{}),
	}

	s.journal.Push(s.nextSeq, initial)
	s.nextSeq++

	return s
}

// Read returns the current snapshot.
func (s *Slot[A]) Read() CachedValue[A] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Write atomically replaces the current value and publishes it to every
// subscribed Stream.
func (s *Slot[A]) Write(v CachedValue[A]) {
	s.mu.Lock()

	s.current = v
	s.journal.Push(s.nextSeq, v)
	s.nextSeq++

	woken := s.waitCh
	s.waitCh = make(chan struct{})

	s.mu.Unlock()

	close(woken)
}

// Subscribe returns a Stream that begins with the value currently in
// effect and yields every subsequent write, in write order.
func (s *Slot[A]) Subscribe() Stream[A] {
	s.mu.Lock()
	cursor := s.nextSeq - 1
	s.mu.Unlock()

	return &subscription[A]{slot: s, cursor: cursor}
}

// subscription is a Slot-backed Stream. cursor is the sequence number of
// the next value this subscriber should read.
type subscription[A any] struct {
	slot    *Slot[A]
	cursor  int64
	current CachedValue[A]
	err     error
	lag     int64
	closed  bool
}

func (sub *subscription[A]) Next(ctx context.Context) bool {
	for {
		sub.slot.mu.Lock()

		if sub.closed {
			sub.slot.mu.Unlock()
			return false
		}

		if v, ok := sub.slot.journal.Get(sub.cursor); ok {
			sub.current = v
			sub.cursor++
			sub.slot.mu.Unlock()

			return true
		}

		if oldest, ok := sub.slot.journal.OldestSeq(); ok && oldest > sub.cursor {
			sub.lag += oldest - sub.cursor
			sub.cursor = oldest
			sub.slot.mu.Unlock()

			continue
		}

		wait := sub.slot.waitCh
		sub.slot.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			sub.err = ctx.Err()
			return false
		}
	}
}

func (sub *subscription[A]) Current() CachedValue[A] {
	return sub.current
}

func (sub *subscription[A]) Err() error {
	return sub.err
}

func (sub *subscription[A]) Close() error {
	sub.slot.mu.Lock()
	sub.closed = true
	sub.slot.mu.Unlock()

	return nil
}

func (sub *subscription[A]) Lagged() int64 {
	sub.slot.mu.Lock()
	defer sub.slot.mu.Unlock()

	return sub.lag
}
