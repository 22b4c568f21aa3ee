package refreshcache

import "context"

// Stream is a lazy, pull-based sequence of every CachedValue a Slot has
// published since a subscriber joined. Each Next call may suspend the
// caller until the next write, or return promptly if one is already
// buffered.
//
// Unlike a fixed, already-materialized sequence, this Stream can block, so
// Next takes a context.Context the caller can cancel to stop waiting.
type Stream[A any] interface {
	// Next advances to the next value, suspending until one is available
	// or ctx is done. It returns false when ctx is cancelled or the
	// stream has been closed; callers should then consult Err.
	Next(ctx context.Context) bool
	// Current returns the value Next most recently advanced to. Its
	// result is undefined before the first successful Next call.
	Current() CachedValue[A]
	// Err returns the reason Next last returned false, or nil if the
	// stream is simply exhausted by an explicit Close.
	Err() error
	// Close unsubscribes. Further Next calls return false.
	Close() error
	// Lagged returns the number of writes this subscriber missed because
	// its backlog buffer overflowed. It never decreases.
	Lagged() int64
}
