package refreshcache

import (
	"errors"
	"fmt"
)

// ErrAcquisitionFailed is returned by Builder.Acquire when the initial
// synchronous Producer call fails and no Default was configured to
// salvage it. errors.Is/errors.Unwrap reach the producer's own cause.
var ErrAcquisitionFailed = errors.New("refreshcache: initial acquisition failed")

// acquisitionError wraps a Producer failure encountered during Acquire,
// keeping the original cause reachable via errors.Unwrap while presenting
// a stable sentinel via errors.Is.
type acquisitionError struct {
	cause error
}

func (e *acquisitionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAcquisitionFailed, e.cause)
}

func (e *acquisitionError) Unwrap() error {
	return e.cause
}

func (e *acquisitionError) Is(target error) bool {
	return target == ErrAcquisitionFailed //nolint:errorlint // intentional sentinel identity check
}

// panicError recovers a callback panic into a regular error so it can be
// logged and swallowed instead of crashing the Refresher goroutine.
func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("callback panicked: %w", err)
	}

	return fmt.Errorf("callback panicked: %v", recovered)
}
