package refreshcache

// Status identifies the refresh outcome a CachedValue was published with.
type Status int

const (
	// StatusSuccess means the most recent refresh produced a fresh value.
	StatusSuccess Status = iota
	// StatusError means the retry policy exhausted its attempts; the
	// carried value is the last value a refresh actually succeeded with.
	StatusError
	// StatusCancelled means background refreshing has been stopped; the
	// carried value is whatever the Refresher last held.
	StatusCancelled
)

// String implements fmt.Stringer for log output.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CachedValue is a discriminated union carrying the last known good value
// of type A together with the status of the refresh that produced it.
//
// Every CachedValue carries a usable value: there is no "empty" shape. A
// reader never observes the absence of data, only its staleness.
type CachedValue[A any] struct {
	status Status
	value  A
	cause  error
}

// Success wraps value as the most recent successful refresh outcome.
func Success[A any](value A) CachedValue[A] {
	return CachedValue[A]{status: StatusSuccess, value: value}
}

// Error wraps the last known good value together with the cause the retry
// policy gave up on.
func Error[A any](value A, cause error) CachedValue[A] {
	return CachedValue[A]{status: StatusError, value: value, cause: cause}
}

// Cancelled wraps whatever value was held when background refreshing
// stopped.
func Cancelled[A any](value A) CachedValue[A] {
	return CachedValue[A]{status: StatusCancelled, value: value}
}

// Value returns the carried value, regardless of status.
func (c CachedValue[A]) Value() A {
	return c.value
}

// Status returns the refresh outcome this value was published with.
func (c CachedValue[A]) Status() Status {
	return c.status
}

// Cause returns the failure the retry policy gave up on. It is nil unless
// Status is StatusError.
func (c CachedValue[A]) Cause() error {
	return c.cause
}

// mapCachedValue transforms the carried value while preserving the tag and
// any cause. It is a free function rather than a method because Go methods
// cannot introduce new type parameters.
func mapCachedValue[A, B any](c CachedValue[A], f func(A) B) CachedValue[B] {
	mapped := CachedValue[B]{status: c.status, value: f(c.value)}
	mapped.cause = c.cause

	return mapped
}

// Map transforms a CachedValue[A] into a CachedValue[B], applying f to the
// carried value and preserving the tag (and cause, for Error).
func Map[A, B any](c CachedValue[A], f func(A) B) CachedValue[B] {
	return mapCachedValue(c, f)
}
