package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a fatal setup problem such as a missing API key.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamUnavailable is returned by resolution when neither the
	// intermediary nor the direct provider path produced data.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrIntermediaryUnavailable is only ever logged; it triggers fallback.
	ErrIntermediaryUnavailable = errors.New("intermediary unavailable")

	ErrMalformedUpstreamData = errors.New("malformed upstream data")
)

// UpstreamError carries the cause of a failed direct-provider resolution.
// It matches ErrUpstreamUnavailable and unwraps to the cause.
type UpstreamError struct {
	City string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather for %q unavailable: %v", e.City, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpstreamData, fmt.Sprintf(format, args...))
}
