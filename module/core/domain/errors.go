package domain

import "errors"

// Sentinel errors for the two rejection classes callers can act on. Wrap
// with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	// ErrInvalidArgument marks input that can never be accepted, such as an
	// out-of-range coordinate or a missing identifier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState marks input that is well formed but not applicable to
	// the trip's current state, such as a report for an ended trip or a
	// timestamp that does not advance the trip's clock.
	ErrInvalidState = errors.New("invalid state")
)
