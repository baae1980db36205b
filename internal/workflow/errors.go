package workflow

import (
	"errors"
	"fmt"
)

// ErrSlotConflict is returned when a requested interval overlaps an active
// (pending or approved) reservation for the same facility. It is raised
// before any row is created on the intake path and before the promotion
// commits on the promotion path. Handlers should translate this into an
// HTTP 409 response.
var ErrSlotConflict = errors.New("time slot conflicts with an existing reservation")

// ErrAlreadyDecided is returned when a payment approval has already left
// the pending state and a second decision is attempted.
var ErrAlreadyDecided = errors.New("payment approval already decided")

// ValidationError reports malformed booking input. Field names the input
// that failed so callers can surface an actionable message instead of a
// bare failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a transition request that the state
// machine refuses: either the target status is not reachable from the
// current one, or the acting role does not match the approval route
// assigned to the reservation. No write happens when it is returned.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot transition %s -> %s", e.From, e.To)
}
