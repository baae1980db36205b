package workflow

import (
	"context"
	"fmt"
	"time"
)

// ConflictChecker answers whether a candidate interval collides with an
// existing active reservation of the same facility. It is a read-before-
// write guard, not a lock: two concurrent submissions can both pass the
// check, and the later one is caught by a human approver at decision time.
type ConflictChecker struct {
	store ReservationStore
}

// NewConflictChecker returns a checker backed by the given store.
func NewConflictChecker(store ReservationStore) *ConflictChecker {
	return &ConflictChecker{store: store}
}

// HasOverlap reports whether any pending or approved reservation of the
// facility intersects the half-open interval [start, end). excludeID, when
// non-zero, is left out of the comparison (used when re-checking an
// existing booking).
//
// When the underlying query fails the checker fails closed: it reports a
// conflict together with the error, so a storage outage can never let a
// double-booking through.
func (c *ConflictChecker) HasOverlap(ctx context.Context, facilityID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	n, err := c.store.CountOverlapping(ctx, facilityID, start.UTC(), end.UTC(), excludeID)
	if err != nil {
		return true, fmt.Errorf("conflict check: %w", err)
	}
	return n > 0, nil
}
