package workflow

import (
    "context"
    "testing"
    "time"
)

func TestHasOverlapBoundaries(t *testing.T) {
    e, s := newTestEngine()
    if _, err := e.CreateBooking(context.Background(), freeBooking()); err != nil {
        t.Fatalf("seed booking: %v", err)
    }
    // Seeded window: base+24h .. base+26h on facility 1.
    start := testBase.Add(24 * time.Hour)
    end := testBase.Add(26 * time.Hour)

    checker := NewConflictChecker(fakeReservations{s})
    cases := []struct {
        name string
        s, e time.Time
        want bool
    }{
        {"identical window", start, end, true},
        {"overlaps the tail", end.Add(-30 * time.Minute), end.Add(time.Hour), true},
        {"overlaps the head", start.Add(-time.Hour), start.Add(30 * time.Minute), true},
        {"fully inside", start.Add(15 * time.Minute), end.Add(-15 * time.Minute), true},
        {"back to back after", end, end.Add(time.Hour), false},
        {"back to back before", start.Add(-time.Hour), start, false},
        {"disjoint", end.Add(time.Hour), end.Add(2 * time.Hour), false},
    }
    for _, tc := range cases {
        got, err := checker.HasOverlap(context.Background(), 1, tc.s, tc.e, 0)
        if err != nil {
            t.Fatalf("%s: %v", tc.name, err)
        }
        if got != tc.want {
            t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
        }
    }
}

func TestHasOverlapIgnoresSettledReservations(t *testing.T) {
    e, s := newTestEngine()
    res, err := e.CreateBooking(context.Background(), freeBooking())
    if err != nil {
        t.Fatalf("seed booking: %v", err)
    }
    s.reservations[res.Reservation.ID].Status = StatusDeclined

    checker := NewConflictChecker(fakeReservations{s})
    got, err := checker.HasOverlap(context.Background(), 1, testBase.Add(24*time.Hour), testBase.Add(26*time.Hour), 0)
    if err != nil {
        t.Fatalf("HasOverlap: %v", err)
    }
    if got {
        t.Fatalf("declined reservation should not block the slot")
    }
}

func TestHasOverlapFailsClosed(t *testing.T) {
    _, s := newTestEngine()
    s.countErr = errStorage

    checker := NewConflictChecker(fakeReservations{s})
    got, err := checker.HasOverlap(context.Background(), 1, testBase, testBase.Add(time.Hour), 0)
    if err == nil {
        t.Fatalf("expected error from failing store")
    }
    if !got {
        t.Fatalf("a failed check must report a conflict")
    }
}
