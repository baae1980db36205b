package workflow

import (
    "context"
    "errors"
    "testing"

    "github.com/iliyamo/venue-reservation/internal/model"
)

// seedApproval books the priced facility and returns the approval id.
func seedApproval(t *testing.T, e *Engine) uint64 {
    t.Helper()
    res, err := e.CreateBooking(context.Background(), pricedBooking())
    if err != nil {
        t.Fatalf("seed approval: %v", err)
    }
    return res.Approval.ID
}

// blockSlot inserts a pending reservation occupying the approval's window
// on the priced facility, simulating a slot taken after submission.
func blockSlot(s *fakeStore) uint64 {
    s.mu.Lock()
    defer s.mu.Unlock()
    in := pricedBooking()
    id := s.id()
    s.reservations[id] = &model.Reservation{
        ID:         id,
        FacilityID: in.FacilityID,
        UserID:     42,
        StartTime:  in.StartTime,
        EndTime:    in.EndTime,
        Status:     StatusPending,
    }
    return id
}

func TestApprovePromotesIntoPendingReservation(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)

    res, err := e.DecideApproval(context.Background(), id, true, collectorActor)
    if err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }
    if res.PromotionConflict {
        t.Fatalf("unexpected promotion conflict")
    }
    if res.Reservation == nil {
        t.Fatalf("promotion must create a reservation")
    }
    if res.Reservation.Status != StatusPending {
        t.Fatalf("promoted reservation status = %q, want pending", res.Reservation.Status)
    }
    if res.Approval.Status != StatusApproved {
        t.Fatalf("approval status = %q, want approved", res.Approval.Status)
    }
    if res.Approval.PromotedReservationID == nil || *res.Approval.PromotedReservationID != res.Reservation.ID {
        t.Fatalf("approval not bound to the promoted reservation")
    }
    // The booking details carry over, receipt included.
    if res.Reservation.ReceiptImageURL == nil {
        t.Fatalf("receipt not carried onto the reservation")
    }
    if res.Reservation.UserID != 7 {
        t.Fatalf("promoted reservation booker = %d, want 7", res.Reservation.UserID)
    }
    // The designated admin reviewer is asked to review.
    var reviewed bool
    for _, n := range s.notificationsFor(1) {
        if n.RelatedType == model.RelatedReservation && n.RelatedID == res.Reservation.ID {
            reviewed = true
        }
    }
    if !reviewed {
        t.Fatalf("admin reviewer was not notified of the promoted booking")
    }
}

func TestDecideApprovalIsCollectorOnly(t *testing.T) {
    e, _ := newTestEngine()
    id := seedApproval(t, e)
    var te *InvalidTransitionError
    for _, actor := range []Actor{adminActor, bookerActor, mdrrActor} {
        if _, err := e.DecideApproval(context.Background(), id, true, actor); !errors.As(err, &te) {
            t.Fatalf("role %s: got %v, want invalid transition", actor.Role, err)
        }
    }
}

func TestDecideApprovalExactlyOnce(t *testing.T) {
    e, _ := newTestEngine()
    id := seedApproval(t, e)
    if _, err := e.DecideApproval(context.Background(), id, true, collectorActor); err != nil {
        t.Fatalf("first decision: %v", err)
    }
    if _, err := e.DecideApproval(context.Background(), id, false, collectorActor); !errors.Is(err, ErrAlreadyDecided) {
        t.Fatalf("second decision: got %v, want ErrAlreadyDecided", err)
    }
}

func TestDeclineEndsTheBooking(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)

    res, err := e.DecideApproval(context.Background(), id, false, collectorActor)
    if err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }
    if res.Reservation != nil {
        t.Fatalf("declining must not create a reservation")
    }
    if res.Approval.Status != StatusDeclined {
        t.Fatalf("approval status = %q, want declined", res.Approval.Status)
    }
    // The booker hears about the decline (submission + decline).
    if got := len(s.notificationsFor(7)); got != 2 {
        t.Fatalf("booker notifications = %d, want 2", got)
    }
}

func TestPromotionConflictFlagsApproval(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)
    blockSlot(s)

    res, err := e.DecideApproval(context.Background(), id, true, collectorActor)
    if err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }
    if !res.PromotionConflict {
        t.Fatalf("expected a promotion conflict")
    }
    if res.Reservation != nil {
        t.Fatalf("conflicted promotion must not create a reservation")
    }
    // Payment stays approved; the approval waits in the conflict queue.
    if res.Approval.Status != StatusApproved || !res.Approval.PromotionConflict {
        t.Fatalf("approval = %+v, want approved and conflict-flagged", res.Approval)
    }
    if res.Approval.PromotedReservationID != nil {
        t.Fatalf("conflicted approval must stay unpromoted")
    }
}

func TestPromotionStorageFailureFlagsApproval(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)

    // The decision commits, then the promoted reservation fails to insert.
    s.resCreateErr = errStorage
    if _, err := e.DecideApproval(context.Background(), id, true, collectorActor); !errors.Is(err, errStorage) {
        t.Fatalf("DecideApproval: got %v, want storage failure", err)
    }
    appr := s.approvals[id]
    if appr.Status != StatusApproved {
        t.Fatalf("approval status = %q, want approved", appr.Status)
    }
    if appr.PromotedReservationID != nil {
        t.Fatalf("failed promotion must leave the approval unbound")
    }
    // The flag keeps the approval visible in the admin conflict queue.
    if !appr.PromotionConflict {
        t.Fatalf("approval not flagged after a failed promotion")
    }

    // Once storage recovers, the admin retry completes the promotion.
    s.resCreateErr = nil
    res, err := e.RetryPromotion(context.Background(), id, adminActor)
    if err != nil {
        t.Fatalf("retry after recovery: %v", err)
    }
    if res.Reservation == nil || res.Reservation.Status != StatusPending {
        t.Fatalf("retry did not promote the approval")
    }
    if s.approvals[id].PromotedReservationID == nil {
        t.Fatalf("approval not bound after retry")
    }
}

func TestRetryPromotion(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)
    blockerID := blockSlot(s)
    if _, err := e.DecideApproval(context.Background(), id, true, collectorActor); err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }

    // Slot still taken: the retry re-flags and reports the conflict.
    if _, err := e.RetryPromotion(context.Background(), id, adminActor); !errors.Is(err, ErrSlotConflict) {
        t.Fatalf("retry with live conflict: got %v, want ErrSlotConflict", err)
    }
    if !s.approvals[id].PromotionConflict {
        t.Fatalf("approval lost its conflict flag after a failed retry")
    }

    // Clear the blocker and retry again.
    s.reservations[blockerID].Status = StatusDeclined
    res, err := e.RetryPromotion(context.Background(), id, adminActor)
    if err != nil {
        t.Fatalf("retry after clearing: %v", err)
    }
    if res.Reservation == nil || res.Reservation.Status != StatusPending {
        t.Fatalf("retry did not promote the approval")
    }
    if s.approvals[id].PromotedReservationID == nil {
        t.Fatalf("approval not bound after retry")
    }

    // A promoted approval cannot be retried again.
    if _, err := e.RetryPromotion(context.Background(), id, adminActor); !errors.Is(err, ErrAlreadyDecided) {
        t.Fatalf("retry of promoted approval: got %v, want ErrAlreadyDecided", err)
    }
}

func TestRetryPromotionIsAdminOnly(t *testing.T) {
    e, s := newTestEngine()
    id := seedApproval(t, e)
    blockSlot(s)
    if _, err := e.DecideApproval(context.Background(), id, true, collectorActor); err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }
    var te *InvalidTransitionError
    if _, err := e.RetryPromotion(context.Background(), id, collectorActor); !errors.As(err, &te) {
        t.Fatalf("collector retry: got %v, want invalid transition", err)
    }
}

func TestPromotedReservationRoutesToAdmin(t *testing.T) {
    e, _ := newTestEngine()
    id := seedApproval(t, e)
    res, err := e.DecideApproval(context.Background(), id, true, collectorActor)
    if err != nil {
        t.Fatalf("DecideApproval: %v", err)
    }
    // Facility 2 is not MDRR-designated, so the admin finishes the flow.
    if _, err := e.Transition(context.Background(), res.Reservation.ID, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("admin approval of promoted reservation: %v", err)
    }
    // The collector has no authority over the promoted reservation.
    var te *InvalidTransitionError
    if _, err := e.Transition(context.Background(), res.Reservation.ID, StatusCancelled, collectorActor, "x"); !errors.As(err, &te) {
        t.Fatalf("collector acting on promoted reservation: got %v, want invalid transition", err)
    }
}
