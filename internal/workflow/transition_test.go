package workflow

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/venue-reservation/internal/model"
)

var (
    adminActor     = Actor{ID: 1, Role: model.RoleAdmin}
    collectorActor = Actor{ID: 2, Role: model.RolePaymentCollector}
    bookerActor    = Actor{ID: 7, Role: model.RoleUser}
    mdrrActor      = Actor{ID: 8, Role: model.RoleMDRR}
)

// seedReservation books the free admin-routed facility and returns the id.
func seedReservation(t *testing.T, e *Engine) uint64 {
    t.Helper()
    res, err := e.CreateBooking(context.Background(), freeBooking())
    if err != nil {
        t.Fatalf("seed booking: %v", err)
    }
    return res.Reservation.ID
}

// seedMDRRReservation books the free MDRR-designated facility.
func seedMDRRReservation(t *testing.T, e *Engine) uint64 {
    t.Helper()
    in := freeBooking()
    in.FacilityID = 30
    res, err := e.CreateBooking(context.Background(), in)
    if err != nil {
        t.Fatalf("seed booking: %v", err)
    }
    return res.Reservation.ID
}

func TestAdminApprovesPendingReservation(t *testing.T) {
    e, s := newTestEngine()
    id := seedReservation(t, e)

    res, err := e.Transition(context.Background(), id, StatusApproved, adminActor, "")
    if err != nil {
        t.Fatalf("Transition: %v", err)
    }
    if res.Reservation.Status != StatusApproved {
        t.Fatalf("status = %q, want approved", res.Reservation.Status)
    }
    if res.Reservation.ActionByRole == nil || *res.Reservation.ActionByRole != model.RoleAdmin {
        t.Fatalf("action_by_role not stamped")
    }
    // Acting marks the reservation read for the acting role.
    if !s.reads[id][model.RoleAdmin] {
        t.Fatalf("reservation not marked read for the admin")
    }
    // Terminal outcome on the admin route reaches the collectors too.
    if got := len(s.notificationsFor(2)); got != 1 {
        t.Fatalf("collector notifications = %d, want 1", got)
    }
    last := s.events[len(s.events)-1]
    if last.ActionType != "reservation_approved" || last.ActorRole != model.RoleAdmin {
        t.Fatalf("unexpected event %+v", last)
    }
}

func TestOnlyRouteRoleMayDecide(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    mdrrID := seedMDRRReservation(t, e)

    var te *InvalidTransitionError
    // MDRR staff cannot act on an admin-routed reservation.
    if _, err := e.Transition(context.Background(), id, StatusApproved, mdrrActor, ""); !errors.As(err, &te) {
        t.Fatalf("mdrr on admin route: got %v, want invalid transition", err)
    }
    // The admin cannot act on an MDRR-designated facility.
    if _, err := e.Transition(context.Background(), mdrrID, StatusApproved, adminActor, ""); !errors.As(err, &te) {
        t.Fatalf("admin on mdrr route: got %v, want invalid transition", err)
    }
    // A regular user cannot approve anything.
    if _, err := e.Transition(context.Background(), id, StatusApproved, bookerActor, ""); !errors.As(err, &te) {
        t.Fatalf("user approval: got %v, want invalid transition", err)
    }
    // The right role succeeds on each.
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("admin approval failed: %v", err)
    }
    if _, err := e.Transition(context.Background(), mdrrID, StatusApproved, mdrrActor, ""); err != nil {
        t.Fatalf("mdrr approval failed: %v", err)
    }
}

func TestMDRRRouteHasNoCollectorFanOut(t *testing.T) {
    e, s := newTestEngine()
    id := seedMDRRReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusDeclined, mdrrActor, ""); err != nil {
        t.Fatalf("Transition: %v", err)
    }
    if got := len(s.notificationsFor(2)) + len(s.notificationsFor(3)); got != 0 {
        t.Fatalf("collector notifications = %d, want 0 on the mdrr route", got)
    }
}

func TestBookerCancelsOwnApprovedReservation(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("approve: %v", err)
    }

    // A reason is mandatory.
    _, err := e.Transition(context.Background(), id, StatusCancelled, bookerActor, "  ")
    var ve *ValidationError
    if !errors.As(err, &ve) || ve.Field != "reason" {
        t.Fatalf("cancel without reason: got %v, want reason validation error", err)
    }

    res, err := e.Transition(context.Background(), id, StatusCancelled, bookerActor, "our event was called off")
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if res.Reservation.Status != StatusCancelled {
        t.Fatalf("status = %q, want cancelled", res.Reservation.Status)
    }
    if res.Reservation.CancellationReason == nil || *res.Reservation.CancellationReason == "" {
        t.Fatalf("cancellation reason not recorded")
    }
}

func TestStrangerCannotCancel(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("approve: %v", err)
    }
    stranger := Actor{ID: 42, Role: model.RoleUser}
    var te *InvalidTransitionError
    if _, err := e.Transition(context.Background(), id, StatusCancelled, stranger, "not mine"); !errors.As(err, &te) {
        t.Fatalf("got %v, want invalid transition for a stranger", err)
    }
}

func TestPendingCannotBeCancelledOrCompleted(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    var te *InvalidTransitionError
    if _, err := e.Transition(context.Background(), id, StatusCancelled, bookerActor, "changed plans"); !errors.As(err, &te) {
        t.Fatalf("pending cancel: got %v, want invalid transition", err)
    }
    if _, err := e.Transition(context.Background(), id, StatusCompleted, Actor{Role: model.RoleSystem}, ""); !errors.As(err, &te) {
        t.Fatalf("pending complete: got %v, want invalid transition", err)
    }
}

func TestCompletionIsSystemOnly(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("approve: %v", err)
    }
    var te *InvalidTransitionError
    if _, err := e.Transition(context.Background(), id, StatusCompleted, adminActor, ""); !errors.As(err, &te) {
        t.Fatalf("admin completing: got %v, want invalid transition", err)
    }
    if _, err := e.Transition(context.Background(), id, StatusCompleted, Actor{Role: model.RoleSystem}, ""); err != nil {
        t.Fatalf("system completion failed: %v", err)
    }
}

func TestSecondDecisionLosesTheRace(t *testing.T) {
    e, _ := newTestEngine()
    id := seedReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("first decision: %v", err)
    }
    var te *InvalidTransitionError
    if _, err := e.Transition(context.Background(), id, StatusDeclined, adminActor, ""); !errors.As(err, &te) {
        t.Fatalf("second decision: got %v, want invalid transition", err)
    }
}

func TestCompleteExpiredSweep(t *testing.T) {
    e, s := newTestEngine()
    id := seedReservation(t, e)
    if _, err := e.Transition(context.Background(), id, StatusApproved, adminActor, ""); err != nil {
        t.Fatalf("approve: %v", err)
    }
    keepID := seedMDRRReservation(t, e)
    if _, err := e.Transition(context.Background(), keepID, StatusApproved, mdrrActor, ""); err != nil {
        t.Fatalf("approve second: %v", err)
    }
    // Backdate only the first reservation past its end time.
    s.reservations[id].StartTime = testBase.Add(-3 * time.Hour)
    s.reservations[id].EndTime = testBase.Add(-time.Hour)

    n, err := e.CompleteExpired(context.Background())
    if err != nil {
        t.Fatalf("CompleteExpired: %v", err)
    }
    if n != 1 {
        t.Fatalf("completed = %d, want 1", n)
    }
    if s.reservations[id].Status != StatusCompleted {
        t.Fatalf("expired reservation status = %q, want completed", s.reservations[id].Status)
    }
    if s.reservations[keepID].Status != StatusApproved {
        t.Fatalf("future reservation was swept")
    }
    if role := s.reservations[id].ActionByRole; role == nil || *role != model.RoleSystem {
        t.Fatalf("sweep must act as the system role")
    }
}
