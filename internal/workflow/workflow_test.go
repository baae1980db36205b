package workflow

// In-memory store fakes shared by the workflow tests. They mirror the
// compare-and-set semantics of the MySQL repositories so the engine's
// exactly-once guarantees can be exercised without a database.

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/venue-reservation/internal/model"
    "github.com/iliyamo/venue-reservation/internal/queue"
)

var errStorage = errors.New("storage unavailable")

// testBase is the fixed clock of every engine test.
var testBase = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
    mu            sync.Mutex
    nextID        uint64
    reservations  map[uint64]*model.Reservation
    approvals     map[uint64]*model.PaymentApproval
    reads         map[uint64]map[string]bool
    notifications []model.Notification
    records       []model.TransactionRecord
    events        []queue.ReservationEvent
    facilities    map[uint64]*model.Facility
    users         map[uint64]model.User

    countErr     error // injected CountOverlapping failure
    notifErr     error // injected notification insert failure
    publishErr   error // injected broker failure
    resCreateErr error // injected reservation insert failure
}

func newFakeStore() *fakeStore {
    s := &fakeStore{
        reservations: map[uint64]*model.Reservation{},
        approvals:    map[uint64]*model.PaymentApproval{},
        reads:        map[uint64]map[string]bool{},
        facilities:   map[uint64]*model.Facility{},
        users:        map[uint64]model.User{},
    }
    price := func(v string) decimal.Decimal {
        d, _ := decimal.NewFromString(v)
        return d
    }
    // Facility 1 is free and admin-routed, 2 is priced, 30 is a free
    // MDRR-designated facility, 31 is priced and MDRR-designated.
    s.facilities[1] = &model.Facility{ID: 1, Name: "Community Hall", Location: "Main St", Capacity: 100, Type: model.FacilityIndoor, IsActive: true}
    s.facilities[2] = &model.Facility{ID: 2, Name: "Grand Pavilion", Location: "Park Ave", Capacity: 250, Type: model.FacilityOutdoor, PricePerHour: price("150.00"), IsActive: true}
    s.facilities[30] = &model.Facility{ID: 30, Name: "Evacuation Center", Location: "Hill Rd", Capacity: 400, Type: model.FacilityIndoor, IsActive: true}
    s.facilities[31] = &model.Facility{ID: 31, Name: "Training Grounds", Location: "Hill Rd", Capacity: 60, Type: model.FacilityOutdoor, PricePerHour: price("80.00"), IsActive: true}
    s.facilities[99] = &model.Facility{ID: 99, Name: "Old Gym", Location: "Side St", Capacity: 50, Type: model.FacilityIndoor, IsActive: false}

    s.users[1] = model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
    s.users[2] = model.User{ID: 2, Email: "collector1@example.com", Role: model.RolePaymentCollector, IsActive: true}
    s.users[3] = model.User{ID: 3, Email: "collector2@example.com", Role: model.RolePaymentCollector, IsActive: true}
    s.users[7] = model.User{ID: 7, Email: "booker@example.com", FullName: "Pat Booker", Phone: "0900", Role: model.RoleUser, IsActive: true}
    s.users[8] = model.User{ID: 8, Email: "mdrr@example.com", Role: model.RoleMDRR, IsActive: true}
    return s
}

func (s *fakeStore) id() uint64 {
    s.nextID++
    return s.nextID
}

// notificationsFor filters captured notifications by recipient.
func (s *fakeStore) notificationsFor(userID uint64) []model.Notification {
    var out []model.Notification
    for _, n := range s.notifications {
        if n.UserID == userID {
            out = append(out, n)
        }
    }
    return out
}

// --- ReservationStore ---

type fakeReservations struct{ *fakeStore }

func (f fakeReservations) Create(_ context.Context, r *model.Reservation) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.resCreateErr != nil {
        return f.resCreateErr
    }
    r.ID = f.id()
    r.CreatedAt = testBase
    cp := *r
    f.reservations[r.ID] = &cp
    return nil
}

func (f fakeReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.reservations[id]
    if !ok {
        return nil, errors.New("reservation not found")
    }
    cp := *r
    return &cp, nil
}

func (f fakeReservations) CountOverlapping(_ context.Context, facilityID uint64, start, end time.Time, excludeID uint64) (int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.countErr != nil {
        return 0, f.countErr
    }
    n := 0
    for _, r := range f.reservations {
        if r.FacilityID != facilityID || r.ID == excludeID {
            continue
        }
        if r.Status != StatusPending && r.Status != StatusApproved {
            continue
        }
        if start.Before(r.EndTime) && end.After(r.StartTime) {
            n++
        }
    }
    return n, nil
}

func (f fakeReservations) UpdateStatusFrom(_ context.Context, id uint64, from, to string, actionBy uint64, role string, at time.Time, reason *string) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.reservations[id]
    if !ok || r.Status != from {
        return false, nil
    }
    r.Status = to
    r.ActionBy = &actionBy
    r.ActionByRole = &role
    r.ActionAt = &at
    if reason != nil {
        r.CancellationReason = reason
    }
    return true, nil
}

func (f fakeReservations) MarkRead(_ context.Context, id uint64, role string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.reads[id] == nil {
        f.reads[id] = map[string]bool{}
    }
    f.reads[id][role] = true
    return nil
}

func (f fakeReservations) ListApprovedEndedBefore(_ context.Context, cutoff time.Time) ([]model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.Reservation
    for _, r := range f.reservations {
        if r.Status == StatusApproved && !r.EndTime.After(cutoff) {
            out = append(out, *r)
        }
    }
    return out, nil
}

// --- ApprovalStore ---

type fakeApprovals struct{ *fakeStore }

func (f fakeApprovals) Create(_ context.Context, a *model.PaymentApproval) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    a.ID = f.id()
    a.CreatedAt = testBase
    cp := *a
    f.approvals[a.ID] = &cp
    return nil
}

func (f fakeApprovals) GetByID(_ context.Context, id uint64) (*model.PaymentApproval, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.approvals[id]
    if !ok {
        return nil, errors.New("approval not found")
    }
    cp := *a
    return &cp, nil
}

func (f fakeApprovals) ClaimDecision(_ context.Context, id uint64, status string, actionBy uint64, at time.Time) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.approvals[id]
    if !ok || a.Status != StatusPending {
        return false, nil
    }
    a.Status = status
    a.ActionBy = &actionBy
    a.ActionAt = &at
    return true, nil
}

func (f fakeApprovals) SetPromotedReservation(_ context.Context, id, reservationID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.approvals[id]
    if !ok {
        return errors.New("approval not found")
    }
    if a.PromotedReservationID != nil {
        return errors.New("already promoted")
    }
    a.PromotedReservationID = &reservationID
    a.PromotionConflict = false
    return nil
}

func (f fakeApprovals) FlagPromotionConflict(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.approvals[id]
    if !ok {
        return errors.New("approval not found")
    }
    a.PromotionConflict = true
    return nil
}

func (f fakeApprovals) ClaimConflictRetry(_ context.Context, id uint64) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    a, ok := f.approvals[id]
    if !ok || !a.PromotionConflict || a.PromotedReservationID != nil || a.Status != StatusApproved {
        return false, nil
    }
    a.PromotionConflict = false
    return true, nil
}

// --- NotificationStore / AuditStore ---

type fakeNotifications struct{ *fakeStore }

func (f fakeNotifications) Create(_ context.Context, n *model.Notification) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.notifErr != nil {
        return f.notifErr
    }
    n.ID = f.id()
    f.notifications = append(f.notifications, *n)
    return nil
}

type fakeAudit struct{ *fakeStore }

func (f fakeAudit) Append(_ context.Context, rec *model.TransactionRecord) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.records = append(f.records, *rec)
    return nil
}

// --- FacilityStore / UserDirectory ---

type fakeFacilities struct{ *fakeStore }

func (f fakeFacilities) GetByID(_ context.Context, id uint64) (*model.Facility, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    fac, ok := f.facilities[id]
    if !ok {
        return nil, errors.New("facility not found")
    }
    cp := *fac
    return &cp, nil
}

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.users[id]
    if !ok {
        return model.User{}, errors.New("user not found")
    }
    return u, nil
}

func (f fakeUsers) ListByRole(_ context.Context, role string) ([]model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []model.User
    for id := uint64(1); id <= f.nextID+100; id++ {
        if u, ok := f.users[id]; ok && u.Role == role && u.IsActive {
            out = append(out, u)
        }
    }
    return out, nil
}

func (f fakeUsers) FirstByRole(ctx context.Context, role string) (model.User, error) {
    all, err := f.ListByRole(ctx, role)
    if err != nil || len(all) == 0 {
        return model.User{}, errors.New("no user of role " + role)
    }
    return all[0], nil
}

// newTestEngine wires an engine over a fresh fake store. Facility 30 and
// 31 are MDRR-designated; events are captured in store.events.
func newTestEngine() (*Engine, *fakeStore) {
    s := newFakeStore()
    e := &Engine{
        Reservations:  fakeReservations{s},
        Approvals:     fakeApprovals{s},
        Notifications: fakeNotifications{s},
        Audit:         fakeAudit{s},
        Facilities:    fakeFacilities{s},
        Users:         fakeUsers{s},
        Routes:        NewRouteConfig([]uint64{30, 31}),
        Checker:       NewConflictChecker(fakeReservations{s}),
        Clock:         func() time.Time { return testBase },
        Publish: func(_ context.Context, ev queue.ReservationEvent) error {
            s.mu.Lock()
            defer s.mu.Unlock()
            if s.publishErr != nil {
                return s.publishErr
            }
            s.events = append(s.events, ev)
            return nil
        },
    }
    return e, s
}

// freeBooking is a valid booking draft for the free admin-routed facility.
func freeBooking() BookingInput {
    return BookingInput{
        FacilityID:  1,
        UserID:      7,
        BookerName:  "Pat Booker",
        BookerEmail: "booker@example.com",
        BookerPhone: "0900",
        StartTime:   testBase.Add(24 * time.Hour),
        EndTime:     testBase.Add(26 * time.Hour),
    }
}

// pricedBooking is a valid booking draft for the priced facility.
func pricedBooking() BookingInput {
    receipt := "https://cdn.example.com/receipts/42.jpg"
    in := freeBooking()
    in.FacilityID = 2
    in.ReceiptImageURL = &receipt
    return in
}
