package model

import "time"

// Reservation records a user's booking of a facility for a half-open time
// interval [StartTime, EndTime). Booker contact details are snapshotted at
// creation time and never re-derived, so a later profile change does not
// rewrite history. The acting approver's identity and timestamp are stamped
// on every status change.
//
// Fields:
//  ID                 – primary key identifier.
//  FacilityID         – facility being reserved.
//  UserID             – user who made the booking.
//  BookerName         – contact snapshot captured at creation.
//  BookerEmail        – contact snapshot captured at creation.
//  BookerPhone        – contact snapshot captured at creation.
//  StartTime          – interval start (UTC, inclusive).
//  EndTime            – interval end (UTC, exclusive; after StartTime).
//  Purpose            – optional free text.
//  Attendees          – optional head count (nullable; never above capacity).
//  SpecialRequests    – optional free text.
//  ReceiptImageURL    – stored receipt URL; set only for priced facilities.
//  Status             – pending, approved, declined, cancelled or completed.
//  CancellationReason – populated only when Status is cancelled.
//  ActionBy           – id of the actor who last changed Status (nullable).
//  ActionByRole       – role of that actor (nullable).
//  ActionAt           – when Status last changed (nullable).
//  CreatedAt          – creation timestamp.
type Reservation struct {
    ID                 uint64     // reservations.id
    FacilityID         uint64     // reservations.facility_id
    UserID             uint64     // reservations.user_id
    BookerName         string     // reservations.booker_name
    BookerEmail        string     // reservations.booker_email
    BookerPhone        string     // reservations.booker_phone
    StartTime          time.Time  // reservations.start_time
    EndTime            time.Time  // reservations.end_time
    Purpose            *string    // reservations.purpose (nullable)
    Attendees          *uint32    // reservations.attendees (nullable)
    SpecialRequests    *string    // reservations.special_requests (nullable)
    ReceiptImageURL    *string    // reservations.receipt_image_url (nullable)
    Status             string     // reservations.status
    CancellationReason *string    // reservations.cancellation_reason (nullable)
    ActionBy           *uint64    // reservations.action_by (nullable)
    ActionByRole       *string    // reservations.action_by_role (nullable)
    ActionAt           *time.Time // reservations.action_at (nullable)
    CreatedAt          time.Time  // reservations.created_at
}

// PaymentApproval is the pre-reservation gate for priced facilities. It
// carries the same booking fields as a Reservation and is mutated only by
// payment collectors. Once approved it is promoted into a real Reservation
// exactly once; PromotedReservationID guards against a second promotion and
// PromotionConflict flags an approval whose promotion hit a new interval
// conflict and now needs explicit admin attention.
type PaymentApproval struct {
    ID                    uint64     // payment_approvals.id
    FacilityID            uint64     // payment_approvals.facility_id
    UserID                uint64     // payment_approvals.user_id
    BookerName            string     // payment_approvals.booker_name
    BookerEmail           string     // payment_approvals.booker_email
    BookerPhone           string     // payment_approvals.booker_phone
    StartTime             time.Time  // payment_approvals.start_time
    EndTime               time.Time  // payment_approvals.end_time
    Purpose               *string    // payment_approvals.purpose (nullable)
    Attendees             *uint32    // payment_approvals.attendees (nullable)
    SpecialRequests       *string    // payment_approvals.special_requests (nullable)
    ReceiptImageURL       *string    // payment_approvals.receipt_image_url (nullable)
    Status                string     // payment_approvals.status
    PromotedReservationID *uint64    // payment_approvals.promoted_reservation_id (nullable)
    PromotionConflict     bool       // payment_approvals.promotion_conflict
    ActionBy              *uint64    // payment_approvals.action_by (nullable)
    ActionAt              *time.Time // payment_approvals.action_at (nullable)
    CreatedAt             time.Time  // payment_approvals.created_at
}
