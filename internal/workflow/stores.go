package workflow

import (
	"context"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// The engine talks to persistence through the narrow interfaces below.
// internal/repository provides the MySQL implementations; tests substitute
// in-memory fakes.

// ReservationStore persists reservations and their per-role read markers.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// CountOverlapping returns the number of pending or approved
	// reservations of the facility whose interval intersects
	// [start, end). excludeID, when non-zero, leaves that reservation out
	// of the count.
	CountOverlapping(ctx context.Context, facilityID uint64, start, end time.Time, excludeID uint64) (int, error)
	// UpdateStatusFrom moves the reservation from one status to another
	// and stamps the acting user. It reports false when the row was not in
	// the expected prior status, which guards against concurrent actors.
	UpdateStatusFrom(ctx context.Context, id uint64, from, to string, actionBy uint64, role string, at time.Time, reason *string) (bool, error)
	// MarkRead records that a role has acknowledged the reservation.
	// Acknowledging twice is a no-op.
	MarkRead(ctx context.Context, id uint64, role string) error
	// ListApprovedEndedBefore returns approved reservations whose end time
	// has passed, for the completion sweep.
	ListApprovedEndedBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
}

// ApprovalStore persists payment pre-approvals for priced facilities.
type ApprovalStore interface {
	Create(ctx context.Context, a *model.PaymentApproval) error
	GetByID(ctx context.Context, id uint64) (*model.PaymentApproval, error)
	// ClaimDecision moves a pending approval to the given terminal status
	// and stamps the actor. It reports false when the approval was already
	// decided, making the decision exactly-once.
	ClaimDecision(ctx context.Context, id uint64, status string, actionBy uint64, at time.Time) (bool, error)
	// SetPromotedReservation binds the approval to the reservation created
	// by its promotion and clears any promotion-conflict flag.
	SetPromotedReservation(ctx context.Context, id, reservationID uint64) error
	// FlagPromotionConflict marks an approved approval whose promotion hit
	// a new interval conflict and now needs admin attention.
	FlagPromotionConflict(ctx context.Context, id uint64) error
	// ClaimConflictRetry atomically clears the conflict flag of an
	// unpromoted approval so exactly one retry proceeds. It reports false
	// when the approval is not in the conflicted state.
	ClaimConflictRetry(ctx context.Context, id uint64) (bool, error)
}

// NotificationStore appends notification rows. Insert failures are the
// caller's concern; the engine logs and skips them per message.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// AuditStore appends transaction records. Rows are never mutated.
type AuditStore interface {
	Append(ctx context.Context, rec *model.TransactionRecord) error
}

// FacilityStore resolves facilities; the workflow reads them only.
type FacilityStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Facility, error)
}

// UserDirectory resolves recipients for the notification fan-out.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	// FirstByRole returns the active user of the role with the lowest id,
	// used as the fallback designated reviewer for promoted bookings.
	FirstByRole(ctx context.Context, role string) (model.User, error)
}
