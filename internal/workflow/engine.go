package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

// Actor identifies the user performing a workflow operation, as extracted
// from the access token (or RoleSystem for the completion sweep).
type Actor struct {
	ID   uint64
	Role string
}

// Engine coordinates the reservation lifecycle: intake, transitions,
// promotion of payment approvals and the side-effect fan-out. The state
// write of every operation commits first; notification, audit and event
// writes follow best-effort and are reported as warnings, never rolled
// back.
type Engine struct {
	Reservations  ReservationStore
	Approvals     ApprovalStore
	Notifications NotificationStore
	Audit         AuditStore
	Facilities    FacilityStore
	Users         UserDirectory
	Routes        RouteConfig
	Checker       *ConflictChecker

	// AdminReviewerID, when non-zero, receives the review notification for
	// promoted bookings. Zero falls back to the lowest-id active admin.
	AdminReviewerID uint64

	// Publish sends a ReservationEvent to the broker. Nil disables event
	// publishing (tests, sweeper without a broker).
	Publish func(ctx context.Context, ev queue.ReservationEvent) error

	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

// TransitionResult is the outcome of a committed state change. Warnings
// lists side-effect failures (notification, audit or event writes) that
// occurred after the state write; the transition itself still succeeded.
type TransitionResult struct {
	Reservation *model.Reservation
	Warnings    []string
}

// auditDetails is the structured snapshot stored in transactions.details.
// It is captured as of the transition so records stay accurate even if the
// facility is later renamed.
type auditDetails struct {
	ReservationID uint64 `json:"reservation_id,omitempty"`
	ApprovalID    uint64 `json:"approval_id,omitempty"`
	FacilityName  string `json:"facility_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// sideEffects groups everything the engine emits after a committed write.
type sideEffects struct {
	notifications []model.Notification
	record        *model.TransactionRecord
	event         *queue.ReservationEvent
}

// run dispatches the side effects, collecting warnings instead of failing.
// A notification insert failure is logged and skipped so it cannot block
// sibling notifications; the same policy applies to the audit append and
// the broker publish.
func (e *Engine) run(ctx context.Context, fx sideEffects) []string {
	var warnings []string
	for i := range fx.notifications {
		n := fx.notifications[i]
		if err := e.Notifications.Create(ctx, &n); err != nil {
			log.Printf("workflow: notification insert failed (user=%d action=%s): %v", n.UserID, n.ActionType, err)
			warnings = append(warnings, fmt.Sprintf("notification to user %d not delivered", n.UserID))
		}
	}
	if fx.record != nil {
		if err := e.Audit.Append(ctx, fx.record); err != nil {
			log.Printf("workflow: audit append failed (action=%s): %v", fx.record.Action, err)
			warnings = append(warnings, "audit record not written")
		}
	}
	if fx.event != nil && e.Publish != nil {
		if err := e.Publish(ctx, *fx.event); err != nil {
			log.Printf("workflow: event publish failed (action=%s): %v", fx.event.ActionType, err)
			warnings = append(warnings, "event not published")
		}
	}
	return warnings
}

// notifyCollectors appends one notification per payment-collector user.
// Directory failures degrade to a logged warning; they never abort the
// remaining fan-out.
func (e *Engine) notifyCollectors(ctx context.Context, fx *sideEffects, message, actionType, relatedType string, relatedID uint64) {
	collectors, err := e.Users.ListByRole(ctx, model.RolePaymentCollector)
	if err != nil {
		log.Printf("workflow: listing payment collectors failed: %v", err)
		return
	}
	for _, u := range collectors {
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        u.ID,
			RecipientRole: model.RolePaymentCollector,
			Message:       message,
			ActionType:    actionType,
			RelatedType:   relatedType,
			RelatedID:     relatedID,
		})
	}
}

// reviewerID resolves the designated admin reviewer for promoted bookings.
func (e *Engine) reviewerID(ctx context.Context) (uint64, error) {
	if e.AdminReviewerID != 0 {
		return e.AdminReviewerID, nil
	}
	admin, err := e.Users.FirstByRole(ctx, model.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("resolve admin reviewer: %w", err)
	}
	return admin.ID, nil
}

// snapshot builds the audit details JSON for a booking interval.
func snapshot(facilityName string, reservationID, approvalID uint64, start, end time.Time) string {
	b, _ := json.Marshal(auditDetails{
		ReservationID: reservationID,
		ApprovalID:    approvalID,
		FacilityName:  facilityName,
		StartTime:     start.UTC().Format(time.RFC3339),
		EndTime:       end.UTC().Format(time.RFC3339),
	})
	return string(b)
}

// actionTag builds the action_type value, e.g. "reservation_approved".
func actionTag(entity, status string) string {
	return entity + "_" + status
}
