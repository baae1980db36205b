package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

// Transition moves a reservation to a new status on behalf of an actor.
// The edge must be legal per the state machine and the actor must match
// the reservation's approval route: the general admin acts on admin-routed
// (and promoted) reservations, MDRR staff only on reservations of an
// MDRR-designated facility, the booker may cancel their own approved
// booking, and the system actor performs the completion sweep. Cancelling
// requires a reason.
//
// The status write commits first; notifications, the audit record and the
// broker event follow best-effort and surface in TransitionResult.Warnings
// when they fail.
func (e *Engine) Transition(ctx context.Context, reservationID uint64, to string, actor Actor, reason string) (*TransitionResult, error) {
	now := e.now()

	rsv, err := e.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("load reservation %d: %w", reservationID, err)
	}
	fac, err := e.Facilities.GetByID(ctx, rsv.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %d: %w", rsv.FacilityID, err)
	}
	route := e.Routes.RouteForReservation(fac.ID)

	if !ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", to)}
	}
	if !CanTransition(rsv.Status, to) {
		return nil, &InvalidTransitionError{From: rsv.Status, To: to}
	}
	if err := authorizeTransition(rsv, route, actor, to); err != nil {
		return nil, err
	}

	var reasonPtr *string
	if to == StatusCancelled {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, &ValidationError{Field: "reason", Reason: "required when cancelling"}
		}
		reasonPtr = &reason
	}

	ok, err := e.Reservations.UpdateStatusFrom(ctx, rsv.ID, rsv.Status, to, actor.ID, actor.Role, now, reasonPtr)
	if err != nil {
		return nil, fmt.Errorf("update reservation %d: %w", rsv.ID, err)
	}
	if !ok {
		// Another actor raced us and the row left the expected status.
		return nil, &InvalidTransitionError{From: rsv.Status, To: to, Reason: "reservation was updated concurrently"}
	}

	// Acting on an item acknowledges it for the acting role.
	if model.StaffRole(actor.Role) {
		if err := e.Reservations.MarkRead(ctx, rsv.ID, actor.Role); err != nil {
			log.Printf("workflow: mark read failed (reservation=%d role=%s): %v", rsv.ID, actor.Role, err)
		}
	}

	rsv.Status = to
	rsv.ActionBy = &actor.ID
	rsv.ActionByRole = &actor.Role
	rsv.ActionAt = &now
	rsv.CancellationReason = reasonPtr

	fx := e.transitionEffects(ctx, rsv, fac, route, actor, to, now)
	return &TransitionResult{Reservation: rsv, Warnings: e.run(ctx, fx)}, nil
}

// authorizeTransition checks the actor against the reservation's route.
func authorizeTransition(rsv *model.Reservation, route Route, actor Actor, to string) error {
	if to == StatusCompleted {
		if actor.Role != model.RoleSystem {
			return &InvalidTransitionError{From: rsv.Status, To: to, Reason: "completion is performed by the scheduled sweep"}
		}
		return nil
	}
	if actor.Role == model.RoleSystem {
		return &InvalidTransitionError{From: rsv.Status, To: to, Reason: "system actor may only complete reservations"}
	}
	if to == StatusCancelled && actor.Role == model.RoleUser && actor.ID == rsv.UserID {
		return nil // bookers may cancel their own booking
	}
	if actor.Role != route.Role() {
		return &InvalidTransitionError{
			From:   rsv.Status,
			To:     to,
			Reason: fmt.Sprintf("role %s cannot act on a %s-routed reservation", actor.Role, route),
		}
	}
	return nil
}

// transitionEffects assembles the fan-out for a committed reservation
// transition: the booker always hears about it, the actor gets a
// confirmation, and terminal transitions on the admin route additionally
// reach every payment collector. The MDRR route has no extra fan-out.
func (e *Engine) transitionEffects(ctx context.Context, rsv *model.Reservation, fac *model.Facility, route Route, actor Actor, to string, now time.Time) sideEffects {
	tag := actionTag("reservation", to)
	var fx sideEffects

	fx.notifications = append(fx.notifications, model.Notification{
		UserID:        rsv.UserID,
		RecipientRole: model.RoleUser,
		Message:       fmt.Sprintf("Your reservation for %s has been %s.", fac.Name, to),
		ActionType:    tag,
		RelatedType:   model.RelatedReservation,
		RelatedID:     rsv.ID,
	})
	if actor.Role != model.RoleSystem && actor.ID != rsv.UserID {
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        actor.ID,
			RecipientRole: actor.Role,
			Message:       fmt.Sprintf("You have %s the reservation for %s.", to, fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedReservation,
			RelatedID:     rsv.ID,
		})
	}
	if route == RouteAdmin && terminalOutcome(to) {
		e.notifyCollectors(ctx, &fx,
			fmt.Sprintf("Reservation for %s has been %s by the admin.", fac.Name, to),
			tag, model.RelatedReservation, rsv.ID)
	}

	fx.record = &model.TransactionRecord{
		UserID:       rsv.UserID,
		FacilityID:   fac.ID,
		Action:       tag,
		ActionBy:     actor.ID,
		ActionByRole: actor.Role,
		TargetUserID: rsv.UserID,
		Status:       to,
		Details:      snapshot(fac.Name, rsv.ID, 0, rsv.StartTime, rsv.EndTime),
	}
	fx.event = &queue.ReservationEvent{
		Entity:       model.RelatedReservation,
		EntityID:     rsv.ID,
		ActionType:   tag,
		Status:       to,
		FacilityID:   fac.ID,
		FacilityName: fac.Name,
		UserID:       rsv.UserID,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		StartsAt:     rsv.StartTime.Format(time.RFC3339),
		EndsAt:       rsv.EndTime.Format(time.RFC3339),
		OccurredAt:   now.Format(time.RFC3339),
	}
	return fx
}

// terminalOutcome reports whether the status is one of the dispositions
// that trigger the payment-collector fan-out.
func terminalOutcome(status string) bool {
	return status == StatusApproved || status == StatusDeclined || status == StatusCancelled
}

// CompleteExpired transitions every approved reservation whose end time
// has passed to completed, acting as the system sweeper. It returns the
// number of reservations completed; individual failures are logged and do
// not stop the sweep.
func (e *Engine) CompleteExpired(ctx context.Context) (int, error) {
	expired, err := e.Reservations.ListApprovedEndedBefore(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("list expired reservations: %w", err)
	}
	done := 0
	for _, rsv := range expired {
		if _, err := e.Transition(ctx, rsv.ID, StatusCompleted, Actor{Role: model.RoleSystem}, ""); err != nil {
			log.Printf("workflow: sweep of reservation %d failed: %v", rsv.ID, err)
			continue
		}
		done++
	}
	return done, nil
}
