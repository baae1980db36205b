package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

// ApprovalResult is the outcome of a payment-approval decision.
// Reservation is set when the approval was promoted. PromotionConflict is
// set when the decision committed as approved but promotion hit a new
// interval conflict; the approval then stays approved and unpromoted until
// an admin retries or declines it out of band.
type ApprovalResult struct {
	Approval          *model.PaymentApproval
	Reservation       *model.Reservation
	PromotionConflict bool
	Warnings          []string
}

// DecideApproval is the payment collector's disposition of a pre-approval.
// Approving promotes it: the conflict check runs a second, authoritative
// time (the slot may have been taken since submission) and, when clear, a
// new Reservation is created in pending and routed onward. The decision is
// exactly-once; a second call returns ErrAlreadyDecided.
func (e *Engine) DecideApproval(ctx context.Context, approvalID uint64, approve bool, actor Actor) (*ApprovalResult, error) {
	if actor.Role != model.RolePaymentCollector {
		return nil, &InvalidTransitionError{
			From:   StatusPending,
			To:     decisionStatus(approve),
			Reason: fmt.Sprintf("role %s cannot decide payment approvals", actor.Role),
		}
	}
	now := e.now()

	appr, err := e.Approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("load payment approval %d: %w", approvalID, err)
	}
	fac, err := e.Facilities.GetByID(ctx, appr.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %d: %w", appr.FacilityID, err)
	}

	to := decisionStatus(approve)
	claimed, err := e.Approvals.ClaimDecision(ctx, appr.ID, to, actor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("decide payment approval %d: %w", appr.ID, err)
	}
	if !claimed {
		return nil, ErrAlreadyDecided
	}
	appr.Status = to
	appr.ActionBy = &actor.ID
	appr.ActionAt = &now

	res := &ApprovalResult{Approval: appr}
	var fx sideEffects

	if !approve {
		tag := actionTag("payment_approval", StatusDeclined)
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        appr.UserID,
			RecipientRole: model.RoleUser,
			Message:       fmt.Sprintf("Your reservation for %s has been declined.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedPaymentApproval,
			RelatedID:     appr.ID,
		})
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        actor.ID,
			RecipientRole: actor.Role,
			Message:       fmt.Sprintf("You have declined the payment for %s.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedPaymentApproval,
			RelatedID:     appr.ID,
		})
		e.notifyCollectors(ctx, &fx,
			fmt.Sprintf("Reservation for %s has been declined by the collector.", fac.Name),
			tag, model.RelatedPaymentApproval, appr.ID)
		fx.record = e.approvalRecord(appr, fac, actor, tag, StatusDeclined)
		fx.event = e.approvalEvent(appr, fac, actor, tag, StatusDeclined, now)
		res.Warnings = e.run(ctx, fx)
		return res, nil
	}

	// Promotion: second, authoritative conflict check before the real
	// reservation is created.
	conflict, err := e.Checker.HasOverlap(ctx, appr.FacilityID, appr.StartTime, appr.EndTime, 0)
	if err != nil {
		log.Printf("workflow: promotion conflict check failed (approval=%d): %v", appr.ID, err)
		conflict = true // fail closed
	}
	if conflict {
		return e.markPromotionConflict(ctx, res, appr, fac, actor, now)
	}
	return e.promote(ctx, res, appr, fac, actor, now)
}

// promote creates the pending reservation for an approved payment approval
// and binds it, then fans out the approval notifications, including the
// designated admin review request.
func (e *Engine) promote(ctx context.Context, res *ApprovalResult, appr *model.PaymentApproval, fac *model.Facility, actor Actor, now time.Time) (*ApprovalResult, error) {
	rsv := &model.Reservation{
		FacilityID:      appr.FacilityID,
		UserID:          appr.UserID,
		BookerName:      appr.BookerName,
		BookerEmail:     appr.BookerEmail,
		BookerPhone:     appr.BookerPhone,
		StartTime:       appr.StartTime,
		EndTime:         appr.EndTime,
		Purpose:         appr.Purpose,
		Attendees:       appr.Attendees,
		SpecialRequests: appr.SpecialRequests,
		ReceiptImageURL: appr.ReceiptImageURL,
		Status:          StatusPending,
	}
	if err := e.Reservations.Create(ctx, rsv); err != nil {
		e.flagFailedPromotion(ctx, appr)
		return nil, fmt.Errorf("create promoted reservation: %w", err)
	}
	if err := e.Approvals.SetPromotedReservation(ctx, appr.ID, rsv.ID); err != nil {
		e.flagFailedPromotion(ctx, appr)
		return nil, fmt.Errorf("bind promotion of approval %d: %w", appr.ID, err)
	}
	appr.PromotedReservationID = &rsv.ID
	appr.PromotionConflict = false
	res.Reservation = rsv

	tag := actionTag("payment_approval", StatusApproved)
	var fx sideEffects
	fx.notifications = append(fx.notifications, model.Notification{
		UserID:        appr.UserID,
		RecipientRole: model.RoleUser,
		Message:       fmt.Sprintf("Your payment for %s has been approved. Your reservation is awaiting final approval.", fac.Name),
		ActionType:    tag,
		RelatedType:   model.RelatedReservation,
		RelatedID:     rsv.ID,
	})
	fx.notifications = append(fx.notifications, model.Notification{
		UserID:        actor.ID,
		RecipientRole: actor.Role,
		Message:       fmt.Sprintf("You have approved the payment for %s.", fac.Name),
		ActionType:    tag,
		RelatedType:   model.RelatedPaymentApproval,
		RelatedID:     appr.ID,
	})
	e.notifyCollectors(ctx, &fx,
		fmt.Sprintf("Reservation for %s has been approved by the collector.", fac.Name),
		tag, model.RelatedPaymentApproval, appr.ID)
	if reviewer, err := e.reviewerID(ctx); err != nil {
		log.Printf("workflow: %v", err)
	} else {
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        reviewer,
			RecipientRole: model.RoleAdmin,
			Message:       fmt.Sprintf("A promoted booking for %s awaits your review.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedReservation,
			RelatedID:     rsv.ID,
		})
	}
	fx.record = e.approvalRecord(appr, fac, actor, tag, StatusApproved)
	fx.record.Details = snapshot(fac.Name, rsv.ID, appr.ID, appr.StartTime, appr.EndTime)
	fx.event = e.approvalEvent(appr, fac, actor, tag, StatusApproved, now)
	res.Warnings = e.run(ctx, fx)
	return res, nil
}

// markPromotionConflict records that an approved approval could not be
// promoted because the slot was taken in the meantime. The approval stays
// approved and flagged; the admin conflict queue picks it up.
func (e *Engine) markPromotionConflict(ctx context.Context, res *ApprovalResult, appr *model.PaymentApproval, fac *model.Facility, actor Actor, now time.Time) (*ApprovalResult, error) {
	if err := e.Approvals.FlagPromotionConflict(ctx, appr.ID); err != nil {
		return nil, fmt.Errorf("flag promotion conflict on approval %d: %w", appr.ID, err)
	}
	appr.PromotionConflict = true
	res.PromotionConflict = true

	tag := "payment_approval_promotion_conflict"
	var fx sideEffects
	fx.notifications = append(fx.notifications, model.Notification{
		UserID:        appr.UserID,
		RecipientRole: model.RoleUser,
		Message:       fmt.Sprintf("Your payment for %s was approved, but the requested slot is no longer available. An administrator will contact you.", fac.Name),
		ActionType:    tag,
		RelatedType:   model.RelatedPaymentApproval,
		RelatedID:     appr.ID,
	})
	if reviewer, err := e.reviewerID(ctx); err != nil {
		log.Printf("workflow: %v", err)
	} else {
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        reviewer,
			RecipientRole: model.RoleAdmin,
			Message:       fmt.Sprintf("An approved payment for %s could not be promoted: the slot is now taken.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedPaymentApproval,
			RelatedID:     appr.ID,
		})
	}
	fx.record = e.approvalRecord(appr, fac, actor, tag, StatusApproved)
	fx.event = e.approvalEvent(appr, fac, actor, tag, StatusApproved, now)
	res.Warnings = e.run(ctx, fx)
	return res, nil
}

// flagFailedPromotion marks an approval whose promotion broke after the
// decision committed, so the admin conflict queue surfaces it instead of
// the booking stalling approved and unbound.
func (e *Engine) flagFailedPromotion(ctx context.Context, appr *model.PaymentApproval) {
	if err := e.Approvals.FlagPromotionConflict(ctx, appr.ID); err != nil {
		log.Printf("workflow: flag failed promotion of approval %d: %v", appr.ID, err)
		return
	}
	appr.PromotionConflict = true
}

// RetryPromotion re-attempts the promotion of a conflicted approval once
// an admin has resolved the overlap. Exactly one retry proceeds at a time;
// a renewed conflict re-flags the approval and returns ErrSlotConflict.
func (e *Engine) RetryPromotion(ctx context.Context, approvalID uint64, actor Actor) (*ApprovalResult, error) {
	if actor.Role != model.RoleAdmin {
		return nil, &InvalidTransitionError{
			From:   StatusApproved,
			To:     StatusPending,
			Reason: fmt.Sprintf("role %s cannot retry promotions", actor.Role),
		}
	}
	now := e.now()

	appr, err := e.Approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("load payment approval %d: %w", approvalID, err)
	}
	fac, err := e.Facilities.GetByID(ctx, appr.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %d: %w", appr.FacilityID, err)
	}

	claimed, err := e.Approvals.ClaimConflictRetry(ctx, appr.ID)
	if err != nil {
		return nil, fmt.Errorf("claim retry of approval %d: %w", appr.ID, err)
	}
	if !claimed {
		return nil, ErrAlreadyDecided
	}
	appr.PromotionConflict = false

	res := &ApprovalResult{Approval: appr}
	conflict, err := e.Checker.HasOverlap(ctx, appr.FacilityID, appr.StartTime, appr.EndTime, 0)
	if err != nil {
		log.Printf("workflow: retry conflict check failed (approval=%d): %v", appr.ID, err)
		conflict = true
	}
	if conflict {
		if _, err := e.markPromotionConflict(ctx, res, appr, fac, actor, now); err != nil {
			return nil, err
		}
		return res, ErrSlotConflict
	}
	return e.promote(ctx, res, appr, fac, actor, now)
}

func decisionStatus(approve bool) string {
	if approve {
		return StatusApproved
	}
	return StatusDeclined
}

func (e *Engine) approvalRecord(appr *model.PaymentApproval, fac *model.Facility, actor Actor, action, status string) *model.TransactionRecord {
	return &model.TransactionRecord{
		UserID:       appr.UserID,
		FacilityID:   fac.ID,
		Action:       action,
		ActionBy:     actor.ID,
		ActionByRole: actor.Role,
		TargetUserID: appr.UserID,
		Status:       status,
		Details:      snapshot(fac.Name, 0, appr.ID, appr.StartTime, appr.EndTime),
	}
}

func (e *Engine) approvalEvent(appr *model.PaymentApproval, fac *model.Facility, actor Actor, action, status string, now time.Time) *queue.ReservationEvent {
	return &queue.ReservationEvent{
		Entity:       model.RelatedPaymentApproval,
		EntityID:     appr.ID,
		ActionType:   action,
		Status:       status,
		FacilityID:   fac.ID,
		FacilityName: fac.Name,
		UserID:       appr.UserID,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		StartsAt:     appr.StartTime.Format(time.RFC3339),
		EndsAt:       appr.EndTime.Format(time.RFC3339),
		OccurredAt:   now.Format(time.RFC3339),
	}
}
