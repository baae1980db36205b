package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

// BookingInput is a booking draft as submitted by an end user. Contact
// fields are snapshotted onto the created record. ReceiptImageURL must
// reference an already uploaded receipt when the facility is priced; the
// upload itself is a prerequisite handled by the storage collaborator.
type BookingInput struct {
	FacilityID      uint64
	UserID          uint64
	BookerName      string
	BookerEmail     string
	BookerPhone     string
	StartTime       time.Time
	EndTime         time.Time
	Purpose         *string
	Attendees       *uint32
	SpecialRequests *string
	ReceiptImageURL *string
}

// BookingResult reports what intake created. Exactly one of Reservation
// and Approval is set: priced facilities produce a payment pre-approval,
// free ones a reservation directly in pending.
type BookingResult struct {
	Reservation  *model.Reservation
	Approval     *model.PaymentApproval
	Route        Route
	EstimatedFee decimal.Decimal
	Warnings     []string
}

// CreateBooking validates a booking draft, runs the conflict check and
// creates either a Reservation (free facility) or a PaymentApproval
// (priced facility) in pending. Once it returns successfully the slot is
// taken for any sequential caller; true concurrent races are resolved by
// the approver at decision time.
func (e *Engine) CreateBooking(ctx context.Context, in BookingInput) (*BookingResult, error) {
	now := e.now()

	fac, err := e.Facilities.GetByID(ctx, in.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("load facility %d: %w", in.FacilityID, err)
	}
	if !fac.IsActive {
		return nil, &ValidationError{Field: "facility_id", Reason: "facility is not accepting bookings"}
	}
	if err := validateBooking(fac, in, now); err != nil {
		return nil, err
	}

	conflict, err := e.Checker.HasOverlap(ctx, fac.ID, in.StartTime, in.EndTime, 0)
	if err != nil {
		// Fail closed: a failed check blocks the booking.
		return nil, fmt.Errorf("%w: %s", ErrSlotConflict, err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}

	res := &BookingResult{
		Route:        e.Routes.RouteFor(fac, false),
		EstimatedFee: estimateFee(fac, in.StartTime, in.EndTime),
	}

	var fx sideEffects
	if fac.Priced() {
		appr := &model.PaymentApproval{
			FacilityID:      fac.ID,
			UserID:          in.UserID,
			BookerName:      in.BookerName,
			BookerEmail:     in.BookerEmail,
			BookerPhone:     in.BookerPhone,
			StartTime:       in.StartTime.UTC(),
			EndTime:         in.EndTime.UTC(),
			Purpose:         in.Purpose,
			Attendees:       in.Attendees,
			SpecialRequests: in.SpecialRequests,
			ReceiptImageURL: in.ReceiptImageURL,
			Status:          StatusPending,
		}
		if err := e.Approvals.Create(ctx, appr); err != nil {
			return nil, fmt.Errorf("create payment approval: %w", err)
		}
		res.Approval = appr
		tag := actionTag("payment_approval", StatusPending)
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        in.UserID,
			RecipientRole: model.RoleUser,
			Message:       fmt.Sprintf("Your booking for %s is awaiting payment verification.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedPaymentApproval,
			RelatedID:     appr.ID,
		})
		e.notifyCollectors(ctx, &fx,
			fmt.Sprintf("A new booking for %s awaits payment verification.", fac.Name),
			tag, model.RelatedPaymentApproval, appr.ID)
		fx.record = &model.TransactionRecord{
			UserID:       in.UserID,
			FacilityID:   fac.ID,
			Action:       "payment_approval_created",
			ActionBy:     in.UserID,
			ActionByRole: model.RoleUser,
			TargetUserID: in.UserID,
			Status:       StatusPending,
			Details:      snapshot(fac.Name, 0, appr.ID, appr.StartTime, appr.EndTime),
		}
		fx.event = &queue.ReservationEvent{
			Entity:       model.RelatedPaymentApproval,
			EntityID:     appr.ID,
			ActionType:   tag,
			Status:       StatusPending,
			FacilityID:   fac.ID,
			FacilityName: fac.Name,
			UserID:       in.UserID,
			ActorID:      in.UserID,
			ActorRole:    model.RoleUser,
			StartsAt:     appr.StartTime.Format(time.RFC3339),
			EndsAt:       appr.EndTime.Format(time.RFC3339),
			OccurredAt:   now.Format(time.RFC3339),
		}
	} else {
		rsv := &model.Reservation{
			FacilityID:      fac.ID,
			UserID:          in.UserID,
			BookerName:      in.BookerName,
			BookerEmail:     in.BookerEmail,
			BookerPhone:     in.BookerPhone,
			StartTime:       in.StartTime.UTC(),
			EndTime:         in.EndTime.UTC(),
			Purpose:         in.Purpose,
			Attendees:       in.Attendees,
			SpecialRequests: in.SpecialRequests,
			Status:          StatusPending,
		}
		if err := e.Reservations.Create(ctx, rsv); err != nil {
			return nil, fmt.Errorf("create reservation: %w", err)
		}
		res.Reservation = rsv
		tag := actionTag("reservation", StatusPending)
		fx.notifications = append(fx.notifications, model.Notification{
			UserID:        in.UserID,
			RecipientRole: model.RoleUser,
			Message:       fmt.Sprintf("Your reservation request for %s has been submitted.", fac.Name),
			ActionType:    tag,
			RelatedType:   model.RelatedReservation,
			RelatedID:     rsv.ID,
		})
		fx.record = &model.TransactionRecord{
			UserID:       in.UserID,
			FacilityID:   fac.ID,
			Action:       "reservation_created",
			ActionBy:     in.UserID,
			ActionByRole: model.RoleUser,
			TargetUserID: in.UserID,
			Status:       StatusPending,
			Details:      snapshot(fac.Name, rsv.ID, 0, rsv.StartTime, rsv.EndTime),
		}
		fx.event = &queue.ReservationEvent{
			Entity:       model.RelatedReservation,
			EntityID:     rsv.ID,
			ActionType:   tag,
			Status:       StatusPending,
			FacilityID:   fac.ID,
			FacilityName: fac.Name,
			UserID:       in.UserID,
			ActorID:      in.UserID,
			ActorRole:    model.RoleUser,
			StartsAt:     rsv.StartTime.Format(time.RFC3339),
			EndsAt:       rsv.EndTime.Format(time.RFC3339),
			OccurredAt:   now.Format(time.RFC3339),
		}
	}

	res.Warnings = e.run(ctx, fx)
	return res, nil
}

// validateBooking enforces the intake preconditions. Errors name the
// failing field so the caller can correct the input.
func validateBooking(fac *model.Facility, in BookingInput, now time.Time) error {
	if strings.TrimSpace(in.BookerName) == "" {
		return &ValidationError{Field: "booker_name", Reason: "required"}
	}
	if strings.TrimSpace(in.BookerEmail) == "" {
		return &ValidationError{Field: "booker_email", Reason: "required"}
	}
	if !in.StartTime.Before(in.EndTime) {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	if !in.StartTime.After(now) {
		return &ValidationError{Field: "start_time", Reason: "must be in the future"}
	}
	if in.Attendees != nil && *in.Attendees > fac.Capacity {
		return &ValidationError{
			Field:  "attendees",
			Reason: fmt.Sprintf("exceeds facility capacity of %d", fac.Capacity),
		}
	}
	if fac.Priced() && (in.ReceiptImageURL == nil || strings.TrimSpace(*in.ReceiptImageURL) == "") {
		return &ValidationError{Field: "receipt_image_url", Reason: "required for a priced facility"}
	}
	return nil
}

// estimateFee computes the quoted cost of the interval: hours times the
// facility's hourly rate, rounded to two decimal places.
func estimateFee(fac *model.Facility, start, end time.Time) decimal.Decimal {
	hours := decimal.NewFromFloat(end.Sub(start).Hours())
	return fac.PricePerHour.Mul(hours).Round(2)
}

// IsValidation reports whether err is a booking validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
