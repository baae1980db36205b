package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// PaymentApprovalRepo provides access to payment pre-approvals. The
// decision methods are written as compare-and-set updates so that each
// approval is decided, promoted and retried at most once even under
// concurrent collectors.
type PaymentApprovalRepo struct {
	db *sql.DB
}

// NewPaymentApprovalRepo returns a repo bound to the given database.
func NewPaymentApprovalRepo(db *sql.DB) *PaymentApprovalRepo { return &PaymentApprovalRepo{db: db} }

const approvalColumns = `id, facility_id, user_id, booker_name, booker_email, booker_phone,
	start_time, end_time, purpose, attendees, special_requests, receipt_image_url,
	status, promoted_reservation_id, promotion_conflict, action_by, action_at, created_at`

func scanApproval(row interface{ Scan(...any) error }) (*model.PaymentApproval, error) {
	var a model.PaymentApproval
	var purpose, special, receipt sql.NullString
	var attendees, promoted, actionBy sql.NullInt64
	var actionAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.FacilityID, &a.UserID, &a.BookerName, &a.BookerEmail, &a.BookerPhone,
		&a.StartTime, &a.EndTime, &purpose, &attendees, &special, &receipt,
		&a.Status, &promoted, &a.PromotionConflict, &actionBy, &actionAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purpose.Valid {
		a.Purpose = &purpose.String
	}
	if attendees.Valid {
		v := uint32(attendees.Int64)
		a.Attendees = &v
	}
	if special.Valid {
		a.SpecialRequests = &special.String
	}
	if receipt.Valid {
		a.ReceiptImageURL = &receipt.String
	}
	if promoted.Valid {
		v := uint64(promoted.Int64)
		a.PromotedReservationID = &v
	}
	if actionBy.Valid {
		v := uint64(actionBy.Int64)
		a.ActionBy = &v
	}
	if actionAt.Valid {
		t := actionAt.Time
		a.ActionAt = &t
	}
	return &a, nil
}

// Create inserts a new payment approval in pending and populates its
// generated ID and creation timestamp.
func (r *PaymentApprovalRepo) Create(ctx context.Context, a *model.PaymentApproval) error {
	const q = `INSERT INTO payment_approvals
		(facility_id, user_id, booker_name, booker_email, booker_phone, start_time, end_time,
		 purpose, attendees, special_requests, receipt_image_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		a.FacilityID, a.UserID, a.BookerName, a.BookerEmail, a.BookerPhone,
		a.StartTime.UTC(), a.EndTime.UTC(),
		a.Purpose, a.Attendees, a.SpecialRequests, a.ReceiptImageURL, a.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM payment_approvals WHERE id = ?`, a.ID).Scan(&a.CreatedAt)
}

// GetByID loads one approval. Returns ErrApprovalNotFound when no row
// matches.
func (r *PaymentApprovalRepo) GetByID(ctx context.Context, id uint64) (*model.PaymentApproval, error) {
	const q = `SELECT ` + approvalColumns + ` FROM payment_approvals WHERE id = ?`
	a, err := scanApproval(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApprovalNotFound
	}
	return a, err
}

// ClaimDecision moves a pending approval to approved or declined and
// stamps the actor. The status guard in the WHERE clause makes the
// decision exactly-once: it reports false when the approval already left
// pending.
func (r *PaymentApprovalRepo) ClaimDecision(ctx context.Context, id uint64, status string, actionBy uint64, at time.Time) (bool, error) {
	const q = `UPDATE payment_approvals
		SET status = ?, action_by = ?, action_at = ?
		WHERE id = ? AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, status, actionBy, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPromotedReservation binds an approval to the reservation created by
// its promotion and clears any conflict flag.
func (r *PaymentApprovalRepo) SetPromotedReservation(ctx context.Context, id, reservationID uint64) error {
	const q = `UPDATE payment_approvals
		SET promoted_reservation_id = ?, promotion_conflict = 0
		WHERE id = ? AND promoted_reservation_id IS NULL`
	_, err := r.db.ExecContext(ctx, q, reservationID, id)
	return err
}

// FlagPromotionConflict marks an approval whose promotion found the slot
// taken. The approval stays approved and unpromoted until an admin acts.
func (r *PaymentApprovalRepo) FlagPromotionConflict(ctx context.Context, id uint64) error {
	const q = `UPDATE payment_approvals
		SET promotion_conflict = 1
		WHERE id = ? AND promoted_reservation_id IS NULL`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ClaimConflictRetry atomically clears the conflict flag of an unpromoted
// approval so exactly one retry proceeds. Reports false when the approval
// is not in the conflicted state.
func (r *PaymentApprovalRepo) ClaimConflictRetry(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE payment_approvals
		SET promotion_conflict = 0
		WHERE id = ? AND promotion_conflict = 1 AND promoted_reservation_id IS NULL AND status = 'approved'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ApprovalDetail is an approval joined with its facility for collector and
// admin list views.
type ApprovalDetail struct {
	ID                    uint64  `json:"id"`
	FacilityID            uint64  `json:"facility_id"`
	FacilityName          string  `json:"facility_name"`
	UserID                uint64  `json:"user_id"`
	BookerName            string  `json:"booker_name"`
	BookerEmail           string  `json:"booker_email"`
	BookerPhone           string  `json:"booker_phone"`
	StartTime             string  `json:"start_time"`
	EndTime               string  `json:"end_time"`
	Purpose               *string `json:"purpose,omitempty"`
	Attendees             *uint32 `json:"attendees,omitempty"`
	ReceiptImageURL       *string `json:"receipt_image_url,omitempty"`
	Status                string  `json:"status"`
	PromotedReservationID *uint64 `json:"promoted_reservation_id,omitempty"`
	PromotionConflict     bool    `json:"promotion_conflict"`
	CreatedAt             string  `json:"created_at"`
}

// ApprovalFilter narrows approval listings. ConflictedOnly selects the
// orphaned-promotion queue regardless of the other fields.
type ApprovalFilter struct {
	Status         string // empty means any status
	UserID         uint64 // non-zero restricts to one booker
	ConflictedOnly bool
}

// ListDetails returns approvals joined with facility names, newest first.
func (r *PaymentApprovalRepo) ListDetails(ctx context.Context, f ApprovalFilter) ([]ApprovalDetail, error) {
	query := `SELECT a.id, a.facility_id, fc.name, a.user_id, a.booker_name, a.booker_email, a.booker_phone,
		a.start_time, a.end_time, a.purpose, a.attendees, a.receipt_image_url,
		a.status, a.promoted_reservation_id, a.promotion_conflict, a.created_at
		FROM payment_approvals a
		JOIN facilities fc ON fc.id = a.facility_id`
	var args []any
	var conds []string
	if f.ConflictedOnly {
		conds = append(conds, "a.promotion_conflict = 1", "a.promoted_reservation_id IS NULL")
	} else if f.Status != "" {
		conds = append(conds, "a.status = ?")
		args = append(args, f.Status)
	}
	if f.UserID != 0 {
		conds = append(conds, "a.user_id = ?")
		args = append(args, f.UserID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ApprovalDetail, 0)
	for rows.Next() {
		var d ApprovalDetail
		var start, end, created time.Time
		var purpose, receipt sql.NullString
		var attendees, promoted sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.FacilityID, &d.FacilityName, &d.UserID, &d.BookerName, &d.BookerEmail, &d.BookerPhone,
			&start, &end, &purpose, &attendees, &receipt,
			&d.Status, &promoted, &d.PromotionConflict, &created,
		); err != nil {
			return nil, err
		}
		d.StartTime = start.UTC().Format(time.RFC3339)
		d.EndTime = end.UTC().Format(time.RFC3339)
		d.CreatedAt = created.UTC().Format(time.RFC3339)
		if purpose.Valid {
			d.Purpose = &purpose.String
		}
		if attendees.Valid {
			v := uint32(attendees.Int64)
			d.Attendees = &v
		}
		if receipt.Valid {
			d.ReceiptImageURL = &receipt.String
		}
		if promoted.Valid {
			v := uint64(promoted.Int64)
			d.PromotedReservationID = &v
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
