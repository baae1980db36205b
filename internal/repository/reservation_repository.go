package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// per-role read markers. Role acknowledgements are a set of rows in the
// reservation_reads table rather than flag columns, so "has this role seen
// this booking" is a plain existence check. All timestamp fields are
// stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, facility_id, user_id, booker_name, booker_email, booker_phone,
	start_time, end_time, purpose, attendees, special_requests, receipt_image_url,
	status, cancellation_reason, action_by, action_by_role, action_at, created_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var rsv model.Reservation
	var purpose, special, receipt, reason, actionRole sql.NullString
	var attendees, actionBy sql.NullInt64
	var actionAt sql.NullTime
	err := row.Scan(
		&rsv.ID, &rsv.FacilityID, &rsv.UserID, &rsv.BookerName, &rsv.BookerEmail, &rsv.BookerPhone,
		&rsv.StartTime, &rsv.EndTime, &purpose, &attendees, &special, &receipt,
		&rsv.Status, &reason, &actionBy, &actionRole, &actionAt, &rsv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purpose.Valid {
		rsv.Purpose = &purpose.String
	}
	if attendees.Valid {
		v := uint32(attendees.Int64)
		rsv.Attendees = &v
	}
	if special.Valid {
		rsv.SpecialRequests = &special.String
	}
	if receipt.Valid {
		rsv.ReceiptImageURL = &receipt.String
	}
	if reason.Valid {
		rsv.CancellationReason = &reason.String
	}
	if actionBy.Valid {
		v := uint64(actionBy.Int64)
		rsv.ActionBy = &v
	}
	if actionRole.Valid {
		rsv.ActionByRole = &actionRole.String
	}
	if actionAt.Valid {
		t := actionAt.Time
		rsv.ActionAt = &t
	}
	return &rsv, nil
}

// Create inserts a new reservation and populates its generated ID and
// creation timestamp on the provided record.
func (r *ReservationRepo) Create(ctx context.Context, rsv *model.Reservation) error {
	const q = `INSERT INTO reservations
		(facility_id, user_id, booker_name, booker_email, booker_phone, start_time, end_time,
		 purpose, attendees, special_requests, receipt_image_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rsv.FacilityID, rsv.UserID, rsv.BookerName, rsv.BookerEmail, rsv.BookerPhone,
		rsv.StartTime.UTC(), rsv.EndTime.UTC(),
		rsv.Purpose, rsv.Attendees, rsv.SpecialRequests, rsv.ReceiptImageURL, rsv.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rsv.ID = uint64(id)
	// Query back the creation timestamp to populate the default.
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM reservations WHERE id = ?`, rsv.ID).Scan(&rsv.CreatedAt)
}

// GetByID loads one reservation. Returns ErrReservationNotFound when no
// row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	rsv, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return rsv, err
}

// CountOverlapping counts pending or approved reservations of the facility
// whose half-open interval intersects [start, end). The overlap predicate
// is start < existing.end AND end > existing.start. excludeID, when
// non-zero, removes one reservation from consideration.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, facilityID uint64, start, end time.Time, excludeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
		WHERE facility_id = ?
		  AND status IN ('pending', 'approved')
		  AND start_time < ?
		  AND end_time > ?
		  AND id <> ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, facilityID, end.UTC(), start.UTC(), excludeID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// BusyWindow is an occupied interval of a facility, used by the public
// availability view. Only the window is exposed, never the booker.
type BusyWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// ListBusyWindows returns the pending and approved intervals of a facility
// that intersect [from, to), ordered by start time.
func (r *ReservationRepo) ListBusyWindows(ctx context.Context, facilityID uint64, from, to time.Time) ([]BusyWindow, error) {
	const q = `SELECT start_time, end_time, status FROM reservations
		WHERE facility_id = ?
		  AND status IN ('pending', 'approved')
		  AND start_time < ?
		  AND end_time > ?
		ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, facilityID, to.UTC(), from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BusyWindow
	for rows.Next() {
		var w BusyWindow
		var s, e time.Time
		if err := rows.Scan(&s, &e, &w.Status); err != nil {
			return nil, err
		}
		w.StartTime = s.UTC().Format(time.RFC3339)
		w.EndTime = e.UTC().Format(time.RFC3339)
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateStatusFrom moves a reservation from one status to another and
// stamps the actor. The WHERE clause on the prior status makes the update
// a compare-and-set: it reports false when another actor already moved the
// row, leaving the database untouched. A nil reason preserves the existing
// cancellation_reason.
func (r *ReservationRepo) UpdateStatusFrom(ctx context.Context, id uint64, from, to string, actionBy uint64, role string, at time.Time, reason *string) (bool, error) {
	const q = `UPDATE reservations
		SET status = ?, action_by = ?, action_by_role = ?, action_at = ?,
		    cancellation_reason = COALESCE(?, cancellation_reason)
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, actionBy, role, at.UTC(), reason, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkRead records that a role has acknowledged the reservation.
// INSERT IGNORE makes repeated acknowledgements a no-op.
func (r *ReservationRepo) MarkRead(ctx context.Context, id uint64, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO reservation_reads (reservation_id, role) VALUES (?, ?)`, id, role)
	return err
}

// ListApprovedEndedBefore returns approved reservations whose end time has
// passed, oldest first, for the completion sweep.
func (r *ReservationRepo) ListApprovedEndedBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = 'approved' AND end_time <= ? ORDER BY end_time`
	rows, err := r.db.QueryContext(ctx, q, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rsv)
	}
	return out, rows.Err()
}

// ReservationDetail is a reservation joined with its facility for list
// views. Unread reflects whether the requesting role has acknowledged the
// row; it is meaningful only on role-scoped listings.
type ReservationDetail struct {
	ID                 uint64  `json:"id"`
	FacilityID         uint64  `json:"facility_id"`
	FacilityName       string  `json:"facility_name"`
	UserID             uint64  `json:"user_id"`
	BookerName         string  `json:"booker_name"`
	BookerEmail        string  `json:"booker_email"`
	BookerPhone        string  `json:"booker_phone"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	Purpose            *string `json:"purpose,omitempty"`
	Attendees          *uint32 `json:"attendees,omitempty"`
	SpecialRequests    *string `json:"special_requests,omitempty"`
	ReceiptImageURL    *string `json:"receipt_image_url,omitempty"`
	Status             string  `json:"status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	Unread             bool    `json:"unread"`
	CreatedAt          string  `json:"created_at"`
}

// ListFilter narrows role-scoped reservation listings.
type ListFilter struct {
	Status             string   // empty means any status
	UserID             uint64   // non-zero restricts to one booker
	FacilityIDs        []uint64 // non-empty restricts to these facilities
	ExcludeFacilityIDs []uint64 // non-empty removes these facilities
}

// ListDetails returns reservations joined with facility names, newest
// first. role, when non-empty, drives the Unread marker via the
// reservation_reads table.
func (r *ReservationRepo) ListDetails(ctx context.Context, role string, f ListFilter) ([]ReservationDetail, error) {
	query := `SELECT r.id, r.facility_id, fc.name, r.user_id, r.booker_name, r.booker_email, r.booker_phone,
		r.start_time, r.end_time, r.purpose, r.attendees, r.special_requests, r.receipt_image_url,
		r.status, r.cancellation_reason, r.created_at,
		CASE WHEN rr.role IS NULL THEN 1 ELSE 0 END
		FROM reservations r
		JOIN facilities fc ON fc.id = r.facility_id
		LEFT JOIN reservation_reads rr ON rr.reservation_id = r.id AND rr.role = ?`
	args := []any{role}
	var conds []string
	if f.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.UserID != 0 {
		conds = append(conds, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	if len(f.FacilityIDs) > 0 {
		conds = append(conds, "r.facility_id IN ("+placeholders(len(f.FacilityIDs))+")")
		for _, id := range f.FacilityIDs {
			args = append(args, id)
		}
	}
	if len(f.ExcludeFacilityIDs) > 0 {
		conds = append(conds, "r.facility_id NOT IN ("+placeholders(len(f.ExcludeFacilityIDs))+")")
		for _, id := range f.ExcludeFacilityIDs {
			args = append(args, id)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var start, end, created time.Time
		var purpose, special, receipt, reason sql.NullString
		var attendees sql.NullInt64
		var unread int
		if err := rows.Scan(
			&d.ID, &d.FacilityID, &d.FacilityName, &d.UserID, &d.BookerName, &d.BookerEmail, &d.BookerPhone,
			&start, &end, &purpose, &attendees, &special, &receipt,
			&d.Status, &reason, &created, &unread,
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
		if special.Valid {
			d.SpecialRequests = &special.String
		}
		if receipt.Valid {
			d.ReceiptImageURL = &receipt.String
		}
		if reason.Valid {
			d.CancellationReason = &reason.String
		}
		d.Unread = unread == 1
		details = append(details, d)
	}
	return details, rows.Err()
}

// placeholders returns n comma-separated "?" marks for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
