package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// TransactionRepo appends to the audit log. The table is append-only:
// there are deliberately no update or delete methods here.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a repo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// Append inserts one audit record and populates its generated ID.
func (r *TransactionRepo) Append(ctx context.Context, rec *model.TransactionRecord) error {
	const q = `INSERT INTO transactions
		(user_id, facility_id, action, action_by, action_by_role, target_user_id, status, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rec.UserID, rec.FacilityID, rec.Action, rec.ActionBy, rec.ActionByRole,
		rec.TargetUserID, rec.Status, rec.Details)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ListRecent returns the newest audit records up to limit, for the admin
// traceability view.
func (r *TransactionRepo) ListRecent(ctx context.Context, limit int) ([]model.TransactionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, user_id, facility_id, action, action_by, action_by_role, target_user_id, status, details, created_at
		FROM transactions ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TransactionRecord, 0)
	for rows.Next() {
		var rec model.TransactionRecord
		var details sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FacilityID, &rec.Action, &rec.ActionBy,
			&rec.ActionByRole, &rec.TargetUserID, &rec.Status, &details, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Details = details.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
