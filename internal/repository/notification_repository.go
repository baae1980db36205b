package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/venue-reservation/internal/model"
)

// NotificationRepo persists per-recipient notification rows. Rows are
// created only by the workflow fan-out and removed only by their
// recipient.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a repo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts one notification row and populates its generated ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications
		(user_id, recipient_role, message, action_type, related_type, related_id, is_read)
		VALUES (?, ?, ?, ?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, q,
		n.UserID, n.RecipientRole, n.Message, n.ActionType, n.RelatedType, n.RelatedID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns a recipient's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT id, user_id, recipient_role, message, action_type, related_type, related_id, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.RecipientRole, &n.Message, &n.ActionType,
			&n.RelatedType, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications of a recipient.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	return n, err
}

// MarkRead flags one notification as read. The user_id guard enforces
// recipient ownership; ErrNotificationNotFound covers both a missing row
// and someone else's row. Marking an already-read row again is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ? AND is_read = 0`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Nothing updated: distinguish "already read" from "not yours/missing".
	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Delete removes one notification on explicit recipient action.
func (r *NotificationRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotificationNotFound)
}

func oneRowOr(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
