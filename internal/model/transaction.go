package model

import "time"

// TransactionRecord is one row of the append-only audit log. Every
// state-changing workflow action appends exactly one record; rows are never
// updated or deleted. Details holds a JSON snapshot taken as of the action
// (reservation id, facility name, interval) so the record stays accurate
// even if facility data changes later.
type TransactionRecord struct {
    ID           uint64    // transactions.id
    UserID       uint64    // transactions.user_id (subject of the action)
    FacilityID   uint64    // transactions.facility_id
    Action       string    // transactions.action (e.g. "reservation_approved")
    ActionBy     uint64    // transactions.action_by (acting user)
    ActionByRole string    // transactions.action_by_role
    TargetUserID uint64    // transactions.target_user_id
    Status       string    // transactions.status
    Details      string    // transactions.details (JSON snapshot)
    CreatedAt    time.Time // transactions.created_at
}
