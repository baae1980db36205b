package model

import "time"

// RelatedType values for Notification.RelatedType.
const (
    RelatedReservation     = "reservation"
    RelatedPaymentApproval = "payment_approval"
)

// Notification is a single-recipient message produced as a side effect of a
// workflow state transition. Rows are never created standalone and are
// removed only by explicit recipient action. Each row carries exactly one
// recipient and the role that recipient was addressed as, so the read flag
// is unambiguous per row.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – recipient of the message.
//  RecipientRole – role the recipient was notified as (e.g. PAYMENT_COLLECTOR).
//  Message       – rendered human-readable text.
//  ActionType    – tag naming the triggering transition, e.g. "reservation_approved".
//  RelatedType   – "reservation" or "payment_approval".
//  RelatedID     – id of the related reservation or payment approval.
//  IsRead        – whether the recipient has read the message.
//  CreatedAt     – creation timestamp.
type Notification struct {
    ID            uint64    // notifications.id
    UserID        uint64    // notifications.user_id
    RecipientRole string    // notifications.recipient_role
    Message       string    // notifications.message
    ActionType    string    // notifications.action_type
    RelatedType   string    // notifications.related_type
    RelatedID     uint64    // notifications.related_id
    IsRead        bool      // notifications.is_read
    CreatedAt     time.Time // notifications.created_at
}
