// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationEvent is published after every committed workflow state
// change. It carries enough information for downstream consumers (the
// change feed, analytics, the reconciliation job) to act without querying
// the primary database.
type ReservationEvent struct {
	Entity       string `json:"entity"` // "reservation" or "payment_approval"
	EntityID     uint64 `json:"entity_id"`
	ActionType   string `json:"action_type"` // e.g. "reservation_approved"
	Status       string `json:"status"`
	FacilityID   uint64 `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	UserID       uint64 `json:"user_id"` // booker
	ActorID      uint64 `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	OccurredAt   string `json:"occurred_at"`
}
