// Package workflow implements the reservation lifecycle: booking intake,
// the approval state machine, route selection between the approver roles,
// and the notification/audit fan-out that follows every transition.
package workflow

// Reservation statuses. A reservation starts in pending and can only move
// along the edges listed in transitions below; declined, cancelled and
// completed are terminal. Payment approvals reuse pending/approved/declined.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// transitions is the legal edge set of the reservation state machine. A
// status absent from the map is terminal. No edge ever targets pending.
var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusDeclined},
	StatusApproved: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether moving from one status to another is a
// legal edge of the state machine.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from the
// given status.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}

// ValidStatus reports whether s is a known reservation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
