package model

import "fmt"

// Sprint lifecycle: draft → payment_pending → active → completed,
// cancelled reachable from any pre-completed state. completed and
// cancelled are terminal.
const (
	StatusDraft          = "draft"
	StatusPaymentPending = "payment_pending"
	StatusActive         = "active"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

var ErrInvalidTransition = fmt.Errorf("invalid sprint status transition")

var nextStatuses = map[string][]string{
	StatusDraft:          {StatusPaymentPending, StatusCancelled},
	StatusPaymentPending: {StatusActive, StatusCancelled},
	StatusActive:         {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func IsStatus(s string) bool {
	_, ok := nextStatuses[s]
	return ok
}

func CanTransition(from, to string) bool {
	for _, s := range nextStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates a status change instead of silently mutating state.
func Transition(from, to string) (string, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}
