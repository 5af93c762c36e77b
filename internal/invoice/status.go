package invoice

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

var allStatuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

// transitions lists the targets reachable from each non-final state, excluding the
// implicit self transition. A nil entry means "any state".
var transitions = map[Status][]Status{
	StatusDraft:   nil,
	StatusSent:    {StatusPaid, StatusCancelled, StatusOverdue},
	StatusOverdue: {StatusPaid, StatusCancelled},
}

// Statuses returns every status in canonical order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a case-insensitive name into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown invoice status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further transition is permitted out of s.
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	return CanTransition(s, target)
}

func (s Status) String() string {
	return string(s)
}

// CanTransition is the pure transition table. A state may always move to itself;
// final states may move nowhere else.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if from.IsFinal() {
		return false
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	if allowed == nil {
		return true
	}
	for _, st := range allowed {
		if st == to {
			return true
		}
	}
	return false
}
