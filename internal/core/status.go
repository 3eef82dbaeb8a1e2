package core

import (
	"fmt"
	"strings"
)

// transitions lists the allowed next states for each status. Rejected,
// Completed and Cancelled are terminal.
var transitions = map[RequisitionStatus][]RequisitionStatus{
	StatusPending:    {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a requisition may move from one status to another.
func CanTransition(from, to RequisitionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s RequisitionStatus) []RequisitionStatus {
	return append([]RequisitionStatus(nil), transitions[s]...)
}

// IsTerminal reports whether no further transition is possible.
func (s RequisitionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ParseStatus matches a status name case-insensitively. "in_progress" and
// "in-progress" are accepted for "In Progress".
func ParseStatus(s string) (RequisitionStatus, error) {
	key := NormalizeHeader(s)
	for _, st := range AllStatuses {
		if NormalizeHeader(string(st)) == key {
			return st, nil
		}
	}
	return "", invalidField("status", fmt.Sprintf("unknown status %q", strings.TrimSpace(s)), s)
}

// ParsePurchaseType matches a purchase type case-insensitively.
func ParsePurchaseType(s string) (PurchaseType, bool) {
	s = strings.TrimSpace(s)
	for _, pt := range PurchaseTypes {
		if strings.EqualFold(string(pt), s) {
			return pt, true
		}
	}
	return "", false
}

// ParseComponentKind matches a component kind case-insensitively.
func ParseComponentKind(s string) (ComponentKind, error) {
	s = strings.TrimSpace(s)
	for _, k := range ComponentKinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
