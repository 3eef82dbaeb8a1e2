package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventAction names what happened to a requisition.
type EventAction string

const (
	ActionCreated       EventAction = "created"
	ActionItemsAdded    EventAction = "items_added"
	ActionStatusChanged EventAction = "status_changed"
	ActionDuplicated    EventAction = "duplicated"
)

// RequisitionEvent is one timeline entry.
type RequisitionEvent struct {
	ID            uuid.UUID         `json:"id"`
	RequisitionID uuid.UUID         `json:"requisitionId"`
	Action        EventAction       `json:"action"`
	FromStatus    RequisitionStatus `json:"fromStatus,omitempty"`
	ToStatus      RequisitionStatus `json:"toStatus,omitempty"`
	ActorID       string            `json:"actorId,omitempty"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// newEvent stamps an event with an id, the acting user and the time.
func newEvent(ctx context.Context, reqID uuid.UUID, action EventAction) RequisitionEvent {
	return RequisitionEvent{
		ID:            uuid.New(),
		RequisitionID: reqID,
		Action:        action,
		ActorID:       actorID(ctx),
		CreatedAt:     time.Now().UTC(),
	}
}
