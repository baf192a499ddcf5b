// Package events defines the change-notification events that drive the
// workflow core. Every committed document write is mirrored onto the bus;
// the engine worker consumes these the way the handlers originally consumed
// database triggers.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/landdiv/landflow/pkg/models"
)

type EventType string

// Topic carries all document change events.
const Topic = "landflow.changes"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// ApplicationChangedEvent fires after every write to an application
	// record, creation included (Before is nil for creations).
	ApplicationChangedEvent EventType = "application.changed"

	// ApprovalCreatedEvent fires once when an approval record is stored.
	ApprovalCreatedEvent EventType = "approval.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ApplicationChanged carries the before and after states of one committed
// application write, matching the trigger contract the engine expects.
type ApplicationChanged struct {
	BaseEvent

	ApplicationID string                    `json:"application_id"`
	Before        *models.ApplicationRecord `json:"before,omitempty"`
	After         *models.ApplicationRecord `json:"after"`
}

func (e ApplicationChanged) GetType() EventType {
	return ApplicationChangedEvent
}

// ApprovalCreated announces a newly stored, immutable approval decision.
type ApprovalCreated struct {
	BaseEvent

	ApprovalID string                 `json:"approval_id"`
	Approval   *models.ApprovalRecord `json:"approval"`
}

func (e ApprovalCreated) GetType() EventType {
	return ApprovalCreatedEvent
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}
