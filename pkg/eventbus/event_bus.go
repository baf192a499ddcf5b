// Package eventbus provides event publishing and subscription for document
// change notifications.
package eventbus

import (
	"context"

	"github.com/landdiv/landflow/pkg/events"
)

// Event is anything routable by its event type.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes a single decoded event.
type EventHandler func(ctx context.Context, event any) error

// EventBus is the change-notification contract between the store layer and
// the engine worker.
type EventBus interface {
	Publish(ctx context.Context, key string, event Event) error
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
	GenerateID() string
	Close() error
}
