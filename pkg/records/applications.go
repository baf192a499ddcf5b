// Package records provides typed repositories over the document store.
// Every committed write is mirrored onto the event bus so the engine worker
// observes application changes the same way the original trigger-driven
// handlers did.
package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/landdiv/landflow/pkg/eventbus"
	"github.com/landdiv/landflow/pkg/events"
	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/store"
)

// Applications is the repository for application records. Reads go straight
// to the store; writes additionally publish an ApplicationChanged event
// carrying the before and after states.
type Applications struct {
	store  store.Store
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewApplications(s store.Store, bus eventbus.EventBus, logger *slog.Logger) *Applications {
	return &Applications{
		store:  s,
		bus:    bus,
		logger: logger.With("module", "records"),
	}
}

func (r *Applications) Get(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	var record models.ApplicationRecord

	err := r.store.Get(ctx, store.CollectionApplications, id, &record)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *Applications) List(ctx context.Context, opts store.ListOptions) ([]*models.ApplicationRecord, error) {
	var out []*models.ApplicationRecord

	err := r.store.List(ctx, store.CollectionApplications, opts, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Create stores a new application record and publishes the creation as a
// change with a nil before state.
func (r *Applications) Create(ctx context.Context, record *models.ApplicationRecord) (string, error) {
	id, err := r.store.Create(ctx, store.CollectionApplications, record)
	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}

	record.ID = id

	r.publishChange(ctx, id, nil, record)

	return id, nil
}

// Update applies field operations to an application record, re-reads the
// committed state, and publishes the change.
func (r *Applications) Update(ctx context.Context, id string, ops []store.Op) error {
	before, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	err = r.store.Update(ctx, store.CollectionApplications, id, ops)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", id, err)
	}

	after, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.publishChange(ctx, id, before, after)

	return nil
}

func (r *Applications) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.CollectionApplications, id)
}

func (r *Applications) publishChange(ctx context.Context, id string, before, after *models.ApplicationRecord) {
	event := events.ApplicationChanged{
		BaseEvent:     events.NewBaseEvent(events.ApplicationChangedEvent),
		ApplicationID: id,
		Before:        before,
		After:         after,
	}

	err := r.bus.Publish(ctx, id, event)
	if err != nil {
		// The write already committed; the change notification is best
		// effort, matching trigger delivery semantics.
		r.logger.ErrorContext(ctx, "Failed to publish application change", "application_id", id, "error", err)
	}
}
