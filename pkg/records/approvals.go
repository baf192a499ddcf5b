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

// Approvals is the repository for approval records. Approvals are immutable
// once stored; creation publishes an ApprovalCreated event which the engine
// worker consumes to act on the decision.
type Approvals struct {
	store  store.Store
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewApprovals(s store.Store, bus eventbus.EventBus, logger *slog.Logger) *Approvals {
	return &Approvals{
		store:  s,
		bus:    bus,
		logger: logger.With("module", "records"),
	}
}

func (r *Approvals) Get(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	var record models.ApprovalRecord

	err := r.store.Get(ctx, store.CollectionApprovals, id, &record)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *Approvals) List(ctx context.Context, opts store.ListOptions) ([]*models.ApprovalRecord, error) {
	var out []*models.ApprovalRecord

	err := r.store.List(ctx, store.CollectionApprovals, opts, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Approvals) Create(ctx context.Context, record *models.ApprovalRecord) (string, error) {
	id, err := r.store.Create(ctx, store.CollectionApprovals, record)
	if err != nil {
		return "", fmt.Errorf("failed to create approval: %w", err)
	}

	record.ID = id

	event := events.ApprovalCreated{
		BaseEvent:  events.NewBaseEvent(events.ApprovalCreatedEvent),
		ApprovalID: id,
		Approval:   record,
	}

	err = r.bus.Publish(ctx, id, event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish approval creation", "approval_id", id, "error", err)
	}

	return id, nil
}
