// Package engine implements workflow advancement for application records.
//
// The engine is invoked once per committed application write with the before
// and after states. It enforces the update-rate guard, short-circuits writes
// that did not move currentNode, and otherwise processes the step the record
// now points at. Its own writes re-enter it through the change channel; the
// guard is what keeps that loop bounded.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/notify"
	"github.com/landdiv/landflow/pkg/records"
	"github.com/landdiv/landflow/pkg/store"
)

// Circuit-breaker thresholds for self-triggered write loops. These are not
// business rules; they fail closed.
const (
	MaxUpdatesPerHour = 10
	MaxTotalUpdates   = 20
)

type Engine struct {
	applications *records.Applications
	notifier     notify.Notifier
	logger       *slog.Logger
	now          func() time.Time
}

func NewEngine(applications *records.Applications, notifier notify.Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		applications: applications,
		notifier:     notifier,
		logger:       logger.With("module", "engine"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the engine's time source. Tests use this to drive the
// rolling-hour guard window deterministically.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now

	return e
}

// ProcessChange handles one committed application write. Transition failures
// are absorbed into the record's error field and never returned: the
// triggering write already succeeded, so there is nothing for the caller to
// roll back.
func (e *Engine) ProcessChange(ctx context.Context, appID string, before, after *models.ApplicationRecord) {
	if after == nil {
		return
	}

	logger := e.logger.With("application_id", appID)
	now := e.now()

	// The guard runs before the no-op check so that payload-only writes
	// still count against the rate limit.
	counters := nextCounters(after.Updates, now)

	if len(counters.RecentUpdates) > MaxUpdatesPerHour {
		logger.ErrorContext(ctx, "Safety limit reached: too many updates per hour")
		e.tripGuard(ctx, appID, after, counters, models.StatusTooManyUpdates, "Too many updates per hour", now)

		return
	}

	if counters.Total > MaxTotalUpdates {
		logger.ErrorContext(ctx, "Safety limit reached: maximum total updates exceeded")
		e.tripGuard(ctx, appID, after, counters, models.StatusTotalUpdatesExceeded, "Maximum total updates exceeded", now)

		return
	}

	// Writes that did not move currentNode are re-processing noise. The
	// incremented counters are deliberately not persisted here; they only
	// stick to transition writes.
	if before != nil && before.CurrentNode == after.CurrentNode {
		return
	}

	step, ok := after.CurrentStep()
	if !ok {
		logger.ErrorContext(ctx, "Invalid workflow configuration", "current_node", after.CurrentNode, "workflow_length", len(after.Workflow))

		return
	}

	ops := []store.Op{
		store.Set("lastUpdated", now),
		store.Set("updates", counters),
		store.ArrayAppend("history", models.HistoryEntry{
			Node:      step.Node,
			Timestamp: now,
			Status:    models.HistoryStatusStarted,
		}),
	}

	switch step.Type {
	case models.StepTypeStart:
		ops = append(ops,
			store.Set("status", models.StatusSubmitted),
			store.Set("currentNode", after.CurrentNode+1),
		)
	case models.StepTypeApproval:
		ops = append(ops, store.Set("status", models.StatusForStep(step)))

		if step.ApproverEmail != "" {
			err := e.notifier.NotifyApprover(ctx, notify.Notification{
				ApplicationID: appID,
				Step:          step,
				Status:        models.StatusForStep(step),
			})
			if err != nil {
				logger.WarnContext(ctx, "Failed to notify approver", "approver", step.ApproverEmail, "error", err)
			}
		}
	case models.StepTypeAddress:
		ops = append(ops, store.Set("status", models.StatusPendingAddressValidation))
	case models.StepTypeEnd:
		ops = append(ops,
			store.Set("status", models.StatusComplete),
			store.Set("completedAt", now),
		)
	default:
		logger.WarnContext(ctx, "Unknown node type", "node", step.Node, "type", string(step.Type))
	}

	err := e.applications.Update(ctx, appID, ops)
	if err != nil {
		logger.ErrorContext(ctx, "Error processing workflow", "node", step.Node, "error", err)
		e.recordFailure(ctx, appID, err, e.now())

		return
	}

	logger.InfoContext(ctx, "Processed workflow node", "node", step.Node, "type", string(step.Type), "current_node", after.CurrentNode)
}

// nextCounters folds the current invocation into the stored counters:
// timestamps older than one hour fall out of the rolling window, the
// invocation time joins it, and the lifetime total increments.
func nextCounters(current *models.UpdateCounters, now time.Time) *models.UpdateCounters {
	counters := &models.UpdateCounters{
		RecentUpdates: []time.Time{},
		FirstUpdate:   now,
	}

	if current != nil {
		counters.Total = current.Total

		if !current.FirstUpdate.IsZero() {
			counters.FirstUpdate = current.FirstUpdate
		}

		cutoff := now.Add(-time.Hour)

		for _, t := range current.RecentUpdates {
			if t.After(cutoff) {
				counters.RecentUpdates = append(counters.RecentUpdates, t)
			}
		}
	}

	counters.RecentUpdates = append(counters.RecentUpdates, now)
	counters.Total++

	return counters
}

// tripGuard writes the terminal safety-limit state. When the record already
// carries the same tripped status the write is suppressed; the trip write
// itself re-enters the engine, and without suppression the guard would trip
// forever.
func (e *Engine) tripGuard(ctx context.Context, appID string, after *models.ApplicationRecord, counters *models.UpdateCounters, status, message string, now time.Time) {
	if after.Status == status && after.Error != nil && after.Error.Type == models.ErrorTypeSafetyLimit {
		return
	}

	ops := []store.Op{
		store.Set("status", status),
		store.Set("error", models.RecordError{
			Type:      models.ErrorTypeSafetyLimit,
			Message:   message,
			Timestamp: now,
		}),
		store.Set("updates", counters),
	}

	err := e.applications.Update(ctx, appID, ops)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record safety limit", "application_id", appID, "error", err)
	}
}

// recordFailure is the best-effort repair write after a failed transition.
func (e *Engine) recordFailure(ctx context.Context, appID string, cause error, now time.Time) {
	ops := []store.Op{
		store.Set("status", models.StatusProcessingError),
		store.Set("error", models.RecordError{
			Message:   cause.Error(),
			Timestamp: now,
		}),
	}

	err := e.applications.Update(ctx, appID, ops)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record processing error", "application_id", appID, "error", err)
	}
}
