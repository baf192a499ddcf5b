package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/landdiv/landflow/pkg/approval"
	"github.com/landdiv/landflow/pkg/authz"
	"github.com/landdiv/landflow/pkg/engine"
	"github.com/landdiv/landflow/pkg/eventbus"
	"github.com/landdiv/landflow/pkg/events"
	"github.com/landdiv/landflow/pkg/notify"
	"github.com/landdiv/landflow/pkg/otelhelper"
	"github.com/landdiv/landflow/pkg/records"
	"github.com/landdiv/landflow/pkg/store"
)

// EngineManager subscribes the advancement engine and the approval intake to
// the change channel. Application changes drive advancement; approval
// creations drive decision application.
type EngineManager struct {
	id       string
	logger   *slog.Logger
	store    store.Store
	eventBus eventbus.EventBus
	engine   *engine.Engine
	intake   *approval.Intake
	tracer   trace.Tracer
}

func NewEngineManager(id string, s store.Store, eventBus eventbus.EventBus, logger *slog.Logger) *EngineManager {
	managerLogger := logger.With("module", "landflow-engine", "worker_id", id)

	applications := records.NewApplications(s, eventBus, managerLogger)
	approvals := records.NewApprovals(s, eventBus, managerLogger)
	notifier := notify.NewLogNotifier(managerLogger)
	policy := authz.NewTablePolicy()

	return &EngineManager{
		id:       id,
		logger:   managerLogger,
		store:    s,
		eventBus: eventBus,
		engine:   engine.NewEngine(applications, notifier, managerLogger),
		intake:   approval.NewIntake(applications, approvals, policy, managerLogger),
	}
}

func (m *EngineManager) Start(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting engine manager")

	tracer, err := otelhelper.NewTracer(ctx, "landflow-engine")
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		m.tracer = tracer
	}

	err = m.eventBus.Handle(events.ApplicationChangedEvent, m.handleApplicationChanged)
	if err != nil {
		return err
	}

	err = m.eventBus.Handle(events.ApprovalCreatedEvent, m.handleApprovalCreated)
	if err != nil {
		return err
	}

	err = m.eventBus.Subscribe(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	m.logger.InfoContext(ctx, "Engine worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	m.logger.InfoContext(ctx, "Shutting down engine worker...")

	return nil
}

func (m *EngineManager) handleApplicationChanged(ctx context.Context, event any) error {
	changedEvent, ok := event.(*events.ApplicationChanged)
	if !ok {
		m.logger.ErrorContext(ctx, "Invalid event type for ApplicationChanged")

		return nil
	}

	if m.tracer != nil {
		attrs := []attribute.KeyValue{
			attribute.String(otelhelper.ApplicationIDKey, changedEvent.ApplicationID),
			attribute.String(otelhelper.EventIDKey, changedEvent.ID),
			attribute.String(otelhelper.EventTypeKey, string(changedEvent.Type)),
			attribute.String(otelhelper.WorkerIDKey, m.id),
		}

		if changedEvent.After != nil {
			if step, ok := changedEvent.After.CurrentStep(); ok {
				attrs = append(attrs,
					attribute.String(otelhelper.StepNodeKey, step.Node),
					attribute.String(otelhelper.StepTypeKey, string(step.Type)),
				)
			}
		}

		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, m.tracer, "handleApplicationChanged", attrs...)
		defer span.End()
	}

	m.logger.InfoContext(ctx, "Processing application change",
		"application_id", changedEvent.ApplicationID,
		"event_id", changedEvent.ID,
	)

	m.engine.ProcessChange(ctx, changedEvent.ApplicationID, changedEvent.Before, changedEvent.After)

	return nil
}

func (m *EngineManager) handleApprovalCreated(ctx context.Context, event any) error {
	createdEvent, ok := event.(*events.ApprovalCreated)
	if !ok {
		m.logger.ErrorContext(ctx, "Invalid event type for ApprovalCreated")

		return nil
	}

	if m.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, m.tracer, "handleApprovalCreated",
			attribute.String(otelhelper.ApprovalIDKey, createdEvent.ApprovalID),
			attribute.String(otelhelper.EventIDKey, createdEvent.ID),
			attribute.String(otelhelper.EventTypeKey, string(createdEvent.Type)),
			attribute.String(otelhelper.WorkerIDKey, m.id),
		)
		defer span.End()
	}

	logger := m.logger.With(
		"approval_id", createdEvent.ApprovalID,
		"event_id", createdEvent.ID,
	)
	logger.InfoContext(ctx, "Processing approval")

	err := m.intake.Apply(ctx, createdEvent.Approval)
	if err != nil {
		otelhelper.SetError(trace.SpanFromContext(ctx), err,
			attribute.String(otelhelper.ApprovalIDKey, createdEvent.ApprovalID),
		)

		// Unauthorized and not-found decisions are final; redelivery
		// would produce the same outcome.
		if approval.IsUnauthorized(err) || approval.IsNotFound(err) {
			logger.ErrorContext(ctx, "Rejected approval", "error", err)

			return nil
		}

		logger.ErrorContext(ctx, "Failed to apply approval", "error", err)

		return err
	}

	return nil
}
