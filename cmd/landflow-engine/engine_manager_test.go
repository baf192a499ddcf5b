package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/landdiv/landflow/pkg/channels/gochannel"
	"github.com/landdiv/landflow/pkg/eventbus"
	"github.com/landdiv/landflow/pkg/events"
	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/store/file"
)

func setupTracedManager(t *testing.T) (*EngineManager, store.Store, *tracetest.SpanRecorder) {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	s := file.NewStore(t.TempDir())
	manager := NewEngineManager("worker-test", s, eventbus.NewWatermillEventBus(pub, sub), slog.Default())

	recorder := tracetest.NewSpanRecorder()
	manager.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	return manager, s, recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func TestEngineManager_ApplicationChangedSpanAttributes(t *testing.T) {
	manager, s, recorder := setupTracedManager(t)
	ctx := context.Background()

	app := models.NewApplicationRecord([]models.WorkflowStep{
		{Node: "Submission", Type: models.StepTypeStart},
		{Node: "Township Review", Type: models.StepTypeApproval, ApproverEmail: "township@example.com"},
		{Node: "Final Approval", Type: models.StepTypeEnd},
	}, nil)
	app.CurrentNode = 1
	app.Status = models.StatusForStep(app.Workflow[1])

	id, err := s.Create(ctx, store.CollectionApplications, app)
	require.NoError(t, err)

	app.ID = id

	event := &events.ApplicationChanged{
		BaseEvent:     events.NewBaseEvent(events.ApplicationChangedEvent),
		ApplicationID: id,
		After:         app,
	}

	err = manager.handleApplicationChanged(ctx, event)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "handleApplicationChanged", spans[0].Name())

	attrs := spans[0].Attributes()

	eventType, ok := attrValue(attrs, "landflow.event.type")
	require.True(t, ok)
	assert.Equal(t, string(events.ApplicationChangedEvent), eventType)

	stepNode, ok := attrValue(attrs, "landflow.step.node")
	require.True(t, ok)
	assert.Equal(t, "Township Review", stepNode)

	stepType, ok := attrValue(attrs, "landflow.step.type")
	require.True(t, ok)
	assert.Equal(t, string(models.StepTypeApproval), stepType)
}

func TestEngineManager_ApprovalCreatedSpanRecordsFailure(t *testing.T) {
	manager, _, recorder := setupTracedManager(t)

	event := &events.ApprovalCreated{
		BaseEvent:  events.NewBaseEvent(events.ApprovalCreatedEvent),
		ApprovalID: "appr-1",
		Approval: &models.ApprovalRecord{
			ID:            "appr-1",
			ApplicationID: "no-such-application",
			Action:        models.ActionApprove,
			ApproverEmail: "township@example.com",
		},
	}

	// Final rejections are not redelivered, so the handler reports success
	// while the span carries the failure.
	err := manager.handleApprovalCreated(context.Background(), event)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	eventType, ok := attrValue(spans[0].Attributes(), "landflow.event.type")
	require.True(t, ok)
	assert.Equal(t, string(events.ApprovalCreatedEvent), eventType)
}
