package otelhelper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/landdiv/landflow/pkg/otelhelper"
)

func recordedSpan(t *testing.T, record func(span trace.Span)) sdktrace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := tracer.Start(context.Background(), "applyApproval")
	record(span)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	return spans[0]
}

func TestSetError(t *testing.T) {
	span := recordedSpan(t, func(span trace.Span) {
		otelhelper.SetError(span, errors.New("approver mismatch"),
			attribute.String(otelhelper.ApprovalIDKey, "appr-1"),
		)
	})

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "approver mismatch", span.Status().Description)

	events := span.Events()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Attributes, attribute.String(otelhelper.ApprovalIDKey, "appr-1"))
}

func TestSetError_NilErrorIsIgnored(t *testing.T) {
	span := recordedSpan(t, func(span trace.Span) {
		otelhelper.SetError(span, nil)
	})

	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Empty(t, span.Events())
}
