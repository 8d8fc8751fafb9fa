package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_OTELTracing(t *testing.T) {
	provider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithSpanProcessor(tracetest.NewSpanRecorder()),
	)
	ctx, span := provider.Tracer("test").Start(context.Background(), "test-operation")
	defer span.End()

	fields := ContextFields(ctx)

	var hasTraceID, hasSpanID, sampled bool
	for _, f := range fields {
		switch f.Key {
		case "trace_id":
			hasTraceID = f.String != ""
		case "span_id":
			hasSpanID = f.String != ""
		case "trace_sampled":
			sampled = f.Integer == 1
		}
	}
	assert.True(t, hasTraceID, "trace_id missing")
	assert.True(t, hasSpanID, "span_id missing")
	assert.True(t, sampled, "trace_sampled missing")
}

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"valid", "req-42_a.b", "req-42_a.b"},
		{"empty dropped", "", ""},
		{"spaces dropped", "req 42", ""},
		{"too long dropped", strings.Repeat("a", maxIDLen+1), ""},
		{"invalid utf8 dropped", "\xff\xfe", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(context.Background(), tt.id)
			assert.Equal(t, tt.want, RequestIDFromContext(ctx))
		})
	}
}

func TestWithOperation_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithOperation(context.Background(), "") })
	assert.Panics(t, func() { WithOperation(context.Background(), "bad op") })
	assert.NotPanics(t, func() { WithOperation(context.Background(), "task.Create") })
}

func TestWithLogger_FromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
}
