package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"verifyx/pkg/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanOracleFace, tracer.String("k", "v"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Bool("flag", true))
	span.AddEvent(tracer.EventRetry, tracer.Int64(tracer.AttrAttempt, 2))
	span.End(errors.New("boom"))
}

func TestOTelTracerWithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel("verifyx/test", tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanChainRead,
		tracer.String(tracer.AttrChainMethod, "hasDID"),
		tracer.Float64(tracer.AttrConfidence, 0.9),
	)
	require.NotNil(t, span)
	span.End(nil)
}

func TestDurationAttributeIsMilliseconds(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, "latency", attr.Key)
	assert.Equal(t, int64(150), attr.Value)
}
