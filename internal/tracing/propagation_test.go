package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestMiddlewareCarriesTraceparentToKafkaHeaders(t *testing.T) {
	InstallPropagator()

	var carrier map[string]string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		carrier = Carrier(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req.Header.Set(TraceparentHeader, traceparent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, traceparent, carrier[TraceparentHeader])

	ctx := ContextFromCarrier(context.Background(), carrier)
	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("order.placed")}})
	assert.Contains(t, headers, kafka.Header{Key: TraceparentHeader, Value: []byte(traceparent)})

	sc := trace.SpanContextFromContext(ExtractKafkaHeaders(context.Background(), headers))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
	assert.True(t, sc.IsRemote())
}

func TestCarrierWithoutTraceIsEmpty(t *testing.T) {
	InstallPropagator()

	assert.Empty(t, Carrier(context.Background()))
	ctx := context.Background()
	assert.Equal(t, ctx, ContextFromCarrier(ctx, nil))
	assert.Len(t, InjectKafkaHeaders(ctx, nil), 0)
}
