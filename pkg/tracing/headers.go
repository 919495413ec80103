package tracing

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const relayTracerName = "msgrelay/broker"

// headerCarrier lets the global propagator read and write W3C trace context
// directly on a record's header list. Set replaces an existing key.
type headerCarrier []kafka.Header

func (h *headerCarrier) Get(key string) string {
	for _, hdr := range *h {
		if hdr.Key == key {
			return string(hdr.Value)
		}
	}
	return ""
}

func (h *headerCarrier) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*h))
	for _, hdr := range *h {
		keys = append(keys, hdr.Key)
	}
	return keys
}

// PublishHeaders returns the headers an outgoing envelope carries so the
// consumer span joins the trace of the request that published it. Empty when
// ctx has no span.
func PublishHeaders(ctx context.Context) []kafka.Header {
	carrier := headerCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	return carrier
}

// ContextFromHeaders resumes the trace recorded in a received record.
func ContextFromHeaders(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := headerCarrier(headers)
	return otel.GetTextMapPropagator().Extract(ctx, &carrier)
}

// StartConsumeSpan opens the consumer span for one delivered envelope.
func StartConsumeSpan(ctx context.Context, m kafka.Message, envelopeID string) (context.Context, trace.Span) {
	ctx = ContextFromHeaders(ctx, m.Headers)
	return GetTracer(relayTracerName).Start(ctx, "relay.consume "+m.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(m.Topic),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(m.Partition)),
			semconv.MessagingKafkaMessageOffset(int(m.Offset)),
			semconv.MessagingMessageID(envelopeID),
		),
	)
}
