package consumer

import (
	"context"

	"msgrelay/internal/broker"
	"msgrelay/internal/display"
	"msgrelay/internal/logger"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/models"
)

// Handler reports every envelope that arrives on the subscribed topic.
type Handler struct {
	sink   *display.Sink
	logger logger.Logger
}

func NewHandler(sink *display.Sink, log logger.Logger) *Handler {
	return &Handler{
		sink:   sink,
		logger: log,
	}
}

// Handle logs the delivery position and envelope fields, then prints the
// envelope block. It never fails, so the consumer always commits.
func (h *Handler) Handle(ctx context.Context, msg models.Envelope, d broker.Delivery) error {
	metrics.IncConsumed(d.Topic, d.Partition)

	h.logger.InfowCtx(ctx, "Message received",
		"topic", d.Topic,
		"partition", d.Partition,
		"offset", d.Offset,
		"id", msg.ID,
		"content", msg.Content,
		"sender", msg.Sender,
		"timestamp", msg.Timestamp.String(),
	)

	h.sink.Block(msg)
	return nil
}

// Run subscribes to topic and blocks until ctx is canceled or the consumer stops.
func Run(ctx context.Context, c broker.Consumer, topic string, h *Handler) error {
	return c.Consume(ctx, topic, h.Handle)
}
