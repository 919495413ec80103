package publisher

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"msgrelay/internal/broker"
	"msgrelay/internal/config"
	"msgrelay/internal/logger"
	"msgrelay/pkg/circuitbreaker"
	"msgrelay/pkg/errors"
	"msgrelay/pkg/logging"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/models"
)

const (
	statusSuccess  = "success"
	statusFailed   = "failed"
	statusRejected = "rejected"
)

type Option func(*Publisher)

// WithCircuitBreaker refuses sends while the breaker is open. Refusals are
// logged like any other publish failure.
func WithCircuitBreaker(cfg config.CircuitBreakerConfig) Option {
	return func(p *Publisher) {
		if !cfg.Enabled {
			return
		}
		cbConfig := circuitbreaker.DefaultConfig("publisher-" + p.topic)
		if cfg.MaxRequests > 0 {
			cbConfig.MaxRequests = cfg.MaxRequests
		}
		if cfg.Interval > 0 {
			cbConfig.Interval = cfg.Interval
		}
		if cfg.Timeout > 0 {
			cbConfig.Timeout = cfg.Timeout
		}
		if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
			cbConfig.ReadyToTrip = circuitbreaker.RatioTrip(cfg.MinRequests, cfg.FailureRatio)
		}
		cbConfig.OnStateChange = func(name string, from, to gobreaker.State) {
			p.logger.Warnw("Publisher circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}
		p.breaker = circuitbreaker.NewAsyncBreaker(cbConfig)
	}
}

// Publisher finalizes envelopes and dispatches them to a fixed topic without
// waiting for the channel to acknowledge them.
type Publisher struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
	breaker  *circuitbreaker.AsyncBreaker
}

func New(producer broker.Producer, topic string, log logger.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Topic() string {
	return p.topic
}

// Send assigns a fresh id and the current time when msg lacks them and hands
// it to the channel. It returns the envelope as dispatched. Publish outcomes
// are only logged.
func (p *Publisher) Send(ctx context.Context, msg models.Envelope) models.Envelope {
	if msg.ID == "" {
		msg.ID = models.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = models.Now()
	}

	// The completion runs after the request that triggered it may be gone, so
	// it keeps only the values it logs and never the caller's cancellation.
	logCtx := logging.WithMessageID(detach(ctx), msg.ID)

	p.logger.InfowCtx(logCtx, "Sending message",
		"topic", p.topic,
		"content", msg.Content,
		"sender", msg.Sender,
		"timestamp", msg.Timestamp.String(),
	)

	var report func(success bool)
	if p.breaker != nil {
		done, err := p.breaker.Allow()
		if err != nil {
			p.onRejected(logCtx, err)
			return msg
		}
		report = done
	}

	start := time.Now()
	p.producer.PublishAsync(ctx, p.topic, msg, func(d broker.Delivery, err error) {
		if report != nil {
			report(err == nil)
		}
		p.onComplete(logCtx, d, err, time.Since(start))
	})

	return msg
}

// SendContent publishes bare text as a new envelope stamped with the current time.
func (p *Publisher) SendContent(ctx context.Context, content string) models.Envelope {
	return p.Send(ctx, models.NewEnvelope(content))
}

func (p *Publisher) onComplete(ctx context.Context, d broker.Delivery, err error, elapsed time.Duration) {
	if err != nil {
		metrics.ObservePublish(p.topic, statusFailed, elapsed)
		p.logger.ErrorwCtx(ctx, "Failed to publish message",
			"topic", p.topic,
			"error", err,
		)
		return
	}

	metrics.ObservePublish(p.topic, statusSuccess, elapsed)
	p.logger.InfowCtx(ctx, "Message published",
		"topic", d.Topic,
		"partition", d.Partition,
		"offset", d.Offset,
	)
}

func (p *Publisher) onRejected(ctx context.Context, cause error) {
	metrics.ObservePublish(p.topic, statusRejected, 0)
	p.logger.ErrorwCtx(ctx, "Failed to publish message",
		"topic", p.topic,
		"error", errors.Wrap(cause, errors.ErrPublishRejected),
	)
}

// detach keeps the span and log fields of ctx but drops its deadline and
// cancellation.
func detach(ctx context.Context) context.Context {
	out := context.Background()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out = trace.ContextWithSpanContext(out, sc)
		out = logging.WithTraceID(out, sc.TraceID().String())
	}
	if v := logging.GetServiceName(ctx); v != "" {
		out = logging.WithServiceName(out, v)
	}
	if v := logging.GetRequestID(ctx); v != "" {
		out = logging.WithRequestID(out, v)
	}
	return out
}
