package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"msgrelay/internal/config"
	"msgrelay/internal/constants"
	"msgrelay/internal/logger"
	"msgrelay/pkg/errors"
	"msgrelay/pkg/logging"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/models"
	"msgrelay/pkg/retry"
	"msgrelay/pkg/tracing"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = constants.KafkaBatchTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = constants.KafkaWriteTimeout
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             complete,
	}
	return &KafkaProducer{writer: w, logger: log}
}

// complete fans the writer's batch completion out to each message's callback.
func complete(messages []kafka.Message, err error) {
	for _, m := range messages {
		done, ok := m.WriterData.(CompletionFunc)
		if !ok {
			continue
		}
		done(Delivery{Topic: m.Topic, Partition: m.Partition, Offset: m.Offset}, err)
	}
}

func (p *KafkaProducer) PublishAsync(ctx context.Context, topic string, msg models.Envelope, done CompletionFunc) {
	if done == nil {
		done = func(Delivery, error) {}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		done(Delivery{Topic: topic}, fmt.Errorf("failed to marshal message: %w", err))
		return
	}

	headers := tracing.PublishHeaders(ctx)

	// Async writers return before the broker acknowledges; failures reported
	// here are hand-off failures such as a closed writer.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:      topic,
		Key:        []byte(msg.ID),
		Value:      body,
		Headers:    headers,
		Time:       time.Now(),
		WriterData: done,
	})
	if err != nil {
		done(Delivery{Topic: topic}, fmt.Errorf("failed to write kafka message: %w", err))
		return
	}

	metrics.ObserveKafkaMessageSize(topic, "out", len(body))
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	wg          sync.WaitGroup
	mu          sync.Mutex
	reader      *kafka.Reader
	logger      logger.Logger
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:         cfg,
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume delivers each record of topic to handler until ctx is canceled.
// Records are committed after the handler returns, whatever its result.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(ctx, reader, topic, handler)
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) consumeLoop(ctx context.Context, reader *kafka.Reader, topic string, handler HandlerFunc) {
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"topic", topic,
	)

	fb := c.cfg.FetchBackoff
	b := retry.ExponentialBackoff(fb.InitialInterval, fb.MaxInterval, fb.Multiplier)

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", "context canceled",
				)
				return
			}
			metrics.IncFetchError(topic)
			wait := b.NextBackOff()
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
				"retry_in", wait,
			)
			if wait == backoff.Stop || !retry.Sleep(ctx, wait) {
				return
			}
			continue
		}
		b.Reset()

		c.handle(consumeCtx, m, handler)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.ErrorwCtx(consumeCtx, "Failed to commit message",
				"error", err,
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
			)
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, m kafka.Message, handler HandlerFunc) {
	metrics.ObserveKafkaMessageSize(m.Topic, "in", len(m.Value))

	var envelope models.Envelope
	if err := json.Unmarshal(m.Value, &envelope); err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to unmarshal message",
			"error", err,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
		)
		return
	}

	msgCtx, span := tracing.StartConsumeSpan(ctx, m, envelope.ID)
	defer span.End()

	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		msgCtx = logging.WithTraceID(msgCtx, traceID.String())
	}
	msgCtx = logging.WithMessageID(msgCtx, envelope.ID)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.FromPanic(r)
			}
		}()
		return handler(msgCtx, envelope, Delivery{Topic: m.Topic, Partition: m.Partition, Offset: m.Offset})
	}()
	if err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to handle message",
			"error", err,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	var err error
	c.mu.Lock()
	if c.reader != nil {
		err = c.reader.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
	return err
}
