package bootstrap

import (
	"context"
	"fmt"

	"msgrelay/internal/broker"
	"msgrelay/internal/config"
	"msgrelay/internal/logger"
	"msgrelay/pkg/health"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/tracing"
)

// Base holds what every long-running entry point sets up: telemetry and the
// channel connections.
type Base struct {
	Config         *config.Config
	Logger         logger.Logger
	Producer       broker.Producer
	Consumer       broker.Consumer
	Health         *health.CheckerRegistry
	TracerProvider *tracing.TracerProvider
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
		Health: health.NewCheckerRegistry(),
	}
}

func (b *Base) InitTelemetry(ctx context.Context, serviceName string) error {
	metrics.Register()

	tp, err := tracing.Init(ctx, b.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	b.TracerProvider = tp
	return nil
}

func (b *Base) InitBroker(serviceName string) error {
	producer, consumer, err := broker.Open(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to open broker: %w", err)
	}

	if serviceName != "" {
		consumer.SetServiceName(serviceName)
	}

	b.Producer = producer
	b.Consumer = consumer

	if b.Config.Broker.Type == config.BrokerTypeKafka {
		b.Health.Register(health.NewKafkaChecker(b.Config.Broker.Kafka.Brokers))
	} else {
		b.Health.Register(health.CheckFunc{
			CheckName: b.Config.Broker.Type,
			Fn:        func(context.Context) error { return nil },
		})
	}
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	// The memory broker is both sides of the channel; closing it twice is a no-op.
	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	errs = append(errs, b.ShutdownBroker()...)

	if b.TracerProvider != nil {
		if err := b.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
