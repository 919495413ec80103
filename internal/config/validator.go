package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateCircuitBreaker(cfg.Publisher.CircuitBreaker); err != nil {
		errors = append(errors, err)
	}

	if err := validateRateLimit(cfg.API.RateLimit); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	}

	switch cfg.Type {
	case BrokerTypeKafka:
		return validateKafka(cfg.Kafka)
	case BrokerTypeMemory:
		if cfg.Kafka.Topic == "" {
			return &ValidationError{
				Field:   "broker.kafka.topic",
				Message: "topic is required",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka, memory)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if strings.TrimSpace(broker) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.Topic == "" {
		return &ValidationError{
			Field:   "broker.kafka.topic",
			Message: "Kafka topic is required",
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	switch cfg.RequiredAcks {
	case -1, 0, 1:
	default:
		return &ValidationError{
			Field:   "broker.kafka.required_acks",
			Message: fmt.Sprintf("required_acks must be -1, 0 or 1, got %d", cfg.RequiredAcks),
		}
	}

	fb := cfg.FetchBackoff
	if fb.InitialInterval < 0 || fb.MaxInterval < 0 {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff",
			Message: "intervals must be non-negative",
		}
	}

	if fb.MaxInterval > 0 && fb.InitialInterval > 0 && fb.MaxInterval < fb.InitialInterval {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if fb.Multiplier < 0 {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff.multiplier",
			Message: "multiplier must be non-negative",
		}
	}

	return nil
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.FailureRatio < 0 || cfg.FailureRatio > 1 {
		return &ValidationError{
			Field:   "publisher.circuit_breaker.failure_ratio",
			Message: fmt.Sprintf("failure_ratio must be between 0 and 1, got %v", cfg.FailureRatio),
		}
	}

	if cfg.Interval < 0 || cfg.Timeout < 0 {
		return &ValidationError{
			Field:   "publisher.circuit_breaker",
			Message: "interval and timeout must be non-negative",
		}
	}

	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.RPS <= 0 {
		return &ValidationError{
			Field:   "api.rate_limit.rps",
			Message: "rps must be positive",
		}
	}

	if cfg.Burst < 1 {
		return &ValidationError{
			Field:   "api.rate_limit.burst",
			Message: "burst must be at least 1",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch cfg.Format {
	case "", "json", "console":
		return nil
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("format must be json or console, got %s", cfg.Format),
		}
	}
}
