package broker

import (
	"fmt"

	"msgrelay/internal/config"
	"msgrelay/internal/logger"
)

// Open builds the producer and consumer for the configured broker type.
// The memory type returns one broker serving both roles.
func Open(cfg config.BrokerConfig, log logger.Logger) (Producer, Consumer, error) {
	switch cfg.Type {
	case config.BrokerTypeKafka:
		return NewKafkaProducer(cfg.Kafka, log), NewKafkaConsumer(cfg.Kafka, log), nil
	case config.BrokerTypeMemory:
		b := NewMemoryBroker()
		return b, b, nil
	default:
		return nil, nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
