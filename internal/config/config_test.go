package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgrelay/internal/constants"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout_seconds: 5s
  write_timeout_seconds: 5s
broker:
  type: kafka
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
    topic: relay-topic
    group_id: relay-group
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "relay-topic", cfg.Broker.Kafka.Topic)
	assert.Equal(t, "relay-group", cfg.Broker.Kafka.GroupID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, constants.DefaultServiceName, cfg.Service.Name)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultTopic, cfg.Broker.Kafka.Topic)
	assert.Equal(t, constants.DefaultGroupID, cfg.Broker.Kafka.GroupID)
	assert.Equal(t, "kafka", cfg.Broker.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromEnv_BrokerOverride(t *testing.T) {
	t.Setenv("BROKER_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("BROKER_KAFKA_TOPIC", "other-topic")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "other-topic", cfg.Broker.Kafka.Topic)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeoutSeconds: time.Second, WriteTimeoutSeconds: time.Second},
		Broker: BrokerConfig{
			Type: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "lambda-topic",
				GroupID: "lambda-consumer-group",
			},
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown broker", mutate: func(c *Config) { c.Broker.Type = "rabbitmq" }, wantErr: true},
		{name: "no brokers", mutate: func(c *Config) { c.Broker.Kafka.Brokers = nil }, wantErr: true},
		{name: "empty broker", mutate: func(c *Config) { c.Broker.Kafka.Brokers = []string{" "} }, wantErr: true},
		{name: "no topic", mutate: func(c *Config) { c.Broker.Kafka.Topic = "" }, wantErr: true},
		{name: "bad acks", mutate: func(c *Config) { c.Broker.Kafka.RequiredAcks = 3 }, wantErr: true},
		{
			name: "breaker ratio out of range",
			mutate: func(c *Config) {
				c.Publisher.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureRatio: 1.5}
			},
			wantErr: true,
		},
		{name: "console log format", mutate: func(c *Config) { c.Logging.Format = "console" }},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{
			name: "rate limit without rps",
			mutate: func(c *Config) {
				c.API.RateLimit = RateLimitConfig{Enabled: true, Burst: 1}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromEnv_LoggingFormat(t *testing.T) {
	t.Setenv("LOGGING_FORMAT", "console")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Logging.Format)
}
