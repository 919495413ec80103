package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"msgrelay/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return build(v)
}

// LoadFromEnv builds the configuration from defaults and environment
// variables only, for runtimes that ship no config file.
func LoadFromEnv() (*Config, error) {
	return build(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVariables(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(v, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", constants.DefaultServiceName)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", "10s")
	v.SetDefault("server.write_timeout_seconds", "10s")

	v.SetDefault("broker.type", BrokerTypeKafka)
	v.SetDefault("broker.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.kafka.topic", constants.DefaultTopic)
	v.SetDefault("broker.kafka.group_id", constants.DefaultGroupID)
	v.SetDefault("broker.kafka.batch_timeout", constants.KafkaBatchTimeout)
	v.SetDefault("broker.kafka.write_timeout", constants.KafkaWriteTimeout)
	v.SetDefault("broker.kafka.required_acks", 1)
	v.SetDefault("broker.kafka.fetch_backoff.initial_interval", "1s")
	v.SetDefault("broker.kafka.fetch_backoff.max_interval", "30s")
	v.SetDefault("broker.kafka.fetch_backoff.multiplier", 2.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("service.name", "SERVICE_NAME")

	v.BindEnv("broker.type", "BROKER_TYPE")
	v.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	v.BindEnv("broker.kafka.topic", "BROKER_KAFKA_TOPIC")
	v.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	v.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	v.BindEnv("logging.level", "LOGGING_LEVEL")
	v.BindEnv("logging.format", "LOGGING_FORMAT")

	v.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	v.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(v *viper.Viper, cfg *Config) error {
	if brokersEnv := v.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if otlpEndpoint := v.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}
