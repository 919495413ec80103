package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgrelay/internal/config"
	"msgrelay/internal/logger"
	"msgrelay/pkg/health"
)

func TestBase_MemoryBrokerLifecycle(t *testing.T) {
	cfg := &config.Config{Broker: config.BrokerConfig{Type: config.BrokerTypeMemory}}
	b := NewBase(cfg, logger.NopLogger())

	require.NoError(t, b.InitTelemetry(context.Background(), "test"))
	require.NoError(t, b.InitBroker("test"))
	assert.NotNil(t, b.Producer)
	assert.NotNil(t, b.Consumer)
	assert.Equal(t, health.StatusHealthy, b.Health.Check(context.Background()).Status)

	called := false
	err := b.Shutdown(context.Background(), func(context.Context) []error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestBase_UnknownBroker(t *testing.T) {
	b := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "carrier-pigeon"}}, logger.NopLogger())
	assert.Error(t, b.InitBroker(""))
}
