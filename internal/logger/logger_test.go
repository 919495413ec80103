package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"msgrelay/pkg/logging"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		log, err := New(level, "json")
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		log, err := New("info", format)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, "console", encodingFor("console"))
	assert.Equal(t, "json", encodingFor("json"))
	assert.Equal(t, "json", encodingFor(""))
	assert.Equal(t, "json", encodingFor("xml"))
}

func TestInfowCtx_AddsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)
	log.(*SugaredLogger).SetServiceName("relay-service")

	ctx := logging.WithMessageID(context.Background(), "msg-1")
	log.InfowCtx(ctx, "hello", "k", "v")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "msg-1", fields["message_id"])
	assert.Equal(t, "relay-service", fields["service_name"])
	assert.Equal(t, "v", fields["k"])
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	log.InfowCtx(context.Background(), "discarded")
	assert.NoError(t, log.Sync())
}
