package invocation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"msgrelay/internal/display"
	"msgrelay/internal/extractor"
	"msgrelay/internal/logger"
	"msgrelay/pkg/errors"
	"msgrelay/pkg/models"
)

func newTestHandler(strategies ...extractor.Strategy) (*Handler, *bytes.Buffer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewWithCore(core)
	var out bytes.Buffer
	return NewHandler(extractor.New(log, strategies...), display.New(&out), log), &out, logs
}

func TestProcess_BodyEvent(t *testing.T) {
	h, out, logs := newTestHandler()

	result, err := h.Process(context.Background(), map[string]interface{}{
		"body": `{"id":"abc-123","content":"hello","sender":"svc-a","timestamp":"2024-05-01T10:20:30"}`,
	}, Context{RequestID: "req-1", FunctionName: "relay", MemoryLimitMB: 512})

	require.NoError(t, err)
	assert.Equal(t, "Mensagem processada com sucesso: abc-123", result)
	assert.Contains(t, out.String(), "MENSAGEM KAFKA RECEBIDA NA LAMBDA")
	assert.Contains(t, out.String(), "abc-123")

	received := logs.FilterMessage("Event received").All()
	require.Len(t, received, 1)
	assert.Contains(t, received[0].ContextMap()["event"], "abc-123")
	assert.Equal(t, "req-1", received[0].ContextMap()["request_id"])

	processed := logs.FilterMessage("Message processed").All()
	require.Len(t, processed, 1)
	fields := processed[0].ContextMap()
	assert.Equal(t, extractor.StrategyBody, fields["strategy"])
	assert.Equal(t, "abc-123", fields["message_id"])
	assert.EqualValues(t, 512, fields["memory_limit_mb"])
}

func TestProcess_MalformedEventStillSucceeds(t *testing.T) {
	h, out, _ := newTestHandler()

	result, err := h.Process(context.Background(), map[string]interface{}{"body": "<malformed>"}, Context{})

	require.NoError(t, err)
	assert.Equal(t, "Mensagem processada com sucesso: unknown", result)
	assert.Contains(t, out.String(), "<malformed>")
}

func TestProcess_EmptyEventReportsNullID(t *testing.T) {
	h, _, _ := newTestHandler()

	result, err := h.Process(context.Background(), map[string]interface{}{}, Context{})

	require.NoError(t, err)
	assert.Equal(t, "Mensagem processada com sucesso: null", result)
}

func TestProcess_UnserializableEventFails(t *testing.T) {
	h, out, logs := newTestHandler()

	result, err := h.Process(context.Background(), map[string]interface{}{"ch": make(chan int)}, Context{})

	require.Error(t, err)
	assert.Empty(t, result)
	assert.True(t, errors.IsProcessing(err))
	assert.Contains(t, err.Error(), "Falha ao processar mensagem")
	assert.Empty(t, out.String())
	assert.Equal(t, 1, logs.FilterMessage("Failed to process invocation").Len())
}

func TestProcess_PanicIsReportedAsFailure(t *testing.T) {
	h, _, _ := newTestHandler(extractor.Strategy{
		Name: "explodes",
		Extract: func(map[string]interface{}) (models.Envelope, error) {
			panic("boom")
		},
	})

	var result string
	var err error
	require.NotPanics(t, func() {
		result, err = h.Process(context.Background(), map[string]interface{}{"id": "x"}, Context{})
	})

	require.Error(t, err)
	assert.Empty(t, result)
	assert.True(t, errors.IsProcessing(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestHandle_ReadsRuntimeContext(t *testing.T) {
	h, _, logs := newTestHandler()

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-req-9"})
	result, err := h.Handle(ctx, map[string]interface{}{"id": "direct-id", "content": "c"})

	require.NoError(t, err)
	assert.Equal(t, "Mensagem processada com sucesso: direct-id", result)
	assert.Equal(t, "aws-req-9", logs.FilterMessage("Invocation started").All()[0].ContextMap()["request_id"])
}

func TestContext_RemainingTime(t *testing.T) {
	assert.Zero(t, Context{}.RemainingTime())
	assert.Zero(t, Context{Deadline: time.Now().Add(-time.Second)}.RemainingTime())

	remaining := Context{Deadline: time.Now().Add(time.Minute)}.RemainingTime()
	assert.Greater(t, remaining, 50*time.Second)
}

func TestContextFrom_Deadline(t *testing.T) {
	deadline := time.Now().Add(30 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	ic := ContextFrom(ctx)
	assert.True(t, deadline.Equal(ic.Deadline))
	assert.Empty(t, ic.RequestID)
}
