package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"msgrelay/internal/broker"
	"msgrelay/internal/config"
	"msgrelay/internal/logger"
	"msgrelay/pkg/models"
)

const testTopic = "lambda-topic"

func newTestPublisher(t *testing.T, opts ...Option) (*Publisher, *broker.MemoryBroker, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	b := broker.NewMemoryBroker()
	t.Cleanup(func() { b.Close() })
	return New(b, testTopic, logger.NewWithCore(core), opts...), b, logs
}

func completions(logs *observer.ObservedLogs) int {
	return logs.FilterMessage("Message published").Len() + logs.FilterMessage("Failed to publish message").Len()
}

func TestSend_AssignsFreshID(t *testing.T) {
	p, b, logs := newTestPublisher(t)

	first := p.Send(context.Background(), models.Envelope{Content: "a"})
	second := p.Send(context.Background(), models.Envelope{Content: "b"})

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)

	require.Eventually(t, func() bool { return completions(logs) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, b.Messages(testTopic), 2)
}

func TestSend_KeepsExistingIDAndTimestamp(t *testing.T) {
	p, b, logs := newTestPublisher(t)

	ts := models.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	sent := p.Send(context.Background(), models.Envelope{ID: "fixed-id", Content: "x", Timestamp: ts})

	assert.Equal(t, "fixed-id", sent.ID)
	assert.True(t, ts.Equal(sent.Timestamp.Time))

	require.Eventually(t, func() bool { return completions(logs) == 1 }, 2*time.Second, 5*time.Millisecond)
	msgs := b.Messages(testTopic)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fixed-id", msgs[0].ID)
	assert.True(t, ts.Equal(msgs[0].Timestamp.Time))
}

func TestSend_AssignsMissingTimestamp(t *testing.T) {
	p, b, logs := newTestPublisher(t)

	before := time.Now()
	sent := p.Send(context.Background(), models.Envelope{Content: "no ts"})

	require.False(t, sent.Timestamp.IsZero())
	assert.False(t, sent.Timestamp.Before(before))

	require.Eventually(t, func() bool { return completions(logs) == 1 }, 2*time.Second, 5*time.Millisecond)
	msgs := b.Messages(testTopic)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Timestamp.IsZero())
	assert.Equal(t, sent.Timestamp.UnixNano(), msgs[0].Timestamp.UnixNano())
}

func TestSendContent_StampsCurrentTime(t *testing.T) {
	p, _, _ := newTestPublisher(t)

	before := time.Now()
	sent := p.SendContent(context.Background(), "bare text")

	assert.Equal(t, "bare text", sent.Content)
	assert.NotEmpty(t, sent.ID)
	assert.False(t, sent.Timestamp.Before(before))
}

func TestSend_SuccessLogsOffset(t *testing.T) {
	p, _, logs := newTestPublisher(t)

	sent := p.Send(context.Background(), models.Envelope{Content: "x"})

	require.Eventually(t, func() bool { return logs.FilterMessage("Message published").Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	fields := logs.FilterMessage("Message published").All()[0].ContextMap()
	assert.Equal(t, sent.ID, fields["message_id"])
	assert.Equal(t, testTopic, fields["topic"])
	assert.EqualValues(t, 0, fields["offset"])
}

func TestSend_FailureIsLoggedNotReturned(t *testing.T) {
	p, b, logs := newTestPublisher(t)
	b.FailWith(errors.New("broker unavailable"))

	sent := p.Send(context.Background(), models.Envelope{Content: "x"})
	assert.NotEmpty(t, sent.ID)

	require.Eventually(t, func() bool { return logs.FilterMessage("Failed to publish message").Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	entry := logs.FilterMessage("Failed to publish message").All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, 0, logs.FilterMessage("Message published").Len())

	// no retry
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, completions(logs))
}

func TestSend_DoesNotWaitForCompletion(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	release := make(chan struct{})
	prod := &blockingProducer{release: release}
	p := New(prod, testTopic, logger.NewWithCore(core))

	returned := make(chan struct{})
	go func() {
		p.Send(context.Background(), models.Envelope{Content: "x"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on completion")
	}
	assert.Equal(t, 0, completions(logs))

	close(release)
	require.Eventually(t, func() bool { return completions(logs) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSend_CanceledRequestContextStillCompletes(t *testing.T) {
	p, b, logs := newTestPublisher(t)

	ctx, cancel := context.WithCancel(context.Background())
	p.Send(ctx, models.Envelope{Content: "x"})
	cancel()

	require.Eventually(t, func() bool { return logs.FilterMessage("Message published").Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, b.Messages(testTopic), 1)
}

func TestSend_ConcurrentCallers(t *testing.T) {
	p, b, logs := newTestPublisher(t)

	const n = 50
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = p.Send(context.Background(), models.Envelope{Content: fmt.Sprintf("content-%d", i)}).ID
		}(i)
	}
	wg.Wait()

	unique := make(map[string]struct{}, n)
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, n)

	require.Eventually(t, func() bool { return completions(logs) == n }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, b.Messages(testTopic), n)
}

func TestSend_CircuitBreakerRejects(t *testing.T) {
	p, b, logs := newTestPublisher(t, WithCircuitBreaker(config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Timeout:      time.Hour,
		FailureRatio: 0.5,
		MinRequests:  2,
	}))
	b.FailWith(errors.New("broker unavailable"))

	for i := 0; i < 2; i++ {
		p.Send(context.Background(), models.Envelope{Content: "x"})
		want := i + 1
		require.Eventually(t, func() bool { return completions(logs) == want }, 2*time.Second, 5*time.Millisecond)
	}
	require.NotNil(t, p.breaker)
	assert.True(t, p.breaker.IsOpen())

	b.FailWith(nil)
	p.Send(context.Background(), models.Envelope{Content: "rejected"})

	assert.Equal(t, 3, completions(logs))
	assert.Empty(t, b.Messages(testTopic))
	assert.Contains(t, fmt.Sprint(logs.FilterMessage("Failed to publish message").All()[2].ContextMap()["error"]), "PUBLISH_REJECTED")
}

func TestWithCircuitBreaker_DisabledIsNoop(t *testing.T) {
	p, _, _ := newTestPublisher(t, WithCircuitBreaker(config.CircuitBreakerConfig{Enabled: false}))
	assert.Nil(t, p.breaker)
	assert.Equal(t, testTopic, p.Topic())
}

type blockingProducer struct {
	release chan struct{}
}

func (b *blockingProducer) PublishAsync(_ context.Context, topic string, _ models.Envelope, done broker.CompletionFunc) {
	go func() {
		<-b.release
		done(broker.Delivery{Topic: topic, Offset: 7}, nil)
	}()
}

func (b *blockingProducer) Close() error { return nil }
