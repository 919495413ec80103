package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"msgrelay/pkg/models"
)

var ErrClosed = errors.New("broker closed")

type memoryRecord struct {
	value  []byte
	offset int64
}

// subscription is one Consume call. done closes when it returns so pending
// deliveries to it are dropped instead of blocking.
type subscription struct {
	records chan memoryRecord
	done    chan struct{}
}

// MemoryBroker is an in-process channel with one partition per topic. It
// serializes envelopes exactly like the Kafka transport so consumers see the
// wire form. Used for local runs and tests.
type MemoryBroker struct {
	mu      sync.Mutex
	logs    map[string][][]byte
	subs    map[string][]*subscription
	failErr error
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		logs: make(map[string][][]byte),
		subs: make(map[string][]*subscription),
		done: make(chan struct{}),
	}
}

// FailWith makes every following publish complete with err. nil restores
// normal delivery.
func (b *MemoryBroker) FailWith(err error) {
	b.mu.Lock()
	b.failErr = err
	b.mu.Unlock()
}

func (b *MemoryBroker) PublishAsync(ctx context.Context, topic string, msg models.Envelope, done CompletionFunc) {
	if done == nil {
		done = func(Delivery, error) {}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		done(Delivery{Topic: topic}, fmt.Errorf("failed to marshal message: %w", err))
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		done(Delivery{Topic: topic}, ErrClosed)
		return
	}
	failErr := b.failErr
	var offset int64
	var subs []*subscription
	if failErr == nil {
		offset = int64(len(b.logs[topic]))
		b.logs[topic] = append(b.logs[topic], body)
		subs = append(subs, b.subs[topic]...)
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		if failErr != nil {
			done(Delivery{Topic: topic}, failErr)
			return
		}
		for _, s := range subs {
			select {
			case s.records <- memoryRecord{value: body, offset: offset}:
			case <-s.done:
			case <-b.done:
			}
		}
		done(Delivery{Topic: topic, Partition: 0, Offset: offset}, nil)
	}()
}

// Messages decodes everything published to topic so far.
func (b *MemoryBroker) Messages(topic string) []models.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Envelope, 0, len(b.logs[topic]))
	for _, raw := range b.logs[topic] {
		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func (b *MemoryBroker) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	sub := &subscription{
		records: make(chan memoryRecord, 256),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	defer b.unsubscribe(topic, sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return ErrClosed
		case rec := <-sub.records:
			var env models.Envelope
			if err := json.Unmarshal(rec.value, &env); err != nil {
				continue
			}
			safeHandle(ctx, handler, env, Delivery{Topic: topic, Partition: 0, Offset: rec.offset})
		}
	}
}

// safeHandle drops handler errors and panics; a record is never redelivered.
func safeHandle(ctx context.Context, handler HandlerFunc, env models.Envelope, d Delivery) {
	defer func() { _ = recover() }()
	_ = handler(ctx, env, d)
}

func (b *MemoryBroker) unsubscribe(topic string, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	close(sub.done)
	subs := b.subs[topic]
	for i, s := range subs {
		if s == sub {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *MemoryBroker) SetServiceName(string) {}

// Close waits for pending completions to run.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Subscribers reports how many Consume calls are attached to topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
