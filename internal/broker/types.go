package broker

import (
	"context"

	"msgrelay/pkg/models"
)

// Delivery locates a record on the channel.
type Delivery struct {
	Topic     string
	Partition int
	Offset    int64
}

// CompletionFunc runs once when an asynchronous publish settles.
type CompletionFunc func(d Delivery, err error)

type Producer interface {
	// PublishAsync hands msg to the channel keyed by msg.ID and returns
	// without waiting for acknowledgment. done is called exactly once, from
	// a goroutine owned by the producer, or inline when the hand-off itself
	// fails.
	PublishAsync(ctx context.Context, topic string, msg models.Envelope, done CompletionFunc)
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg models.Envelope, d Delivery) error
