// Package queue adapts message brokers to the notification engine. A
// Source reads raw event payloads and hands each one to a Handler; a
// Publisher writes events for producers and tooling.
package queue

import (
	"context"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/event"
)

// Message is a raw payload read from a broker.
type Message struct {
	Source     string // "kafka", "nats"
	Key        string
	Value      []byte
	ReceivedAt time.Time
}

// Handler consumes messages. Returning an error does not stop a Source;
// it is logged and the next message is read.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Source delivers messages to h until ctx is cancelled. Run returns nil on
// cancellation and an error only when the source cannot start.
type Source interface {
	Name() string
	Run(ctx context.Context, h Handler) error
	Close() error
}

// Publisher writes notification events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev *event.NotificationEvent) error
	Close() error
}
