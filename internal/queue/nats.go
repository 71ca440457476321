package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	natspkg "github.com/nats-io/nats.go"

	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/event"
	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
)

const (
	sourceNATS = "nats"

	natsDrainTimeout = 30 * time.Second
)

// NATSSource consumes a subject through a queue group, so replicas share
// the stream. A subscription's callbacks run serially.
type NATSSource struct {
	nc      *natspkg.Conn
	subject string
	queue   string
	closed  chan struct{}
}

// NewNATSSource connects to cfg.URL.
func NewNATSSource(cfg config.NATSConf) (*NATSSource, error) {
	closed := make(chan struct{})
	var once sync.Once
	nc, err := natspkg.Connect(cfg.URL,
		natspkg.Name("notification-service"),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
		natspkg.DrainTimeout(natsDrainTimeout),
		natspkg.ClosedHandler(func(*natspkg.Conn) { once.Do(func() { close(closed) }) }),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	slog.Info("nats consumer connected", "url", cfg.URL, "subject", cfg.Subject, "queue", cfg.Queue)
	return &NATSSource{nc: nc, subject: cfg.Subject, queue: cfg.Queue, closed: closed}, nil
}

func (s *NATSSource) Name() string { return sourceNATS }

// Run subscribes and blocks until ctx is cancelled. It then drains the
// connection and returns once the drain has finished, so messages already
// buffered by the client are still handed to h.
func (s *NATSSource) Run(ctx context.Context, h Handler) error {
	if _, err := s.nc.QueueSubscribe(s.subject, s.queue, natsCallback(ctx, h)); err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}
	<-ctx.Done()
	if err := s.nc.Drain(); err != nil {
		if !errors.Is(err, natspkg.ErrConnectionClosed) {
			slog.Warn("nats drain failed", "subject", s.subject, "err", err)
		}
		return nil
	}
	if err := waitClosed(s.closed, natsDrainTimeout+time.Second); err != nil {
		slog.Warn("nats drain incomplete", "subject", s.subject, "err", err)
	}
	return nil
}

// natsCallback hands each message to h. The handler context outlives the
// cancellation of ctx so the drain can still deliver buffered messages.
func natsCallback(ctx context.Context, h Handler) natspkg.MsgHandler {
	hctx := context.WithoutCancel(ctx)
	return func(m *natspkg.Msg) {
		metrics.EventsReceived.WithLabelValues(sourceNATS).Inc()
		if err := h.HandleMessage(hctx, natsMessage(m)); err != nil {
			slog.Warn("nats message not handled", "subject", m.Subject, "err", err)
		}
	}
}

func waitClosed(closed <-chan struct{}, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-closed:
		return nil
	case <-t.C:
		return fmt.Errorf("connection not closed after %v", timeout)
	}
}

// IsConnected reports whether the connection is currently up.
func (s *NATSSource) IsConnected() bool {
	return s.nc != nil && s.nc.Status() == natspkg.CONNECTED
}

// Close is safe to call after Run has drained the connection.
func (s *NATSSource) Close() error {
	s.nc.Close()
	return nil
}

func natsMessage(m *natspkg.Msg) Message {
	key := ""
	if m.Header != nil {
		key = m.Header.Get(natspkg.MsgIdHdr)
	}
	return Message{
		Source:     sourceNATS,
		Key:        key,
		Value:      m.Data,
		ReceivedAt: time.Now(),
	}
}

// NATSPublisher publishes events on a subject with the event id as the
// message id header.
type NATSPublisher struct {
	nc      *natspkg.Conn
	subject string
}

func NewNATSPublisher(cfg config.NATSConf) (*NATSPublisher, error) {
	nc, err := natspkg.Connect(cfg.URL, natspkg.Name("notification-publisher"))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return &NATSPublisher{nc: nc, subject: cfg.Subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, ev *event.NotificationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := natspkg.NewMsg(p.subject)
	msg.Data = data
	if ev.EventID != "" {
		msg.Header.Set(natspkg.MsgIdHdr, ev.EventID)
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish to %s: %w", p.subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		return p.nc.FlushTimeout(5 * time.Second)
	}
	return p.nc.FlushWithContext(ctx)
}

func (p *NATSPublisher) Close() error {
	p.nc.Close()
	return nil
}
