package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/event"
	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
)

const sourceKafka = "kafka"

// kafkaReader is the subset of *kafka.Reader the source uses.
type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaSource consumes a topic as a member of a consumer group. Offsets
// are committed by the reader on its commit interval after each read.
type KafkaSource struct {
	reader  kafkaReader
	topic   string
	backoff time.Duration
}

// NewKafkaSource creates a consumer-group reader for cfg.Topic.
func NewKafkaSource(cfg config.KafkaConf) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	start := kafka.LastOffset
	if cfg.StartOffset == "earliest" {
		start = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeoutSec) * time.Second,
		CommitInterval: time.Duration(cfg.CommitIntervalMs) * time.Millisecond,
		StartOffset:    start,
		MaxBytes:       cfg.MaxBytes,
	})

	slog.Info("kafka consumer created",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"group_id", cfg.GroupID,
		"start_offset", cfg.StartOffset,
	)
	return &KafkaSource{reader: reader, topic: cfg.Topic, backoff: time.Second}, nil
}

func (s *KafkaSource) Name() string { return sourceKafka }

// Run reads messages one at a time and hands each to h before reading the
// next. Read errors are logged and retried after a short backoff.
func (s *KafkaSource) Run(ctx context.Context, h Handler) error {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			// io.EOF means the reader was closed.
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			slog.Error("kafka read failed", "topic", s.topic, "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.backoff):
			}
			continue
		}

		metrics.EventsReceived.WithLabelValues(sourceKafka).Inc()
		received := msg.Time
		if received.IsZero() {
			received = time.Now()
		}
		err = h.HandleMessage(ctx, Message{
			Source:     sourceKafka,
			Key:        string(msg.Key),
			Value:      msg.Value,
			ReceivedAt: received,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("kafka message not handled",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"err", err,
			)
		}
	}
}

// Close stops the reader and leaves the consumer group.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

// KafkaPublisher writes events to a topic, keyed by event id.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher creates a synchronous producer for cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConf) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *event.NotificationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.EventID), Value: data}); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	slog.Debug("kafka message sent", "topic", p.topic, "event_id", ev.EventID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
