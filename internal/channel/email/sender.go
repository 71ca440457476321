package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
)

// Config is the immutable configuration of an email Sender.
type Config struct {
	Brand     channel.Brand
	Transport Transport
	Location  *time.Location // transaction dates; defaults to time.Local
	Now       func() time.Time
}

// Sender renders notifications as HTML+text email and hands them to a Transport.
type Sender struct {
	brand     channel.Brand
	transport Transport
	loc       *time.Location
	now       func() time.Time
}

var _ channel.Sender = (*Sender)(nil)

// New creates an email Sender.
func New(cfg Config) (*Sender, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("email sender: %w: no transport", channel.ErrUnconfigured)
	}
	s := &Sender{brand: cfg.Brand, transport: cfg.Transport, loc: cfg.Location, now: cfg.Now}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Sender) Channel() dispatch.Channel { return dispatch.ChannelEmail }

func (s *Sender) SendWelcome(ctx context.Context, to, name string) error {
	msg, err := RenderWelcome(s.brand, to, name)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *Sender) SendPaymentConfirmation(ctx context.Context, to string, data map[string]string) error {
	msg, err := RenderPayment(s.brand, to, channel.PaymentFrom(data), s.now().In(s.loc))
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *Sender) send(ctx context.Context, msg Message) error {
	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("email to %s: %w", msg.To, err)
	}
	logger.From(ctx).Info("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}
