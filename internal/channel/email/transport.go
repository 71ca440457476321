package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
)

// Transport delivers a rendered Message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	StartTLS bool // require STARTTLS; otherwise opportunistic
	Timeout  time.Duration
}

// SMTPTransport sends multipart/alternative mail over SMTP.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport validates cfg and returns a transport. A client is dialled
// per send.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPTransport{cfg: cfg}, nil
}

// Send dials the server and delivers msg.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := t.buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if t.cfg.StartTLS {
		opts[2] = mail.WithTLSPolicy(mail.TLSMandatory)
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (t *SMTPTransport) buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if t.cfg.FromName != "" {
		if err := m.FromFormat(t.cfg.FromName, t.cfg.From); err != nil {
			return nil, fmt.Errorf("from %q: %w", t.cfg.From, err)
		}
	} else if err := m.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", t.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// SimulatedTransport logs messages instead of sending them.
type SimulatedTransport struct{}

func (SimulatedTransport) Send(ctx context.Context, msg Message) error {
	logger.From(ctx).Info("email send simulated",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("html_len", len(msg.HTML)),
	)
	return nil
}
