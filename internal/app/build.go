// Package app assembles the notification pipeline from configuration.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
	"github.com/gyaneshwarpardhi/notification-service/internal/channel/chat"
	"github.com/gyaneshwarpardhi/notification-service/internal/channel/email"
	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
	"github.com/gyaneshwarpardhi/notification-service/internal/router"
)

// BuildRouter builds a Router and its channel registry from cfg. A live
// channel whose credentials are missing is left unregistered with a
// warning; the router then records its attempts as skipped.
func BuildRouter(cfg *config.Config) (*router.Router, error) {
	strategy, err := dispatch.ParseStrategy(cfg.Dispatch.Strategy)
	if err != nil {
		return nil, err
	}
	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return router.New(dispatch.NewPolicy(strategy), reg), nil
}

// BuildRegistry creates the chat and email senders enabled by cfg.
func BuildRegistry(cfg *config.Config) (*channel.Registry, error) {
	brand := brandFrom(cfg.Brand)
	reg := channel.NewRegistry()

	ct, err := chatTransport(cfg.Channels.Chat)
	if err != nil {
		return nil, err
	}
	if ct != nil {
		s, err := chat.New(chat.Config{
			Brand:       brand,
			CountryCode: cfg.Dispatch.DefaultCountryCode,
			Transport:   ct,
		})
		if err != nil {
			return nil, err
		}
		reg.Register(s)
	}

	et, err := emailTransport(cfg.Channels.Email)
	if err != nil {
		return nil, err
	}
	if et != nil {
		loc, err := time.LoadLocation(cfg.Channels.Email.Timezone)
		if err != nil {
			return nil, fmt.Errorf("email timezone: %w", err)
		}
		s, err := email.New(email.Config{Brand: brand, Transport: et, Location: loc})
		if err != nil {
			return nil, err
		}
		reg.Register(s)
	}

	slog.Info("channels registered", "channels", reg.Channels())
	return reg, nil
}

func brandFrom(b config.BrandConf) channel.Brand {
	return channel.Brand{
		Name:         b.Name,
		ShortName:    b.ShortName,
		Tagline:      b.Tagline,
		CatalogURL:   b.CatalogURL,
		ProfileURL:   b.ProfileURL,
		BookingURL:   b.BookingURL,
		SupportEmail: b.SupportEmail,
		SupportPhone: b.SupportPhone,
	}
}

// chatTransport returns nil when the channel should not be registered.
func chatTransport(c config.ChatConf) (chat.Transport, error) {
	switch c.Mode {
	case config.ModeDisabled:
		slog.Info("chat channel disabled")
		return nil, nil
	case config.ModeSimulate:
		slog.Info("chat channel in simulate mode")
		return chat.SimulatedTransport{}, nil
	}

	timeout := time.Duration(c.TimeoutMs) * time.Millisecond
	switch c.Provider {
	case "kapso":
		if !channel.Configured(c.Kapso.APIKey, c.Kapso.PhoneNumberID) {
			slog.Warn("kapso credentials not configured; chat channel unavailable")
			return nil, nil
		}
		t := chat.NewKapsoTransport(c.Kapso.APIKey, c.Kapso.PhoneNumberID, timeout)
		if c.Kapso.BaseURL != "" {
			t.BaseURL = c.Kapso.BaseURL
		}
		return t, nil
	case "twilio", "":
		if !channel.Configured(c.Twilio.AccountSID, c.Twilio.AuthToken, c.Twilio.From) {
			slog.Warn("twilio credentials not configured; chat channel unavailable")
			return nil, nil
		}
		return chat.NewTwilioTransport(c.Twilio.AccountSID, c.Twilio.AuthToken, c.Twilio.From, timeout), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", c.Provider)
	}
}

// emailTransport returns nil when the channel should not be registered.
func emailTransport(c config.EmailConf) (email.Transport, error) {
	switch c.Mode {
	case config.ModeDisabled:
		slog.Info("email channel disabled")
		return nil, nil
	case config.ModeSimulate:
		slog.Info("email channel in simulate mode")
		return email.SimulatedTransport{}, nil
	}

	smtp := c.SMTP
	if !channel.Configured(smtp.Host, smtp.From) {
		slog.Warn("smtp host or sender not configured; email channel unavailable")
		return nil, nil
	}
	if smtp.Username != "" && !channel.Configured(smtp.Username, smtp.Password) {
		slog.Warn("smtp credentials not configured; email channel unavailable")
		return nil, nil
	}
	t, err := email.NewSMTPTransport(email.SMTPConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
		FromName: smtp.FromName,
		StartTLS: smtp.StartTLS,
		Timeout:  time.Duration(smtp.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("email transport: %w", err)
	}
	return t, nil
}
