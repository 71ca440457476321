package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
)

// Loader reads a YAML config file, applies defaults and environment
// overrides, and watches the file for changes. An empty path yields a
// config built from defaults and the environment only.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load. The initial
// config must validate.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file path, possibly empty.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. The parent directory is watched so that editors which replace
// the file by rename are picked up. A reload that fails to parse or
// validate is logged and the previous config stays in effect.
func (l *Loader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload rejected, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	var cfg Config
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}
	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values. Kafka settings default to the
// notifications topic consumed from the latest offset by a single
// consumer group.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	k := &cfg.Queue.Kafka
	if k.Topic == "" {
		k.Topic = "notifications"
	}
	if k.GroupID == "" {
		k.GroupID = "notification-service-group"
	}
	if k.StartOffset == "" {
		k.StartOffset = "latest"
	}
	if k.CommitIntervalMs == 0 {
		k.CommitIntervalMs = 1000
	}
	if k.MaxBytes == 0 {
		k.MaxBytes = 10e6
	}
	if k.SessionTimeoutSec == 0 {
		k.SessionTimeoutSec = 30
	}
	if cfg.Queue.NATS.Subject == "" {
		cfg.Queue.NATS.Subject = "notifications"
	}
	if cfg.Queue.NATS.Queue == "" {
		cfg.Queue.NATS.Queue = "notification-service-group"
	}

	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 1
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 64
	}
	if cfg.Engine.EventTimeoutMs == 0 {
		cfg.Engine.EventTimeoutMs = 30000
	}
	if cfg.Engine.ShutdownTimeoutMs == 0 {
		cfg.Engine.ShutdownTimeoutMs = 15000
	}

	if cfg.Dispatch.Strategy == "" {
		cfg.Dispatch.Strategy = "all"
	}
	cfg.Dispatch.DefaultCountryCode = strings.TrimPrefix(strings.TrimSpace(cfg.Dispatch.DefaultCountryCode), "+")
	if cfg.Dispatch.DefaultCountryCode == "" {
		cfg.Dispatch.DefaultCountryCode = "94"
	}

	if cfg.Brand.Name == "" {
		cfg.Brand.Name = "Hiru Sandu Bridal Wears"
	}

	chat := &cfg.Channels.Chat
	if chat.Mode == "" {
		chat.Mode = ModeLive
	}
	if chat.Provider == "" {
		chat.Provider = "twilio"
	}
	if chat.TimeoutMs == 0 {
		chat.TimeoutMs = 10000
	}

	email := &cfg.Channels.Email
	if email.Mode == "" {
		email.Mode = ModeLive
	}
	if email.Timezone == "" {
		email.Timezone = "Asia/Colombo"
	}
	if email.SMTP.Port == 0 {
		email.SMTP.Port = 587
	}
	if email.SMTP.TimeoutMs == 0 {
		email.SMTP.TimeoutMs = 15000
	}
	if email.SMTP.FromName == "" {
		email.SMTP.FromName = cfg.Brand.Name
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "notification-service"
	}
	if cfg.Telemetry.SampleRatio == nil {
		ratio := 1.0
		cfg.Telemetry.SampleRatio = &ratio
	}
}

// ApplyEnv overlays deployment environment variables on cfg. Non-empty
// variables win over file values.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok && strings.TrimSpace(v) != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Queue.Kafka.Brokers = brokers
		cfg.Queue.Kafka.Enabled = true
	}
	if v, ok := lookup("NATS_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.Queue.NATS.URL = strings.TrimSpace(v)
		cfg.Queue.NATS.Enabled = true
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("HTTP_ADDR", &cfg.Server.Addr)

	str("TWILIO_ACCOUNT_SID", &cfg.Channels.Chat.Twilio.AccountSID)
	str("TWILIO_AUTH_TOKEN", &cfg.Channels.Chat.Twilio.AuthToken)
	str("TWILIO_WHATSAPP_NUMBER", &cfg.Channels.Chat.Twilio.From)
	str("KAPSO_API_KEY", &cfg.Channels.Chat.Kapso.APIKey)
	str("KAPSO_PHONE_NUMBER_ID", &cfg.Channels.Chat.Kapso.PhoneNumberID)

	str("SMTP_HOST", &cfg.Channels.Email.SMTP.Host)
	str("SMTP_USERNAME", &cfg.Channels.Email.SMTP.Username)
	str("SMTP_PASSWORD", &cfg.Channels.Email.SMTP.Password)
	str("SMTP_FROM", &cfg.Channels.Email.SMTP.From)
	if v, ok := lookup("SMTP_PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Channels.Email.SMTP.Port = port
		}
	}

	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
}

// Redacted returns a copy of cfg with credentials masked, suitable for
// logging or serving over HTTP.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Queue.Kafka.Brokers = append([]string(nil), c.Queue.Kafka.Brokers...)
	mask := func(s *string) {
		if *s != "" {
			*s = "***"
		}
	}
	mask(&cp.Channels.Chat.Twilio.AuthToken)
	mask(&cp.Channels.Chat.Kapso.APIKey)
	mask(&cp.Channels.Email.SMTP.Password)
	return &cp
}
