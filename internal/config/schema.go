package config

// Config is the top-level YAML structure.
type Config struct {
	Log       LogConf       `yaml:"log" json:"log"`
	Server    ServerConf    `yaml:"server" json:"server"`
	Queue     QueueConf     `yaml:"queue" json:"queue"`
	Engine    EngineConf    `yaml:"engine" json:"engine"`
	Dispatch  DispatchConf  `yaml:"dispatch" json:"dispatch"`
	Brand     BrandConf     `yaml:"brand" json:"brand"`
	Channels  ChannelsConf  `yaml:"channels" json:"channels"`
	Telemetry TelemetryConf `yaml:"telemetry" json:"telemetry"`
}

type LogConf struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// ServerConf configures the ops HTTP listener (health, readiness, metrics).
type ServerConf struct {
	Addr string `yaml:"addr" json:"addr"` // empty disables the listener
}

type QueueConf struct {
	Kafka KafkaConf `yaml:"kafka" json:"kafka"`
	NATS  NATSConf  `yaml:"nats" json:"nats"`
}

type KafkaConf struct {
	Enabled           bool     `yaml:"enabled" json:"enabled"`
	Brokers           []string `yaml:"brokers" json:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic             string   `yaml:"topic" json:"topic" validate:"required_if=Enabled true"`
	GroupID           string   `yaml:"group_id" json:"group_id" validate:"required_if=Enabled true"`
	StartOffset       string   `yaml:"start_offset" json:"start_offset" validate:"omitempty,oneof=latest earliest"`
	SessionTimeoutSec int      `yaml:"session_timeout_sec" json:"session_timeout_sec" validate:"min=0"`
	CommitIntervalMs  int      `yaml:"commit_interval_ms" json:"commit_interval_ms" validate:"min=0"`
	MaxBytes          int      `yaml:"max_bytes" json:"max_bytes" validate:"min=0"`
}

type NATSConf struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	URL     string `yaml:"url" json:"url" validate:"required_if=Enabled true"`
	Subject string `yaml:"subject" json:"subject" validate:"required_if=Enabled true"`
	Queue   string `yaml:"queue" json:"queue"` // queue group; members share the subject's messages
}

// EngineConf holds consumption concurrency settings. One worker gives
// strictly serial processing.
type EngineConf struct {
	Workers           int `yaml:"workers" json:"workers" validate:"min=1"`
	QueueDepth        int `yaml:"queue_depth" json:"queue_depth" validate:"min=1"`
	EventTimeoutMs    int `yaml:"event_timeout_ms" json:"event_timeout_ms" validate:"min=1"`
	ShutdownTimeoutMs int `yaml:"shutdown_timeout_ms" json:"shutdown_timeout_ms" validate:"min=0"`
}

type DispatchConf struct {
	Strategy           string `yaml:"strategy" json:"strategy" validate:"omitempty,oneof=all fallback"`
	DefaultCountryCode string `yaml:"default_country_code" json:"default_country_code" validate:"omitempty,numeric,max=4"`
}

type BrandConf struct {
	Name         string `yaml:"name" json:"name" validate:"required"`
	ShortName    string `yaml:"short_name" json:"short_name"`
	Tagline      string `yaml:"tagline" json:"tagline"`
	CatalogURL   string `yaml:"catalog_url" json:"catalog_url" validate:"omitempty,url"`
	ProfileURL   string `yaml:"profile_url" json:"profile_url" validate:"omitempty,url"`
	BookingURL   string `yaml:"booking_url" json:"booking_url" validate:"omitempty,url"`
	SupportEmail string `yaml:"support_email" json:"support_email" validate:"omitempty,email"`
	SupportPhone string `yaml:"support_phone" json:"support_phone"`
}

type ChannelsConf struct {
	Chat  ChatConf  `yaml:"chat" json:"chat"`
	Email EmailConf `yaml:"email" json:"email"`
}

// Channel modes.
const (
	ModeLive     = "live"
	ModeSimulate = "simulate"
	ModeDisabled = "disabled"
)

type ChatConf struct {
	Mode      string     `yaml:"mode" json:"mode" validate:"omitempty,oneof=live simulate disabled"`
	Provider  string     `yaml:"provider" json:"provider" validate:"omitempty,oneof=twilio kapso"`
	TimeoutMs int        `yaml:"timeout_ms" json:"timeout_ms" validate:"min=0"`
	Twilio    TwilioConf `yaml:"twilio" json:"twilio"`
	Kapso     KapsoConf  `yaml:"kapso" json:"kapso"`
}

type TwilioConf struct {
	AccountSID string `yaml:"account_sid" json:"account_sid"`
	AuthToken  string `yaml:"auth_token" json:"auth_token"`
	From       string `yaml:"whatsapp_number" json:"whatsapp_number"`
}

type KapsoConf struct {
	APIKey        string `yaml:"api_key" json:"api_key"`
	PhoneNumberID string `yaml:"phone_number_id" json:"phone_number_id"`
	BaseURL       string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
}

type EmailConf struct {
	Mode     string   `yaml:"mode" json:"mode" validate:"omitempty,oneof=live simulate disabled"`
	Timezone string   `yaml:"timezone" json:"timezone"`
	SMTP     SMTPConf `yaml:"smtp" json:"smtp"`
}

type SMTPConf struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Username  string `yaml:"username" json:"username"`
	Password  string `yaml:"password" json:"password"`
	From      string `yaml:"from" json:"from" validate:"omitempty,email"`
	FromName  string `yaml:"from_name" json:"from_name"`
	StartTLS  bool   `yaml:"starttls" json:"starttls"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms" validate:"min=0"`
}

type TelemetryConf struct {
	OTLPEndpoint string   `yaml:"otlp_endpoint" json:"otlp_endpoint"` // host:port; empty disables export
	Insecure     bool     `yaml:"insecure" json:"insecure"`
	ServiceName  string   `yaml:"service_name" json:"service_name"`
	SampleRatio  *float64 `yaml:"sample_ratio" json:"sample_ratio" validate:"omitempty,min=0,max=1"` // nil samples everything; 0 samples nothing
}

// Ratio returns the trace sampling ratio, 1 when unset.
func (t TelemetryConf) Ratio() float64 {
	if t.SampleRatio == nil {
		return 1
	}
	return *t.SampleRatio
}
