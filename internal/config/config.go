package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds flood client and sink configuration values.
type Config struct {
	Endpoint      string `mapstructure:"endpoint" yaml:"endpoint"`
	Token         string `mapstructure:"token" yaml:"token,omitempty"`
	ReceiverUID   int64  `mapstructure:"receiver_uid" yaml:"receiver_uid"`
	Content       string `mapstructure:"content" yaml:"content"`
	Iterations    int    `mapstructure:"iterations" yaml:"iterations"`
	ReportEvery   int    `mapstructure:"report_every" yaml:"report_every"`
	MaxReplyBytes int64  `mapstructure:"max_reply_bytes" yaml:"max_reply_bytes"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`

	Sink SinkConfig `mapstructure:"sink" yaml:"sink"`
}

// SinkConfig configures the local /message/ws endpoint started by `serve`.
type SinkConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`
	RequireExpiration bool          `mapstructure:"require_expiration" yaml:"require_expiration"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

var (
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrNegativeCount    = errors.New("negative count")
	ErrMissingJWTSecret = errors.New("sink jwt secret is required")
)

// Default returns configuration matching the stock flood run.
func Default() Config {
	return Config{
		Endpoint:      "ws://localhost:8080/message/ws",
		ReceiverUID:   3,
		Content:       "Spamming",
		Iterations:    1_000_000,
		ReportEvery:   100_000,
		MaxReplyBytes: 1 << 20,
		LogLevel:      "info",
		Sink: SinkConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
	}
}

// Validate checks the values the flood client depends on.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: scheme %q, want ws or wss", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations=%d", ErrNegativeCount, c.Iterations)
	}
	if c.ReportEvery < 0 {
		return fmt.Errorf("%w: report_every=%d", ErrNegativeCount, c.ReportEvery)
	}
	return nil
}

// Validate checks the values the sink depends on.
func (s SinkConfig) Validate() error {
	if s.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
