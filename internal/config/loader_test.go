package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadWritesDefaultConfigWithoutCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("WSFLOOD_TOKEN", "secret-token")

	cfg, resolved, err := Load(nil, path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Token != "secret-token" {
		t.Fatalf("token from env not applied: %q", cfg.Token)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Fatalf("default config leaked the token:\n%s", data)
	}
	if !strings.Contains(string(data), "localhost:8080/message/ws") {
		t.Fatalf("default config missing endpoint:\n%s", data)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := `
endpoint: ws://file.example:9000/message/ws
receiver_uid: 7
content: from-file
iterations: 50
sink:
  addr: ":9999"
  shutdown_timeout: 2s
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WSFLOOD_CONTENT", "from-env")
	t.Setenv("WSFLOOD_SINK_ADDR", ":7777")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("iterations", 0, "")
	flags.Int64("receiver", 0, "")
	if err := flags.Parse([]string{"--iterations=0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, _, err := Load(nil, path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Endpoint != "ws://file.example:9000/message/ws" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.ReceiverUID != 7 {
		t.Errorf("unset flag must not override file: receiver_uid = %d", cfg.ReceiverUID)
	}
	if cfg.Content != "from-env" {
		t.Errorf("env must override file: content = %q", cfg.Content)
	}
	if cfg.Iterations != 0 {
		t.Errorf("set flag must override file even when zero: iterations = %d", cfg.Iterations)
	}
	if cfg.Sink.Addr != ":7777" {
		t.Errorf("nested env override: sink.addr = %q", cfg.Sink.Addr)
	}
	if cfg.Sink.ShutdownTimeout != 2*time.Second {
		t.Errorf("sink.shutdown_timeout = %v", cfg.Sink.ShutdownTimeout)
	}
	if cfg.ReportEvery != Default().ReportEvery {
		t.Errorf("report_every default lost: %d", cfg.ReportEvery)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("endpoint: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := Load(nil, path, nil); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"default", func(*Config) {}, nil},
		{"wss", func(c *Config) { c.Endpoint = "wss://chat.example/message/ws" }, nil},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, nil},
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }, ErrInvalidEndpoint},
		{"http scheme", func(c *Config) { c.Endpoint = "http://localhost:8080/message/ws" }, ErrInvalidEndpoint},
		{"no host", func(c *Config) { c.Endpoint = "ws:///message/ws" }, ErrInvalidEndpoint},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }, ErrNegativeCount},
		{"negative report", func(c *Config) { c.ReportEvery = -5 }, ErrNegativeCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSinkValidate(t *testing.T) {
	if err := Default().Sink.Validate(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
	s := Default().Sink
	s.JWTSecret = "x"
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
