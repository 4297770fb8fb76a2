package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WSFLOOD"
	envConfigDefaultPath = "WSFLOOD_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":            "endpoint",
	"token":               "token",
	"receiver":            "receiver_uid",
	"content":             "content",
	"iterations":          "iterations",
	"report-every":        "report_every",
	"max-reply-bytes":     "max_reply_bytes",
	"log-level":           "log_level",
	"addr":                "sink.addr",
	"jwt-secret":          "sink.jwt_secret",
	"require-expiration":  "sink.require_expiration",
	"read-header-timeout": "sink.read_header_timeout",
	"shutdown-timeout":    "sink.shutdown_timeout",
}

// Load builds configuration from defaults, optional config file, env vars and
// flags, and returns the resolved config path.
// Precedence: defaults < config file < env vars < flags that were set.
func Load(logger *zerolog.Logger, explicitPath string, flags *pflag.FlagSet) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return cfg, "", fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("receiver_uid", cfg.ReceiverUID)
	v.SetDefault("content", cfg.Content)
	v.SetDefault("iterations", cfg.Iterations)
	v.SetDefault("report_every", cfg.ReportEvery)
	v.SetDefault("max_reply_bytes", cfg.MaxReplyBytes)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("sink.addr", cfg.Sink.Addr)
	v.SetDefault("sink.jwt_secret", cfg.Sink.JWTSecret)
	v.SetDefault("sink.require_expiration", cfg.Sink.RequireExpiration)
	v.SetDefault("sink.read_header_timeout", cfg.Sink.ReadHeaderTimeout)
	v.SetDefault("sink.shutdown_timeout", cfg.Sink.ShutdownTimeout)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

// writeDefaultConfig never persists credentials.
func writeDefaultConfig(path string, cfg Config) error {
	cfg.Token = ""
	cfg.Sink.JWTSecret = ""

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
