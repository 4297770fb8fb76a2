package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wsflood/internal/app"
	"github.com/vovakirdan/wsflood/internal/config"
	"github.com/vovakirdan/wsflood/internal/flood"
	wslog "github.com/vovakirdan/wsflood/internal/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wsflood: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	defaults := config.Default()
	var configPath string

	root := &cobra.Command{
		Use:           "wsflood",
		Short:         "Send a fixed chat message over one WebSocket connection, N times",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Token == "" {
				logger.Warn().Msg("no token configured; set WSFLOOD_TOKEN or --token")
			}

			dialer := flood.WebSocketDialer{MaxReplyBytes: cfg.MaxReplyBytes}
			stats, err := flood.Run(ctx, dialer, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Int("completed", stats.Iterations).Msg("flood failed")
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().String("log-level", defaults.LogLevel, "log level (trace, debug, info, warn, error, disabled)")

	flags := root.Flags()
	flags.String("endpoint", defaults.Endpoint, "WebSocket endpoint")
	flags.String("token", "", "bearer token sent as the token query parameter")
	flags.Int64("receiver", defaults.ReceiverUID, "receiverUid of every message")
	flags.String("content", defaults.Content, "content of every message")
	flags.Int("iterations", defaults.Iterations, "number of send/receive round trips")
	flags.Int("report-every", defaults.ReportEvery, "log progress every N iterations (0 disables)")
	flags.Int64("max-reply-bytes", defaults.MaxReplyBytes, "largest accepted reply frame")

	root.AddCommand(newServeCommand(&configPath))
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	defaults := config.Default().Sink

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local /message/ws sink that answers every message once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}

			application, err := app.New(cfg.Sink, logger)
			if err != nil {
				return err
			}
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("sink exited with error")
				return err
			}
			logger.Info().Msg("sink stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("addr", defaults.Addr, "HTTP listen address")
	flags.String("jwt-secret", "", "HS256 secret used to verify tokens")
	flags.Bool("require-expiration", defaults.RequireExpiration, "reject tokens without an expiration claim")
	flags.Duration("read-header-timeout", defaults.ReadHeaderTimeout, "HTTP read header timeout")
	flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "graceful shutdown timeout")
	return cmd
}

func loadConfig(cmd *cobra.Command, configPath string) (config.Config, *zerolog.Logger, error) {
	bootLog := wslog.New("info")

	cfg, resolved, err := config.Load(bootLog, configPath, cmd.Flags())
	if err != nil {
		return cfg, bootLog, fmt.Errorf("load config: %w", err)
	}

	logger := wslog.New(cfg.LogLevel)
	logger.Debug().Str("path", resolved).Msg("config loaded")
	return cfg, logger, nil
}
