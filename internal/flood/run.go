package flood

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wsflood/internal/config"
)

// Run connects, floods cfg.Iterations messages and closes.
// A failed connect skips the loop and close; a faulted loop returns without
// closing.
func Run(ctx context.Context, dialer Dialer, cfg config.Config, logger *zerolog.Logger) (Stats, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	runLog := logger.With().Str("run_id", uuid.NewString()).Logger()

	client := NewClient(dialer, cfg.ReportEvery, &runLog)
	if err := client.Connect(ctx, cfg.Endpoint, cfg.Token); err != nil {
		return client.Stats(), err
	}

	runLog.Info().
		Int64("receiver_uid", cfg.ReceiverUID).
		Int("iterations", cfg.Iterations).
		Msg("flood started")

	if err := client.RunLoop(ctx, cfg.ReceiverUID, cfg.Content, cfg.Iterations); err != nil {
		return client.Stats(), err
	}

	if err := client.Close(); err != nil {
		return client.Stats(), err
	}

	stats := client.Stats()
	runLog.Info().
		Int("iterations", stats.Iterations).
		Int64("bytes_sent", stats.BytesSent).
		Int64("bytes_received", stats.BytesReceived).
		Dur("elapsed", stats.Elapsed).
		Float64("rate_per_sec", stats.Rate()).
		Msg("flood finished")
	return stats, nil
}
