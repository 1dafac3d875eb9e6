package notify

import (
	"context"
	"log/slog"

	"github.com/nftwatch/mewatch/internal/model"
)

// LogSink logs events instead of delivering them. Used when no webhook
// is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, ev model.Event) error {
	s.logger.Info("event",
		"id", ev.ID,
		"type", ev.Type,
		"collection", ev.Collection,
		"token", ev.TokenMint,
		"price", ev.Price,
		"old_price", ev.OldPrice,
		"user", ev.UserID,
	)
	return nil
}

var _ Sink = (*LogSink)(nil)
