// Package notify delivers diff events to the notification channel.
package notify

import (
	"context"

	"github.com/nftwatch/mewatch/internal/model"
)

// Sink receives emitted diff events. Implementations must respect the
// caller's context deadline; the driver bounds every Publish call.
type Sink interface {
	Publish(ctx context.Context, ev model.Event) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, ev model.Event) error

func (f SinkFunc) Publish(ctx context.Context, ev model.Event) error {
	return f(ctx, ev)
}
