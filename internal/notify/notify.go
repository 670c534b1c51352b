// Package notify turns donation lifecycle events into outbound
// notifications. The engine publishes events without knowing who listens;
// this package is the listener that tells clinics and owners what happened.
package notify

import (
	"context"
	"log/slog"

	"hemabank/internal/donation/events"
)

// Sink implements events.Publisher and forwards each lifecycle event to a
// notifier. Plug it into the engine next to the broker publisher.
type Sink struct {
	logger *slog.Logger
}

// NewSink builds a notification sink. Delivery is log-based for now; a mail
// or push gateway slots in behind the same interface.
func NewSink(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Publish(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.TypeResponseSubmitted:
		s.logger.InfoContext(ctx, "notify clinic: new donor response",
			"request_id", event.RequestID,
			"response_id", event.ResponseID,
			"donor_id", event.DonorID,
		)
	case events.TypeResponseCompleted:
		s.logger.InfoContext(ctx, "notify owner: donation recorded",
			"request_id", event.RequestID,
			"donor_id", event.DonorID,
		)
	case events.TypeRequestExpired:
		s.logger.InfoContext(ctx, "notify clinic: request expired unfulfilled",
			"request_id", event.RequestID,
		)
	case events.TypeRequestCancelled:
		s.logger.InfoContext(ctx, "notify responders: request cancelled",
			"request_id", event.RequestID,
		)
	}
}
