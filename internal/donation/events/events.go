// Package events publishes donation lifecycle events for downstream
// consumers (notification fan-out, reporting). Publishing is best-effort:
// the engine's outcome never depends on the event stream being reachable.
package events

import (
	"context"
	"time"

	id "hemabank/pkg/domain"
)

// Type labels a lifecycle event.
type Type string

const (
	TypeRequestCreated    Type = "request_created"
	TypeRequestCancelled  Type = "request_cancelled"
	TypeRequestExpired    Type = "request_expired"
	TypeResponseSubmitted Type = "response_submitted"
	TypeResponseCompleted Type = "response_completed"
)

// Event captures one lifecycle transition. Keep it transport-agnostic so
// publishers can fan out to Kafka, logs, or tests.
type Event struct {
	Type       Type          `json:"type"`
	RequestID  id.RequestID  `json:"request_id"`
	ResponseID id.ResponseID `json:"response_id,omitempty"`
	DonorID    id.DonorID    `json:"donor_id,omitempty"`
	ActorID    id.UserID     `json:"actor_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher emits lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Multi fans one event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}
