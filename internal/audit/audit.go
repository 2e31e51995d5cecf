package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
)

// Event types emitted by the lifecycle engines.
const (
	EventPickupProcessed    = "PICKUP_PROCESSED"
	EventReturnProcessed    = "RETURN_PROCESSED"
	EventTransactionOverdue = "TRANSACTION_OVERDUE"
)

// Event summarizes one completed lifecycle operation.
type Event struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	TransactionID string         `json:"transaction_id"`
	Details       map[string]any `json:"details,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType, transactionID string, details map[string]any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		TransactionID: transactionID,
		Details:       details,
		OccurredAt:    time.Now(),
	}
}

// Sink receives audit events. Implementations may fail; callers treat Record
// as fire-and-forget and must not let a sink failure abort the operation.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Record delivers an event to the sink, swallowing errors and panics. This is
// the only way the engines talk to the sink.
func Record(ctx context.Context, sink Sink, event Event) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Audit sink panicked", "event_type", event.Type, "panic", r)
		}
	}()
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("Audit sink failed", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

// LogSink writes audit events to the structured log.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Record(_ context.Context, event Event) error {
	logger.WithComponent("audit").Info("Audit event",
		"event_id", event.ID,
		"event_type", event.Type,
		"transaction_id", event.TransactionID,
		"occurred_at", event.OccurredAt,
		"details", event.Details,
	)
	return nil
}
