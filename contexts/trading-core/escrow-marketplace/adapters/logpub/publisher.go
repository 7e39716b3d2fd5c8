package logpub

import (
	"context"
	"log/slog"

	"curio/contexts/trading-core/escrow-marketplace/ports"
)

// Publisher is the development EventPublisher: it writes each relayed
// envelope to the structured log. Production deployments swap in a broker
// publisher behind the same port.
type Publisher struct {
	Logger *slog.Logger
}

func (p Publisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event published",
		"event", "market_event_published",
		"module", "trading-core/escrow-marketplace",
		"layer", "adapter",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
		"payload", string(event.Data),
	)
	return nil
}
