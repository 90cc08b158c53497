package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher stands in for the broker in local/dev runs.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.InfoContext(ctx, "published event", "routing_key", routingKey, "payload", string(payload))
	return nil
}
