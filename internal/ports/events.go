package ports

import "context"

// EventPublisher is the outbound lifecycle-event publish port.
// The application uses this abstraction to keep broker/client concerns in
// adapters; delivery is at-least-once and consumers must deduplicate.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}
