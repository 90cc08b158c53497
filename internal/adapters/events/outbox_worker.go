package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/ports"
)

// OutboxWorker drains unpublished lifecycle events from the outbox and hands
// them to the broker. Delivery is decoupled from the transactional write so a
// broker outage never fails a user-facing operation.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
}

// batchStats accumulates per-drain outcome counts for the summary log line.
type batchStats struct {
	claimed      int
	delivered    int
	retried      int
	deadLettered int
}

// NewOutboxWorker constructs the delivery loop with sane defaults.
func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
	maxRetries int,
) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		claimTTL:   claimTTL,
		maxRetries: maxRetries,
	}
}

// Run drains the outbox on a fixed cadence until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.drainOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox drain failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_drain",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drainOnce claims one batch under a fresh claim token and attempts delivery
// for each record. Every outcome is written back under the same token, so a
// worker that loses its claim cannot clobber another worker's progress.
func (w *OutboxWorker) drainOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, time.Now().UTC().Add(w.claimTTL))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	stats := batchStats{claimed: len(records)}
	for _, rec := range records {
		w.deliver(ctx, rec, claimToken, now, &stats)
	}

	if stats.claimed > 0 {
		w.logger.InfoContext(ctx, "outbox batch drained",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "outbox_drain",
			"outcome", "success",
			"claimed", stats.claimed,
			"delivered", stats.delivered,
			"retried", stats.retried,
			"dead_lettered", stats.deadLettered,
		)
	}
	return nil
}

func (w *OutboxWorker) deliver(ctx context.Context, rec ports.OutboxRecord, claimToken string, now time.Time, stats *batchStats) {
	// A record claimed with an already-exhausted budget (a crash between the
	// final failure and its dead-letter write) is parked immediately.
	if rec.RetryCount >= w.maxRetries {
		stats.deadLettered++
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry limit reached before delivery", now)
		return
	}

	err := w.publisher.Publish(ctx, rec.RoutingKey, rec.Payload)
	if err == nil {
		stats.delivered++
		_ = w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now)
		return
	}

	attempt := rec.RetryCount + 1
	fields := []any{
		"module", "events.outbox_worker",
		"layer", "adapter",
		"operation", "deliver_event",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"event_type", rec.EventType,
		"routing_key", rec.RoutingKey,
		"attempt", attempt,
		"error", err,
	}
	if attempt >= w.maxRetries {
		stats.deadLettered++
		w.logger.ErrorContext(ctx, "event delivery abandoned, parking record", fields...)
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now)
		return
	}

	stats.retried++
	w.logger.WarnContext(ctx, "event delivery failed, will retry", fields...)
	_ = w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now)
}
