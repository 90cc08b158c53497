package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

// UserRepository defines persistence operations for user accounts.
// Mutations take a full next-state value computed by the application layer;
// the transactional variants exist to enforce user+outbox consistency.
type UserRepository interface {
	// CreateWithOutboxTx persists a new user and the given outbox event in one
	// transaction. A unique-constraint violation surfaces as
	// domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
	CreateWithOutboxTx(ctx context.Context, user domain.User, event OutboxEvent) (domain.User, error)
	// UpdateWithOutboxTx persists the next user state and the outbox event in
	// one transaction.
	UpdateWithOutboxTx(ctx context.Context, user domain.User, event OutboxEvent) error
	// Save persists the next user state without an event.
	Save(ctx context.Context, user domain.User) error

	FindByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	// FindByUsernameOrEmail matches the username exactly or the email
	// case-insensitively, since emails are normalized at registration.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error)
	FindByEmailVerificationToken(ctx context.Context, token string) (domain.User, error)
	FindByPasswordResetToken(ctx context.Context, token string) (domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
}

// AddressRepository manages address rows for one-owner addresses.
// The transactional methods serialize the default-flag dance per user so the
// single-default invariant survives concurrent mutation.
type AddressRepository interface {
	FindByID(ctx context.Context, addressID uuid.UUID) (domain.Address, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	// InsertTx creates the address and decides its default flag under the
	// user's row locks: a requested default demotes every sibling, and when
	// the user has no default at commit time the new address becomes the
	// default regardless of the request.
	InsertTx(ctx context.Context, address domain.Address, wantDefault bool) (domain.Address, error)
	// Update mutates field values only; the default flag is never changed here.
	Update(ctx context.Context, address domain.Address) (domain.Address, error)
	// DeleteTx removes the address and, when it was the default and siblings
	// remain, promotes the first remaining address in natural return order.
	DeleteTx(ctx context.Context, userID, addressID uuid.UUID) error
	// SetDefaultTx unsets all defaults for the user, then marks the given
	// address default, in one transaction.
	SetDefaultTx(ctx context.Context, userID, addressID uuid.UUID) error
}

// LoginAttemptRepository stores login outcomes for audit and history endpoints.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.LoginAttempt) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int, since *time.Time, status string) ([]domain.LoginAttempt, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	RoutingKey   string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	RoutingKey     string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for lifecycle events.
// Rows are written by the user repository's transactional mutations; this
// contract covers only the worker side, keeping DB details out of the
// application layer.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
