package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenRevocationStore keeps revocation markers with token-aligned TTL.
// This allows immediate logout semantics without a database hit per refresh.
type TokenRevocationStore interface {
	MarkRevoked(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}
