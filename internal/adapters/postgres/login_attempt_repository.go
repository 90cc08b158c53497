package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
	"gorm.io/gorm"
)

type loginAttemptRepository struct {
	db *gorm.DB
}

func (r *loginAttemptRepository) Insert(ctx context.Context, attempt domain.LoginAttempt) error {
	rec := loginAttemptModel{
		UserID:        attempt.UserID,
		AttemptAt:     attempt.AttemptAt,
		IPAddress:     nullableString(attempt.IPAddress),
		Status:        attempt.Status,
		FailureReason: attempt.FailureReason,
		UserAgent:     attempt.UserAgent,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *loginAttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int, since *time.Time, status string) ([]domain.LoginAttempt, error) {
	q := r.db.WithContext(ctx).
		Model(&loginAttemptModel{}).
		Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("attempt_at >= ?", *since)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []loginAttemptModel
	if err := q.Order("attempt_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	attempts := make([]domain.LoginAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, toDomainLoginAttempt(row))
	}
	return attempts, nil
}
