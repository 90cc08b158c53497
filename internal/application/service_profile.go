package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (UserItem, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserItem{}, err
	}
	return toUserItem(user), nil
}

// UpdateProfile applies the non-nil fields only. Username, email and status
// are immutable through this path.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (UserItem, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserItem{}, err
	}

	next := user
	if req.FirstName != nil {
		next.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		next.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		next.PhoneNumber = *req.PhoneNumber
		if *req.PhoneNumber != user.PhoneNumber {
			next.PhoneVerified = false
		}
	}
	next.UpdatedAt = s.nowFn()

	if err := s.users.Save(ctx, next); err != nil {
		return UserItem{}, fmt.Errorf("update profile: persist: %w", err)
	}
	return toUserItem(next), nil
}

func (s *Service) ListLoginHistory(ctx context.Context, userID uuid.UUID, q LoginHistoryQuery) ([]LoginHistoryItem, error) {
	limit, offset := pageToOffset(q.Page, q.Limit)

	var since *time.Time
	if q.Days > 0 {
		t := s.nowFn().AddDate(0, 0, -q.Days)
		since = &t
	}

	attempts, err := s.loginAttempts.ListByUser(ctx, userID, limit, offset, since, q.Status)
	if err != nil {
		return nil, fmt.Errorf("login history: list: %w", err)
	}

	items := make([]LoginHistoryItem, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, LoginHistoryItem{
			ID:            a.ID,
			Timestamp:     a.AttemptAt,
			Status:        a.Status,
			FailureReason: a.FailureReason,
			IPAddress:     a.IPAddress,
		})
	}
	return items, nil
}
