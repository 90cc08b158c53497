package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

func (s *Service) AdminListUsers(ctx context.Context, page, limit int) (UserPage, error) {
	limit, offset := pageToOffset(page, limit)
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return UserPage{}, fmt.Errorf("admin list users: %w", err)
	}

	items := make([]UserItem, 0, len(users))
	for _, u := range users {
		items = append(items, toUserItem(u))
	}
	if page <= 0 {
		page = 1
	}
	return UserPage{Users: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) AdminGetUser(ctx context.Context, userID uuid.UUID) (UserItem, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserItem{}, err
	}
	return toUserItem(user), nil
}

// AdminDeleteUser is a soft delete. The row stays for audit trails; the
// INACTIVE status refuses authentication from then on.
func (s *Service) AdminDeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	next := user
	next.Status = domain.StatusInactive
	next.UpdatedAt = s.nowFn()
	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("admin delete user: persist: %w", err)
	}
	return nil
}

// AdminLockUser suspends the account with a lock horizon far beyond any
// rate-limit window.
func (s *Service) AdminLockUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	now := s.nowFn()
	until := now.Add(s.cfg.AdminLockDuration)
	next := user
	next.Status = domain.StatusSuspended
	next.LockedUntil = &until
	next.UpdatedAt = now
	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("admin lock user: persist: %w", err)
	}
	return nil
}

// AdminUnlockUser lifts both administrative and rate-limit locks and resets
// the failure counter.
func (s *Service) AdminUnlockUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	next := user
	next.LockedUntil = nil
	next.FailedLoginAttempts = 0
	if next.Status == domain.StatusSuspended {
		next.Status = domain.StatusActive
	}
	next.UpdatedAt = s.nowFn()
	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("admin unlock user: persist: %w", err)
	}
	return nil
}
