package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

// RequestPasswordReset issues a reset token for the account behind the email.
// ErrUserNotFound surfaces here so callers can decide their disclosure policy;
// the HTTP boundary answers neutrally either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	now := s.nowFn()
	expiry := now.Add(s.cfg.ResetTTL)
	next := user
	next.PasswordResetToken = s.tokens.NewToken()
	next.PasswordResetTokenExpiry = &expiry
	next.UpdatedAt = now

	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("request password reset: persist: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, next.Email, next.PasswordResetToken); err != nil {
		slog.Warn("password reset email send failed",
			slog.String("module", "user-service"),
			slog.String("layer", "application"),
			slog.String("operation", "RequestPasswordReset"),
			slog.String("user_id", next.UserID.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// ResetPassword completes the recovery flow. A successful reset clears the
// token pair and the lockout state so the user can sign in immediately.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.users.FindByPasswordResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("reset password: token lookup: %w", err)
	}

	now := s.nowFn()
	if user.PasswordResetTokenExpiry == nil || now.After(*user.PasswordResetTokenExpiry) {
		return domain.ErrTokenExpired
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}

	next := user
	next.PasswordHash = hash
	next.PasswordResetToken = ""
	next.PasswordResetTokenExpiry = nil
	next.FailedLoginAttempts = 0
	next.LockedUntil = nil
	next.UpdatedAt = now

	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("reset password: persist: %w", err)
	}
	return nil
}

// ChangePassword rotates the password for an authenticated user after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return domain.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: hash password: %w", err)
	}

	now := s.nowFn()
	next := user
	next.PasswordHash = hash
	next.UpdatedAt = now
	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("change password: persist: %w", err)
	}
	return nil
}
