package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

// Register creates a pending account, queues the USER_REGISTERED event in the
// same transaction, and then asks the mailer for a verification email. The
// verification token is persisted before any send attempt so a lost email is
// always recoverable through resend.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (UserItem, error) {
	if err := validateRegisterRequest(req); err != nil {
		return UserItem{}, err
	}

	username := normalizeUsername(req.Username)
	email := normalizeEmail(req.Email)

	// Friendly pre-checks; the unique constraints in the store remain the
	// authority under concurrent registration.
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return UserItem{}, fmt.Errorf("register: username lookup: %w", err)
	} else if taken {
		return UserItem{}, domain.ErrDuplicateUsername
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return UserItem{}, fmt.Errorf("register: email lookup: %w", err)
	} else if taken {
		return UserItem{}, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return UserItem{}, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.nowFn()
	tokenExpiry := now.Add(s.cfg.VerificationTTL)
	user := domain.User{
		UserID:                       uuid.New(),
		Username:                     username,
		Email:                        email,
		PasswordHash:                 hash,
		FirstName:                    req.FirstName,
		LastName:                     req.LastName,
		PhoneNumber:                  req.PhoneNumber,
		Status:                       domain.StatusPendingVerification,
		Roles:                        []string{s.cfg.DefaultRole},
		EmailVerificationToken:       s.tokens.NewToken(),
		EmailVerificationTokenExpiry: &tokenExpiry,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}

	event := buildLifecycleEvent(user, EventUserRegistered, routingKeyUserRegistered, now)
	created, err := s.users.CreateWithOutboxTx(ctx, user, event)
	if err != nil {
		return UserItem{}, err
	}

	if err := s.mailer.SendVerification(ctx, created.Email, created.EmailVerificationToken); err != nil {
		slog.Warn("verification email send failed",
			slog.String("module", "user-service"),
			slog.String("layer", "application"),
			slog.String("operation", "Register"),
			slog.String("user_id", created.UserID.String()),
			slog.String("error", err.Error()))
	}
	return toUserItem(created), nil
}

// VerifyEmail activates the account behind a valid, unexpired verification
// token. The token is single-use: it is cleared in the same transaction that
// flips the status.
func (s *Service) VerifyEmail(ctx context.Context, token string) (UserItem, error) {
	if token == "" {
		return UserItem{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	user, err := s.users.FindByEmailVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return UserItem{}, domain.ErrInvalidToken
		}
		return UserItem{}, fmt.Errorf("verify email: token lookup: %w", err)
	}

	now := s.nowFn()
	if user.EmailVerificationTokenExpiry == nil || now.After(*user.EmailVerificationTokenExpiry) {
		// Expired token stays on the row; resend replaces it.
		return UserItem{}, domain.ErrTokenExpired
	}

	next := user
	next.EmailVerified = true
	next.Status = domain.StatusActive
	next.EmailVerificationToken = ""
	next.EmailVerificationTokenExpiry = nil
	next.UpdatedAt = now

	event := buildLifecycleEvent(next, EventEmailVerified, routingKeyEmailVerified, now)
	if err := s.users.UpdateWithOutboxTx(ctx, next, event); err != nil {
		return UserItem{}, fmt.Errorf("verify email: persist: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, next.Email, next.FullName()); err != nil {
		slog.Warn("welcome email send failed",
			slog.String("module", "user-service"),
			slog.String("layer", "application"),
			slog.String("operation", "VerifyEmail"),
			slog.String("user_id", next.UserID.String()),
			slog.String("error", err.Error()))
	}
	return toUserItem(next), nil
}

// ResendVerification rotates the verification token for an unverified account.
// The previous token is invalidated by the overwrite.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	now := s.nowFn()
	expiry := now.Add(s.cfg.VerificationTTL)
	next := user
	next.EmailVerificationToken = s.tokens.NewToken()
	next.EmailVerificationTokenExpiry = &expiry
	next.UpdatedAt = now

	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("resend verification: persist: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, next.Email, next.EmailVerificationToken); err != nil {
		slog.Warn("verification email send failed",
			slog.String("module", "user-service"),
			slog.String("layer", "application"),
			slog.String("operation", "ResendVerification"),
			slog.String("user_id", next.UserID.String()),
			slog.String("error", err.Error()))
	}
	return nil
}
