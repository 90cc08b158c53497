package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
	"github.com/shopmesh/user-service/internal/ports"
)

const (
	attemptStatusSuccess = "SUCCESS"
	attemptStatusFailed  = "FAILED"

	failureUnknownAccount  = "UNKNOWN_ACCOUNT"
	failureAccountLocked   = "ACCOUNT_LOCKED"
	failureEmailUnverified = "EMAIL_NOT_VERIFIED"
	failureAccountInactive = "ACCOUNT_INACTIVE"
	failureBadPassword     = "BAD_PASSWORD"
)

// Login authenticates by username or email. Checks run in a fixed order:
// existence, lock state, verification state, then password. Lock state wins
// over password so a locked account never leaks whether the password matched.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, strings.TrimSpace(req.UsernameOrEmail))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordAttempt(ctx, nil, req, attemptStatusFailed, failureUnknownAccount)
			return LoginResponse{}, domain.ErrInvalidCredentials
		}
		return LoginResponse{}, fmt.Errorf("login: account lookup: %w", err)
	}

	now := s.nowFn()
	if user.Locked(now) {
		s.recordAttempt(ctx, &user.UserID, req, attemptStatusFailed, failureAccountLocked)
		return LoginResponse{}, domain.ErrAccountLocked
	}
	if !user.EmailVerified {
		s.recordAttempt(ctx, &user.UserID, req, attemptStatusFailed, failureEmailUnverified)
		return LoginResponse{}, domain.ErrEmailNotVerified
	}
	if user.Status == domain.StatusInactive {
		s.recordAttempt(ctx, &user.UserID, req, attemptStatusFailed, failureAccountInactive)
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if err := s.registerFailedAttempt(ctx, user, now); err != nil {
			return LoginResponse{}, err
		}
		s.recordAttempt(ctx, &user.UserID, req, attemptStatusFailed, failureBadPassword)
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	next := user
	next.FailedLoginAttempts = 0
	next.LockedUntil = nil
	next.LastLogin = &now
	next.UpdatedAt = now
	if err := s.users.Save(ctx, next); err != nil {
		return LoginResponse{}, fmt.Errorf("login: persist success state: %w", err)
	}
	s.recordAttempt(ctx, &next.UserID, req, attemptStatusSuccess, "")

	access, refresh, err := s.issueTokenPair(next, now)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
		User:         toUserItem(next),
	}, nil
}

// registerFailedAttempt bumps the counter and applies the lockout window when
// the threshold is reached. Persistence failures propagate so an attempt never
// silently goes uncounted.
func (s *Service) registerFailedAttempt(ctx context.Context, user domain.User, now time.Time) error {
	next := user
	next.FailedLoginAttempts = user.FailedLoginAttempts + 1
	next.UpdatedAt = now
	if next.FailedLoginAttempts >= s.cfg.FailedLoginThreshold {
		until := now.Add(s.cfg.LockoutDuration)
		next.LockedUntil = &until
	}
	if err := s.users.Save(ctx, next); err != nil {
		return fmt.Errorf("login: persist failed-attempt state: %w", err)
	}
	return nil
}

// ValidateToken checks an access token for protected endpoints. Refresh
// tokens are rejected here; they are only good at the refresh endpoint.
func (s *Service) ValidateToken(_ context.Context, raw string) (ports.AuthClaims, error) {
	claims, err := s.signer.ParseAndValidate(raw)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if claims.TokenUse != ports.TokenUseAccess {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	claims, err := s.signer.ParseAndValidate(refreshToken)
	if err != nil {
		return RefreshResponse{}, domain.ErrInvalidToken
	}
	if claims.TokenUse != ports.TokenUseRefresh {
		return RefreshResponse{}, domain.ErrInvalidToken
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("refresh: revocation check: %w", err)
	}
	if revoked {
		return RefreshResponse{}, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return RefreshResponse{}, domain.ErrInvalidToken
	}
	now := s.nowFn()
	if user.Locked(now) {
		return RefreshResponse{}, domain.ErrAccountLocked
	}
	if user.Status != domain.StatusActive {
		return RefreshResponse{}, domain.ErrUnauthorized
	}

	access, err := s.signer.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		TokenID:   uuid.New(),
		TokenUse:  ports.TokenUseAccess,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	})
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("refresh: sign access token: %w", err)
	}
	return RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Logout revokes the presented refresh token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.signer.ParseAndValidate(refreshToken)
	if err != nil {
		return domain.ErrInvalidToken
	}
	if claims.TokenUse != ports.TokenUseRefresh {
		return domain.ErrInvalidToken
	}
	if err := s.revocations.MarkRevoked(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: revoke token: %w", err)
	}
	return nil
}

func (s *Service) issueTokenPair(user domain.User, now time.Time) (access, refresh string, err error) {
	access, err = s.signer.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		TokenID:   uuid.New(),
		TokenUse:  ports.TokenUseAccess,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	})
	if err != nil {
		return "", "", fmt.Errorf("login: sign access token: %w", err)
	}
	refresh, err = s.signer.Sign(ports.AuthClaims{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		TokenID:   uuid.New(),
		TokenUse:  ports.TokenUseRefresh,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	})
	if err != nil {
		return "", "", fmt.Errorf("login: sign refresh token: %w", err)
	}
	return access, refresh, nil
}

// recordAttempt writes an audit row. Audit is best effort; a failed insert is
// logged and never alters the login outcome.
func (s *Service) recordAttempt(ctx context.Context, userID *uuid.UUID, req LoginRequest, status, reason string) {
	attempt := domain.LoginAttempt{
		UserID:        userID,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
		Status:        status,
		FailureReason: reason,
	}
	if err := s.loginAttempts.Insert(ctx, attempt); err != nil {
		slog.Warn("login attempt audit insert failed",
			slog.String("module", "user-service"),
			slog.String("layer", "application"),
			slog.String("operation", "Login"),
			slog.String("error", err.Error()))
	}
}
