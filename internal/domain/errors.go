package domain

import "errors"

var (
	// ErrInvalidCredentials hides whether the account or the password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals lockout after repeated failed attempts or an
	// administrative suspension; credential correctness is never evaluated
	// while the lock is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrEmailNotVerified blocks login until the verification flow completes.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrUserNotFound is returned when a lookup by id or email finds no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrAddressNotFound covers both a missing address id and an address owned
	// by a different user, so ownership never leaks through error shape.
	ErrAddressNotFound = errors.New("address not found")

	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")

	// ErrInvalidToken is returned when no user matches a verification or
	// reset token; used tokens resolve here because the fields are cleared.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a matching token past its expiry.
	// Token fields stay in place so a retry reports the same condition.
	ErrTokenExpired     = errors.New("token expired")
	ErrAlreadyVerified  = errors.New("email already verified")

	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	// ErrRoleResolutionFailed indicates the configured default role row is
	// missing; registration cannot proceed without it.
	ErrRoleResolutionFailed = errors.New("role resolution failed")
)
