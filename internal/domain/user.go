package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusActive              Status = "ACTIVE"
	StatusSuspended           Status = "SUSPENDED"
	StatusInactive            Status = "INACTIVE"
)

// User is the canonical account aggregate.
// Lockout counters and the verification/reset token pairs live on the row so
// every lifecycle transition commits in a single store transaction.
type User struct {
	UserID        uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	PhoneNumber   string
	Status        Status
	EmailVerified bool
	PhoneVerified bool
	Roles         []string

	FailedLoginAttempts int
	LockedUntil         *time.Time

	EmailVerificationToken       string
	EmailVerificationTokenExpiry *time.Time
	PasswordResetToken           string
	PasswordResetTokenExpiry     *time.Time

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is locked at the given instant.
// Rate-limit lockouts and administrative suspensions both set LockedUntil,
// so login checks a single gate.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// HasRole reports membership in the user's role set.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// FullName joins the profile name fields for mail greetings.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// LoginAttempt records authentication outcomes for audit and history endpoints.
type LoginAttempt struct {
	ID            int64
	UserID        *uuid.UUID
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}
