package application

import (
	"time"

	"github.com/shopmesh/user-service/internal/ports"
)

// Service hosts the account lifecycle engine and the address invariant
// manager. It orchestrates ports only; every operation computes an explicit
// next state and hands it to the store, so no request mutates shared records
// in place.
type Service struct {
	cfg           Config
	users         ports.UserRepository
	addresses     ports.AddressRepository
	loginAttempts ports.LoginAttemptRepository
	revocations   ports.TokenRevocationStore
	hasher        ports.PasswordHasher
	tokens        ports.TokenIssuer
	signer        ports.TokenSigner
	mailer        ports.Mailer
	nowFn         func() time.Time
}

type Config struct {
	DefaultRole          string
	AdminRole            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	VerificationTTL      time.Duration
	ResetTTL             time.Duration
	AdminLockDuration    time.Duration
}

type Dependencies struct {
	Config        Config
	Users         ports.UserRepository
	Addresses     ports.AddressRepository
	LoginAttempts ports.LoginAttemptRepository
	Revocations   ports.TokenRevocationStore
	Hasher        ports.PasswordHasher
	Tokens        ports.TokenIssuer
	Signer        ports.TokenSigner
	Mailer        ports.Mailer
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "USER"
	}
	if cfg.AdminRole == "" {
		cfg.AdminRole = "ADMIN"
	}
	if cfg.FailedLoginThreshold <= 0 {
		cfg.FailedLoginThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 2 * time.Hour
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if cfg.AdminLockDuration <= 0 {
		// Administrative suspension reuses the dated lockout gate with a
		// horizon no transient lock ever reaches.
		cfg.AdminLockDuration = 100 * 365 * 24 * time.Hour
	}
	return &Service{
		cfg:           cfg,
		users:         deps.Users,
		addresses:     deps.Addresses,
		loginAttempts: deps.LoginAttempts,
		revocations:   deps.Revocations,
		hasher:        deps.Hasher,
		tokens:        deps.Tokens,
		signer:        deps.Signer,
		mailer:        deps.Mailer,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
