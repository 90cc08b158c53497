package application_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/application"
	"github.com/shopmesh/user-service/internal/domain"
	"github.com/shopmesh/user-service/internal/ports"
)

func TestRegisterCreatesPendingAccountWithVerificationToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.register(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.Status != string(domain.StatusPendingVerification) {
		t.Fatalf("expected pending status, got %s", res.Status)
	}
	if res.EmailVerified {
		t.Fatalf("new account must not be verified")
	}

	stored := f.users.mustGet(t, res.UserID)
	if stored.EmailVerificationToken == "" || stored.EmailVerificationTokenExpiry == nil {
		t.Fatalf("expected verification token on new account")
	}
	if stored.PasswordHash == "Crimson42Fox" {
		t.Fatalf("password must not be stored in plaintext")
	}
	if len(f.users.events) != 1 || f.users.events[0].EventType != application.EventUserRegistered {
		t.Fatalf("expected USER_REGISTERED outbox event, got %+v", f.users.events)
	}
	if len(f.mailer.verifications) != 1 || f.mailer.verifications[0].to != "alice@example.com" {
		t.Fatalf("expected verification email, got %+v", f.mailer.verifications)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.register(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := f.register(ctx, "alice", "other@example.com"); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	if _, err := f.register(ctx, "bob", "alice@example.com"); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	for _, password := range []string{"Sh0rt", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		_, err := f.service.Register(ctx, application.RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: password,
		})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("password %q: expected invalid input, got %v", password, err)
		}
	}
}

func TestVerifyEmailActivatesAccountAndConsumesToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.register(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token := f.users.mustGet(t, res.UserID).EmailVerificationToken

	verified, err := f.service.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("verify email failed: %v", err)
	}
	if verified.Status != string(domain.StatusActive) || !verified.EmailVerified {
		t.Fatalf("expected active verified account, got %+v", verified)
	}

	stored := f.users.mustGet(t, res.UserID)
	if stored.EmailVerificationToken != "" || stored.EmailVerificationTokenExpiry != nil {
		t.Fatalf("verification token must be cleared after use")
	}
	last := f.users.events[len(f.users.events)-1]
	if last.EventType != application.EventEmailVerified {
		t.Fatalf("expected EMAIL_VERIFIED event, got %s", last.EventType)
	}
	if len(f.mailer.welcomes) != 1 {
		t.Fatalf("expected welcome email after verification")
	}

	// Single use: the same token is gone now.
	if _, err := f.service.VerifyEmail(ctx, token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token on reuse, got %v", err)
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.register(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	f.users.mutate(res.UserID, func(u *domain.User) {
		past := time.Now().UTC().Add(-time.Minute)
		u.EmailVerificationTokenExpiry = &past
	})

	token := f.users.mustGet(t, res.UserID).EmailVerificationToken
	if _, err := f.service.VerifyEmail(ctx, token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
	if f.users.mustGet(t, res.UserID).EmailVerified {
		t.Fatalf("expired token must not verify the account")
	}
}

func TestResendVerificationInvalidatesPreviousToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res, err := f.register(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	oldToken := f.users.mustGet(t, res.UserID).EmailVerificationToken

	if err := f.service.ResendVerification(ctx, "alice@example.com"); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	newToken := f.users.mustGet(t, res.UserID).EmailVerificationToken
	if newToken == oldToken {
		t.Fatalf("resend must rotate the verification token")
	}
	if _, err := f.service.VerifyEmail(ctx, oldToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("old token must be dead after resend, got %v", err)
	}
	if _, err := f.service.VerifyEmail(ctx, newToken); err != nil {
		t.Fatalf("new token should verify: %v", err)
	}
	if err := f.service.ResendVerification(ctx, "alice@example.com"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
}

func TestLoginHappyPathResetsFailureState(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	res := f.registerVerified(t, ctx, "alice", "alice@example.com")
	f.users.mutate(res.UserID, func(u *domain.User) {
		u.FailedLoginAttempts = 3
	})

	loginRes, err := f.login(ctx, "alice", "Crimson42Fox")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loginRes.AccessToken == "" || loginRes.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", loginRes)
	}

	stored := f.users.mustGet(t, res.UserID)
	if stored.FailedLoginAttempts != 0 || stored.LockedUntil != nil {
		t.Fatalf("success must reset failure state, got %+v", stored)
	}
	if stored.LastLogin == nil {
		t.Fatalf("expected last login timestamp")
	}
}

func TestLoginByEmailIdentifier(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, ctx, "alice", "alice@example.com")

	if _, err := f.login(ctx, "alice@example.com", "Crimson42Fox"); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestLoginEmailIdentifierIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, ctx, "alice", "Alice@Example.com")

	// Registration stores the email lowercased; any casing must log in.
	if _, err := f.login(ctx, "ALICE@EXAMPLE.COM", "Crimson42Fox"); err != nil {
		t.Fatalf("login with upper-cased email failed: %v", err)
	}
	if _, err := f.login(ctx, "Alice@Example.com", "Crimson42Fox"); err != nil {
		t.Fatalf("login with registered casing failed: %v", err)
	}
}

func TestLoginFailureCountingAndLockout(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	for i := 0; i < 4; i++ {
		if _, err := f.login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
	}
	stored := f.users.mustGet(t, res.UserID)
	if stored.FailedLoginAttempts != 4 || stored.LockedUntil != nil {
		t.Fatalf("four failures must not lock, got %+v", stored)
	}

	// Fifth failure crosses the threshold.
	if _, err := f.login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials on fifth failure, got %v", err)
	}
	stored = f.users.mustGet(t, res.UserID)
	if stored.FailedLoginAttempts != 5 || stored.LockedUntil == nil {
		t.Fatalf("fifth failure must lock, got %+v", stored)
	}

	// While locked even the right password is refused, without revealing
	// whether it matched.
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected account locked, got %v", err)
	}

	// Expired locks clear on the next successful login.
	f.users.mutate(res.UserID, func(u *domain.User) {
		past := time.Now().UTC().Add(-time.Minute)
		u.LockedUntil = &past
	})
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); err != nil {
		t.Fatalf("login after lock expiry failed: %v", err)
	}
	stored = f.users.mustGet(t, res.UserID)
	if stored.FailedLoginAttempts != 0 || stored.LockedUntil != nil {
		t.Fatalf("expected failure state reset after expiry login, got %+v", stored)
	}
}

func TestLoginErrorPrecedence(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if _, err := f.login(ctx, "ghost", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown account must read as invalid credentials, got %v", err)
	}

	res, err := f.register(ctx, "pending", "pending@example.com")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := f.login(ctx, "pending", "Crimson42Fox"); !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("unverified account must refuse login, got %v", err)
	}

	// A lock outranks the verification check.
	f.users.mutate(res.UserID, func(u *domain.User) {
		until := time.Now().UTC().Add(time.Hour)
		u.LockedUntil = &until
	})
	if _, err := f.login(ctx, "pending", "Crimson42Fox"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected lock to win over verification, got %v", err)
	}

	inactive := f.registerVerified(t, ctx, "gone", "gone@example.com")
	f.users.mutate(inactive.UserID, func(u *domain.User) {
		u.Status = domain.StatusInactive
	})
	if _, err := f.login(ctx, "gone", "Crimson42Fox"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("inactive account must read as invalid credentials, got %v", err)
	}
}

func TestLoginFailedAttemptPersistenceErrorPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, ctx, "alice", "alice@example.com")

	f.users.failNextSave = errors.New("disk on fire")
	_, err := f.login(ctx, "alice", "wrong")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("persistence failure must not be masked as invalid credentials, got %v", err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.registerVerified(t, ctx, "alice", "alice@example.com")

	loginRes, err := f.login(ctx, "alice", "Crimson42Fox")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := f.service.Refresh(ctx, loginRes.RefreshToken); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	// Access tokens are not refresh currency.
	if _, err := f.service.Refresh(ctx, loginRes.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected access token rejected at refresh, got %v", err)
	}

	if err := f.service.Logout(ctx, loginRes.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.service.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected revoked refresh token, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	if err := f.service.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if len(f.mailer.resets) != 1 {
		t.Fatalf("expected reset email")
	}
	token := f.users.mustGet(t, res.UserID).PasswordResetToken
	if token == "" {
		t.Fatalf("expected persisted reset token")
	}

	// Lock the account first to prove reset clears it.
	f.users.mutate(res.UserID, func(u *domain.User) {
		until := time.Now().UTC().Add(time.Hour)
		u.LockedUntil = &until
		u.FailedLoginAttempts = 5
	})

	if err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Token:       token,
		NewPassword: "Emerald7Hawk",
	}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	stored := f.users.mustGet(t, res.UserID)
	if stored.PasswordResetToken != "" || stored.PasswordResetTokenExpiry != nil {
		t.Fatalf("reset token must be cleared after use")
	}
	if stored.LockedUntil != nil || stored.FailedLoginAttempts != 0 {
		t.Fatalf("reset must clear lockout state, got %+v", stored)
	}

	if _, err := f.login(ctx, "alice", "Emerald7Hawk"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	// Token is single use.
	if err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Token:       token,
		NewPassword: "Velvet9Otter",
	}); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token on reuse, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	if err := f.service.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	f.users.mutate(res.UserID, func(u *domain.User) {
		past := time.Now().UTC().Add(-time.Minute)
		u.PasswordResetTokenExpiry = &past
	})

	token := f.users.mustGet(t, res.UserID).PasswordResetToken
	err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Token:       token,
		NewPassword: "Emerald7Hawk",
	})
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	err := f.service.ChangePassword(ctx, res.UserID, application.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "Emerald7Hawk",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := f.service.ChangePassword(ctx, res.UserID, application.ChangePasswordRequest{
		CurrentPassword: "Crimson42Fox",
		NewPassword:     "Emerald7Hawk",
	}); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := f.login(ctx, "alice", "Emerald7Hawk"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestAdminLockAndUnlock(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	if err := f.service.AdminLockUser(ctx, res.UserID); err != nil {
		t.Fatalf("admin lock failed: %v", err)
	}
	stored := f.users.mustGet(t, res.UserID)
	if stored.Status != domain.StatusSuspended || stored.LockedUntil == nil {
		t.Fatalf("expected suspended locked account, got %+v", stored)
	}
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected locked login, got %v", err)
	}

	if err := f.service.AdminUnlockUser(ctx, res.UserID); err != nil {
		t.Fatalf("admin unlock failed: %v", err)
	}
	stored = f.users.mustGet(t, res.UserID)
	if stored.Status != domain.StatusActive || stored.LockedUntil != nil || stored.FailedLoginAttempts != 0 {
		t.Fatalf("expected restored account, got %+v", stored)
	}
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); err != nil {
		t.Fatalf("login after unlock failed: %v", err)
	}
}

func TestAdminDeleteIsSoft(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	if err := f.service.AdminDeleteUser(ctx, res.UserID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	stored := f.users.mustGet(t, res.UserID)
	if stored.Status != domain.StatusInactive {
		t.Fatalf("expected inactive account, got %s", stored.Status)
	}
	if _, err := f.login(ctx, "alice", "Crimson42Fox"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("deactivated account must refuse login, got %v", err)
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	first, err := f.service.CreateAddress(ctx, res.UserID, addressReq("1 Main St", false))
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	if !first.IsDefault {
		t.Fatalf("first address must be default even when not requested")
	}

	second, err := f.service.CreateAddress(ctx, res.UserID, addressReq("2 Side St", false))
	if err != nil {
		t.Fatalf("create second address failed: %v", err)
	}
	if second.IsDefault {
		t.Fatalf("second address must not steal the default")
	}
	f.assertSingleDefault(t, ctx, res.UserID, first.AddressID)
}

func TestCreateDefaultAddressDemotesSiblings(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	if _, err := f.service.CreateAddress(ctx, res.UserID, addressReq("1 Main St", false)); err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	second, err := f.service.CreateAddress(ctx, res.UserID, addressReq("2 Side St", true))
	if err != nil {
		t.Fatalf("create second address failed: %v", err)
	}
	if !second.IsDefault {
		t.Fatalf("explicit default request must win")
	}
	f.assertSingleDefault(t, ctx, res.UserID, second.AddressID)
}

func TestSetDefaultAddressMovesTheFlag(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	first, _ := f.service.CreateAddress(ctx, res.UserID, addressReq("1 Main St", false))
	second, _ := f.service.CreateAddress(ctx, res.UserID, addressReq("2 Side St", false))

	if _, err := f.service.SetDefaultAddress(ctx, res.UserID, second.AddressID); err != nil {
		t.Fatalf("set default failed: %v", err)
	}
	f.assertSingleDefault(t, ctx, res.UserID, second.AddressID)

	if _, err := f.service.SetDefaultAddress(ctx, res.UserID, first.AddressID); err != nil {
		t.Fatalf("set default back failed: %v", err)
	}
	f.assertSingleDefault(t, ctx, res.UserID, first.AddressID)
}

func TestDeleteDefaultAddressPromotesRemaining(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	first, _ := f.service.CreateAddress(ctx, res.UserID, addressReq("1 Main St", false))
	second, _ := f.service.CreateAddress(ctx, res.UserID, addressReq("2 Side St", false))

	if err := f.service.DeleteAddress(ctx, res.UserID, first.AddressID); err != nil {
		t.Fatalf("delete default address failed: %v", err)
	}
	f.assertSingleDefault(t, ctx, res.UserID, second.AddressID)

	if err := f.service.DeleteAddress(ctx, res.UserID, second.AddressID); err != nil {
		t.Fatalf("delete last address failed: %v", err)
	}
	remaining, err := f.service.ListAddresses(ctx, res.UserID)
	if err != nil {
		t.Fatalf("list addresses failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no addresses, got %d", len(remaining))
	}
}

func TestCreateAddressSurvivesConcurrentDefaultDelete(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	first, err := f.service.CreateAddress(ctx, res.UserID, addressReq("1 Main St", false))
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	if !first.IsDefault {
		t.Fatalf("first address must be default")
	}

	// The user's only (default) address is deleted after the create request
	// was accepted but before its insert transaction runs.
	f.addresses.beforeInsert = func() {
		if err := f.service.DeleteAddress(ctx, res.UserID, first.AddressID); err != nil {
			t.Errorf("interleaved delete failed: %v", err)
		}
	}

	second, err := f.service.CreateAddress(ctx, res.UserID, addressReq("2 Side St", false))
	if err != nil {
		t.Fatalf("create second address failed: %v", err)
	}
	if !second.IsDefault {
		t.Fatalf("sole remaining address must be default")
	}
	f.addresses.beforeInsert = nil
	f.assertSingleDefault(t, ctx, res.UserID, second.AddressID)
}

func TestForeignAddressReadsAsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	alice := f.registerVerified(t, ctx, "alice", "alice@example.com")
	bob := f.registerVerified(t, ctx, "bob", "bob@example.com")

	addr, err := f.service.CreateAddress(ctx, alice.UserID, addressReq("1 Main St", false))
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}

	if _, err := f.service.GetAddress(ctx, bob.UserID, addr.AddressID); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected not found for foreign address, got %v", err)
	}
	if err := f.service.DeleteAddress(ctx, bob.UserID, addr.AddressID); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected not found deleting foreign address, got %v", err)
	}
}

func TestUpdateProfileAppliesPartialFields(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := f.registerVerified(t, ctx, "alice", "alice@example.com")

	firstName := "Alice"
	updated, err := f.service.UpdateProfile(ctx, res.UserID, application.UpdateProfileRequest{
		FirstName: &firstName,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.FirstName != "Alice" {
		t.Fatalf("expected first name update, got %+v", updated)
	}

	phone := "+15550100"
	updated, err = f.service.UpdateProfile(ctx, res.UserID, application.UpdateProfileRequest{
		PhoneNumber: &phone,
	})
	if err != nil {
		t.Fatalf("update phone failed: %v", err)
	}
	if updated.FirstName != "Alice" {
		t.Fatalf("untouched fields must survive, got %+v", updated)
	}
	if updated.PhoneVerified {
		t.Fatalf("phone change must drop phone verification")
	}
}

func addressReq(street string, isDefault bool) application.AddressRequest {
	return application.AddressRequest{
		Street:     street,
		City:       "Springfield",
		State:      "OR",
		PostalCode: "97477",
		Country:    "US",
		Type:       "SHIPPING",
		IsDefault:  isDefault,
	}
}

// --- fixture ---

type fixture struct {
	service   *application.Service
	users     *fakeUsers
	addresses *fakeAddresses
	mailer    *recordingMailer
}

func newFixture() *fixture {
	users := &fakeUsers{byID: map[uuid.UUID]domain.User{}}
	addresses := &fakeAddresses{byID: map[uuid.UUID]domain.Address{}}
	mailer := &recordingMailer{}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			FailedLoginThreshold: 5,
			LockoutDuration:      30 * time.Minute,
			VerificationTTL:      24 * time.Hour,
			ResetTTL:             2 * time.Hour,
			AccessTokenTTL:       time.Hour,
			RefreshTokenTTL:      30 * 24 * time.Hour,
		},
		Users:         users,
		Addresses:     addresses,
		LoginAttempts: &fakeLoginAttempts{},
		Revocations:   &fakeRevocations{revoked: map[uuid.UUID]bool{}},
		Hasher:        fakeHasher{},
		Tokens:        &fakeTokenIssuer{},
		Signer:        &fakeSigner{tokens: map[string]ports.AuthClaims{}},
		Mailer:        mailer,
	})

	return &fixture{service: svc, users: users, addresses: addresses, mailer: mailer}
}

func (f *fixture) register(ctx context.Context, username, email string) (application.UserItem, error) {
	return f.service.Register(ctx, application.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "Crimson42Fox",
	})
}

func (f *fixture) registerVerified(t *testing.T, ctx context.Context, username, email string) application.UserItem {
	t.Helper()
	res, err := f.register(ctx, username, email)
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}
	token := f.users.mustGet(t, res.UserID).EmailVerificationToken
	verified, err := f.service.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("verify %s failed: %v", username, err)
	}
	return verified
}

func (f *fixture) login(ctx context.Context, identifier, password string) (application.LoginResponse, error) {
	return f.service.Login(ctx, application.LoginRequest{
		UsernameOrEmail: identifier,
		Password:        password,
		IPAddress:       "127.0.0.1",
		UserAgent:       "unit-test",
	})
}

func (f *fixture) assertSingleDefault(t *testing.T, ctx context.Context, userID uuid.UUID, want uuid.UUID) {
	t.Helper()
	addresses, err := f.service.ListAddresses(ctx, userID)
	if err != nil {
		t.Fatalf("list addresses failed: %v", err)
	}
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			if a.AddressID != want {
				t.Fatalf("wrong default address: got %s want %s", a.AddressID, want)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default address, got %d", defaults)
	}
}

// --- fakes ---

type fakeUsers struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]domain.User
	events       []ports.OutboxEvent
	failNextSave error
}

func (f *fakeUsers) CreateWithOutboxTx(_ context.Context, user domain.User, event ports.OutboxEvent) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == user.Username {
			return domain.User{}, domain.ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return domain.User{}, domain.ErrDuplicateEmail
		}
	}
	f.byID[user.UserID] = user
	f.events = append(f.events, event)
	return user, nil
}

func (f *fakeUsers) UpdateWithOutboxTx(_ context.Context, user domain.User, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[user.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[user.UserID] = user
	f.events = append(f.events, event)
	return nil
}

func (f *fakeUsers) Save(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextSave != nil {
		err := f.failNextSave
		f.failNextSave = nil
		return err
	}
	if _, ok := f.byID[user.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[user.UserID] = user
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.Email == email })
}

func (f *fakeUsers) FindByUsernameOrEmail(_ context.Context, identifier string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool {
		return u.Username == identifier || u.Email == strings.ToLower(identifier)
	})
}

func (f *fakeUsers) FindByEmailVerificationToken(_ context.Context, token string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.EmailVerificationToken != "" && u.EmailVerificationToken == token })
}

func (f *fakeUsers) FindByPasswordResetToken(_ context.Context, token string) (domain.User, error) {
	return f.findBy(func(u domain.User) bool { return u.PasswordResetToken != "" && u.PasswordResetToken == token })
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, err := f.findBy(func(u domain.User) bool { return u.Username == username })
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := f.findBy(func(u domain.User) bool { return u.Email == email })
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]domain.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		users = append(users, u)
	}
	total := int64(len(users))
	if offset >= len(users) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], total, nil
}

func (f *fakeUsers) findBy(match func(domain.User) bool) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (f *fakeUsers) mustGet(t *testing.T, userID uuid.UUID) domain.User {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		t.Fatalf("user %s not found in fake store", userID)
	}
	return u
}

func (f *fakeUsers) mutate(userID uuid.UUID, fn func(*domain.User)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[userID]
	fn(&u)
	f.byID[userID] = u
}

type fakeAddresses struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Address
	seq  int

	// beforeInsert lets a test interleave another mutation ahead of the
	// insert transaction.
	beforeInsert func()
}

func (f *fakeAddresses) FindByID(_ context.Context, addressID uuid.UUID) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[addressID]
	if !ok {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return a, nil
}

func (f *fakeAddresses) FindByUserID(_ context.Context, userID uuid.UUID) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownedLocked(userID), nil
}

func (f *fakeAddresses) InsertTx(_ context.Context, address domain.Address, wantDefault bool) (domain.Address, error) {
	if f.beforeInsert != nil {
		f.beforeInsert()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	hasDefault := false
	for _, a := range f.byID {
		if a.UserID == address.UserID && a.IsDefault {
			hasDefault = true
			break
		}
	}
	if wantDefault && hasDefault {
		f.clearDefaultsLocked(address.UserID)
	}
	address.IsDefault = wantDefault || !hasDefault
	f.seq++
	// Stable ordering stand-in for created_at ties in memory.
	address.CreatedAt = address.CreatedAt.Add(time.Duration(f.seq) * time.Microsecond)
	f.byID[address.AddressID] = address
	return address, nil
}

func (f *fakeAddresses) Update(_ context.Context, address domain.Address) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[address.AddressID]
	if !ok || existing.UserID != address.UserID {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	address.IsDefault = existing.IsDefault
	address.CreatedAt = existing.CreatedAt
	f.byID[address.AddressID] = address
	return address, nil
}

func (f *fakeAddresses) DeleteTx(_ context.Context, userID, addressID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[addressID]
	if !ok || existing.UserID != userID {
		return domain.ErrAddressNotFound
	}
	delete(f.byID, addressID)
	if !existing.IsDefault {
		return nil
	}
	remaining := f.ownedLocked(userID)
	if len(remaining) == 0 {
		return nil
	}
	promoted := remaining[0]
	promoted.IsDefault = true
	f.byID[promoted.AddressID] = promoted
	return nil
}

func (f *fakeAddresses) SetDefaultTx(_ context.Context, userID, addressID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[addressID]
	if !ok || existing.UserID != userID {
		return domain.ErrAddressNotFound
	}
	f.clearDefaultsLocked(userID)
	existing.IsDefault = true
	f.byID[addressID] = existing
	return nil
}

func (f *fakeAddresses) clearDefaultsLocked(userID uuid.UUID) {
	for id, a := range f.byID {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			f.byID[id] = a
		}
	}
}

func (f *fakeAddresses) ownedLocked(userID uuid.UUID) []domain.Address {
	owned := make([]domain.Address, 0)
	for _, a := range f.byID {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	for i := 1; i < len(owned); i++ {
		for j := i; j > 0 && owned[j].CreatedAt.Before(owned[j-1].CreatedAt); j-- {
			owned[j], owned[j-1] = owned[j-1], owned[j]
		}
	}
	return owned
}

type fakeLoginAttempts struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
}

func (f *fakeLoginAttempts) Insert(_ context.Context, attempt domain.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeLoginAttempts) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int, since *time.Time, status string) ([]domain.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]domain.LoginAttempt, 0)
	for _, a := range f.attempts {
		if a.UserID == nil || *a.UserID != userID {
			continue
		}
		if since != nil && a.AttemptAt.Before(*since) {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		matched = append(matched, a)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func (f *fakeRevocations) MarkRevoked(_ context.Context, tokenID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, tokenID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[tokenID], nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeTokenIssuer struct {
	mu  sync.Mutex
	seq int
}

func (f *fakeTokenIssuer) NewToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("token-%d", f.seq)
}

type fakeSigner struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]ports.AuthClaims
}

func (f *fakeSigner) Sign(claims ports.AuthClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token := fmt.Sprintf("jwt-%d", f.seq)
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.tokens[raw]
	if !ok {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	if claims.ExpiresAt.Before(time.Now().UTC()) {
		return ports.AuthClaims{}, errors.New("token expired")
	}
	return claims, nil
}

type mailRecord struct {
	to    string
	value string
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []mailRecord
	resets        []mailRecord
	welcomes      []mailRecord
}

func (m *recordingMailer) SendVerification(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, mailRecord{to: to, value: token})
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, mailRecord{to: to, value: token})
	return nil
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, mailRecord{to: to, value: name})
	return nil
}
