package postgres

import (
	"errors"
	"strings"

	"github.com/shopmesh/user-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel, roles []string) domain.User {
	return domain.User{
		UserID:                       row.UserID,
		Username:                     row.Username,
		Email:                        row.Email,
		PasswordHash:                 row.PasswordHash,
		FirstName:                    row.FirstName,
		LastName:                     row.LastName,
		PhoneNumber:                  row.PhoneNumber,
		Status:                       domain.Status(row.Status),
		EmailVerified:                row.EmailVerified,
		PhoneVerified:                row.PhoneVerified,
		Roles:                        roles,
		FailedLoginAttempts:          row.FailedLoginAttempts,
		LockedUntil:                  row.LockedUntil,
		EmailVerificationToken:       derefString(row.EmailVerificationToken),
		EmailVerificationTokenExpiry: row.EmailVerificationTokenExpiry,
		PasswordResetToken:           derefString(row.PasswordResetToken),
		PasswordResetTokenExpiry:     row.PasswordResetTokenExpiry,
		LastLogin:                    row.LastLogin,
		CreatedAt:                    row.CreatedAt,
		UpdatedAt:                    row.UpdatedAt,
	}
}

func toUserModel(u domain.User) userModel {
	return userModel{
		UserID:                       u.UserID,
		Username:                     u.Username,
		Email:                        u.Email,
		PasswordHash:                 u.PasswordHash,
		FirstName:                    u.FirstName,
		LastName:                     u.LastName,
		PhoneNumber:                  u.PhoneNumber,
		Status:                       string(u.Status),
		EmailVerified:                u.EmailVerified,
		PhoneVerified:                u.PhoneVerified,
		FailedLoginAttempts:          u.FailedLoginAttempts,
		LockedUntil:                  u.LockedUntil,
		EmailVerificationToken:       nullableString(u.EmailVerificationToken),
		EmailVerificationTokenExpiry: u.EmailVerificationTokenExpiry,
		PasswordResetToken:           nullableString(u.PasswordResetToken),
		PasswordResetTokenExpiry:     u.PasswordResetTokenExpiry,
		LastLogin:                    u.LastLogin,
		CreatedAt:                    u.CreatedAt,
		UpdatedAt:                    u.UpdatedAt,
	}
}

func toDomainAddress(row addressModel) domain.Address {
	return domain.Address{
		AddressID:  row.AddressID,
		UserID:     row.UserID,
		Street:     row.Street,
		City:       row.City,
		State:      row.State,
		PostalCode: row.PostalCode,
		Country:    row.Country,
		Type:       domain.AddressType(row.Type),
		IsDefault:  row.IsDefault,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func toAddressModel(a domain.Address) addressModel {
	return addressModel{
		AddressID:  a.AddressID,
		UserID:     a.UserID,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Type:       string(a.Type),
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toDomainLoginAttempt(row loginAttemptModel) domain.LoginAttempt {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.LoginAttempt{
		ID:            row.ID,
		UserID:        row.UserID,
		AttemptAt:     row.AttemptAt,
		IPAddress:     ip,
		Status:        row.Status,
		FailureReason: row.FailureReason,
		UserAgent:     row.UserAgent,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
