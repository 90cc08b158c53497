package application

import (
	"fmt"
	"strings"

	"github.com/shopmesh/user-service/internal/domain"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func validateRegisterRequest(req RegisterRequest) error {
	if normalizeUsername(req.Username) == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if len(normalizeUsername(req.Username)) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", domain.ErrInvalidInput)
	}
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", domain.ErrInvalidInput)
	}
	return domain.ValidatePassword(req.Password)
}

func validateAddressRequest(req AddressRequest) error {
	if strings.TrimSpace(req.Street) == "" {
		return fmt.Errorf("%w: street is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.City) == "" {
		return fmt.Errorf("%w: city is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Country) == "" {
		return fmt.Errorf("%w: country is required", domain.ErrInvalidInput)
	}
	if !domain.ValidAddressType(domain.AddressType(req.Type)) {
		return fmt.Errorf("%w: address type must be SHIPPING, BILLING or BOTH", domain.ErrInvalidInput)
	}
	return nil
}

func pageToOffset(page, limit int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
