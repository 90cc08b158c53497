package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
)

func (s *Service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressItem, error) {
	addresses, err := s.addresses.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	items := make([]AddressItem, 0, len(addresses))
	for _, a := range addresses {
		items = append(items, toAddressItem(a))
	}
	return items, nil
}

func (s *Service) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (AddressItem, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return AddressItem{}, err
	}
	return toAddressItem(address), nil
}

// CreateAddress inserts an address for the user. Whether the new address
// becomes the default is decided by the repository inside the insert
// transaction, so a concurrent delete of the current default can never leave
// the user with addresses but no default.
func (s *Service) CreateAddress(ctx context.Context, userID uuid.UUID, req AddressRequest) (AddressItem, error) {
	if err := validateAddressRequest(req); err != nil {
		return AddressItem{}, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return AddressItem{}, err
	}

	now := s.nowFn()
	address := domain.Address{
		AddressID:  uuid.New(),
		UserID:     userID,
		Street:     strings.TrimSpace(req.Street),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
		Type:       domain.AddressType(req.Type),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.addresses.InsertTx(ctx, address, req.IsDefault)
	if err != nil {
		return AddressItem{}, fmt.Errorf("create address: persist: %w", err)
	}
	return toAddressItem(created), nil
}

// UpdateAddress changes field values only. The default flag moves exclusively
// through SetDefaultAddress so the invariant has a single write path.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, req AddressRequest) (AddressItem, error) {
	if err := validateAddressRequest(req); err != nil {
		return AddressItem{}, err
	}
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return AddressItem{}, err
	}

	next := address
	next.Street = strings.TrimSpace(req.Street)
	next.City = strings.TrimSpace(req.City)
	next.State = strings.TrimSpace(req.State)
	next.PostalCode = strings.TrimSpace(req.PostalCode)
	next.Country = strings.TrimSpace(req.Country)
	next.Type = domain.AddressType(req.Type)
	next.UpdatedAt = s.nowFn()

	updated, err := s.addresses.Update(ctx, next)
	if err != nil {
		return AddressItem{}, fmt.Errorf("update address: persist: %w", err)
	}
	return toAddressItem(updated), nil
}

// DeleteAddress removes the address. When the default goes away and other
// addresses remain, the repository promotes one in the same transaction so the
// user is never left defaultless.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.ownedAddress(ctx, userID, addressID); err != nil {
		return err
	}
	if err := s.addresses.DeleteTx(ctx, userID, addressID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (AddressItem, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return AddressItem{}, err
	}
	if err := s.addresses.SetDefaultTx(ctx, userID, addressID); err != nil {
		return AddressItem{}, fmt.Errorf("set default address: %w", err)
	}
	address.IsDefault = true
	address.UpdatedAt = s.nowFn()
	return toAddressItem(address), nil
}

// ownedAddress fetches the address and enforces ownership. A foreign address
// reads as not found to avoid confirming its existence.
func (s *Service) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (domain.Address, error) {
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return domain.Address{}, err
	}
	if address.UserID != userID {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return address, nil
}
