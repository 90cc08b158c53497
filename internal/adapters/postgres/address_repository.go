package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type addressRepository struct {
	db *gorm.DB
}

func (r *addressRepository) FindByID(ctx context.Context, addressID uuid.UUID) (domain.Address, error) {
	var rec addressModel
	if err := r.db.WithContext(ctx).Where("address_id = ?", addressID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Address{}, domain.ErrAddressNotFound
		}
		return domain.Address{}, err
	}
	return toDomainAddress(rec), nil
}

func (r *addressRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	var rows []addressModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	addresses := make([]domain.Address, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, toDomainAddress(row))
	}
	return addresses, nil
}

// InsertTx creates the address. The user's address rows are locked first and
// the default flag is decided under that lock: a requested default demotes
// every sibling, and when no default exists among the locked rows the new
// address becomes the default regardless of the request. Concurrent writers
// for the same user serialize on the same rows, so the single-default
// invariant holds whatever commits in between.
func (r *addressRepository) InsertTx(ctx context.Context, address domain.Address, wantDefault bool) (domain.Address, error) {
	rec := toAddressModel(address)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var siblings []addressModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", address.UserID).
			Find(&siblings).Error; err != nil {
			return err
		}

		hasDefault := false
		for _, s := range siblings {
			if s.IsDefault {
				hasDefault = true
				break
			}
		}
		if wantDefault && hasDefault {
			if err := tx.Model(&addressModel{}).
				Where("user_id = ? AND is_default", address.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		rec.IsDefault = wantDefault || !hasDefault
		return tx.Create(&rec).Error
	})
	if err != nil {
		return domain.Address{}, err
	}
	return toDomainAddress(rec), nil
}

func (r *addressRepository) Update(ctx context.Context, address domain.Address) (domain.Address, error) {
	rec := toAddressModel(address)
	res := r.db.WithContext(ctx).Model(&addressModel{}).
		Where("address_id = ? AND user_id = ?", address.AddressID, address.UserID).
		Select("street", "city", "state", "postal_code", "country", "type", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return domain.Address{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return r.FindByID(ctx, address.AddressID)
}

func (r *addressRepository) DeleteTx(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec addressModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address_id = ? AND user_id = ?", addressID, userID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAddressNotFound
			}
			return err
		}

		if err := tx.Where("address_id = ?", addressID).Delete(&addressModel{}).Error; err != nil {
			return err
		}
		if !rec.IsDefault {
			return nil
		}

		// The default went away; promote the oldest remaining address.
		var next addressModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Take(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&addressModel{}).
			Where("address_id = ?", next.AddressID).
			Update("is_default", true).Error
	})
}

func (r *addressRepository) SetDefaultTx(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := demoteDefaults(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&addressModel{}).
			Where("address_id = ? AND user_id = ?", addressID, userID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAddressNotFound
		}
		return nil
	})
}

// demoteDefaults locks the user's addresses and clears every default flag.
// The lock serializes concurrent default changes for the same user.
func demoteDefaults(tx *gorm.DB, userID uuid.UUID) error {
	var rows []addressModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return err
	}
	return tx.Model(&addressModel{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}
