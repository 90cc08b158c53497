package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
	"github.com/shopmesh/user-service/internal/ports"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) CreateWithOutboxTx(ctx context.Context, user domain.User, event ports.OutboxEvent) (domain.User, error) {
	var result domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toUserModel(user)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return r.classifyDuplicate(ctx, user.Username, user.Email)
			}
			return err
		}

		if err := attachRoles(tx, rec.UserID, user.Roles); err != nil {
			return err
		}

		outbox := userOutboxModel{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			RoutingKey:   event.RoutingKey,
			PartitionKey: event.PartitionKey,
			Payload:      string(event.Payload),
			CreatedAt:    event.OccurredAt,
		}
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}

		result = toDomainUser(rec, user.Roles)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result, nil
}

func (r *userRepository) UpdateWithOutboxTx(ctx context.Context, user domain.User, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveUser(tx, user); err != nil {
			return err
		}
		outbox := userOutboxModel{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			RoutingKey:   event.RoutingKey,
			PartitionKey: event.PartitionKey,
			Payload:      string(event.Payload),
			CreatedAt:    event.OccurredAt,
		}
		return tx.Create(&outbox).Error
	})
}

func (r *userRepository) Save(ctx context.Context, user domain.User) error {
	return saveUser(r.db.WithContext(ctx), user)
}

func (r *userRepository) FindByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	// Emails are stored lowercased; usernames keep their registered case.
	return r.findOne(ctx, "username = ? OR email = ?", identifier, strings.ToLower(identifier))
}

func (r *userRepository) FindByEmailVerificationToken(ctx context.Context, token string) (domain.User, error) {
	return r.findOne(ctx, "email_verification_token = ?", token)
}

func (r *userRepository) FindByPasswordResetToken(ctx context.Context, token string) (domain.User, error) {
	return r.findOne(ctx, "password_reset_token = ?", token)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []userModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		roles, err := r.loadRoles(ctx, row.UserID)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, toDomainUser(row, roles))
	}
	return users, total, nil
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	roles, err := r.loadRoles(ctx, rec.UserID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(rec, roles), nil
}

func (r *userRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) loadRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&roleModel{}).
		Select("roles.name").
		Joins("JOIN users_roles ON users_roles.role_id = roles.role_id").
		Where("users_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// classifyDuplicate re-reads after a unique violation to report which column
// collided. The lookup is read-only, so a racing delete at worst degrades the
// message, never correctness.
func (r *userRepository) classifyDuplicate(ctx context.Context, username, email string) error {
	if taken, err := r.exists(ctx, "username = ?", username); err == nil && taken {
		return domain.ErrDuplicateUsername
	}
	if taken, err := r.exists(ctx, "email = ?", email); err == nil && taken {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrDuplicateUsername
}

func saveUser(tx *gorm.DB, user domain.User) error {
	rec := toUserModel(user)
	res := tx.Model(&userModel{}).
		Where("user_id = ?", user.UserID).
		Select("*").
		Omit("user_id", "created_at").
		Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// attachRoles resolves role names to IDs and links them. Unknown role names
// mean the seed migration is missing, reported as a role resolution failure.
func attachRoles(tx *gorm.DB, userID uuid.UUID, roles []string) error {
	for _, name := range roles {
		var role roleModel
		if err := tx.Where("name = ?", name).Take(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRoleResolutionFailed
			}
			return err
		}
		link := userRoleModel{UserID: userID, RoleID: role.RoleID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}
