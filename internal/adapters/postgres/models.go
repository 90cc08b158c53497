package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID                       uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	Username                     string     `gorm:"column:username"`
	Email                        string     `gorm:"column:email"`
	PasswordHash                 string     `gorm:"column:password_hash"`
	FirstName                    string     `gorm:"column:first_name"`
	LastName                     string     `gorm:"column:last_name"`
	PhoneNumber                  string     `gorm:"column:phone_number"`
	Status                       string     `gorm:"column:status"`
	EmailVerified                bool       `gorm:"column:email_verified"`
	PhoneVerified                bool       `gorm:"column:phone_verified"`
	FailedLoginAttempts          int        `gorm:"column:failed_login_attempts"`
	LockedUntil                  *time.Time `gorm:"column:locked_until"`
	EmailVerificationToken       *string    `gorm:"column:email_verification_token"`
	EmailVerificationTokenExpiry *time.Time `gorm:"column:email_verification_token_expiry"`
	PasswordResetToken           *string    `gorm:"column:password_reset_token"`
	PasswordResetTokenExpiry     *time.Time `gorm:"column:password_reset_token_expiry"`
	LastLogin                    *time.Time `gorm:"column:last_login"`
	CreatedAt                    time.Time  `gorm:"column:created_at"`
	UpdatedAt                    time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	RoleID    uuid.UUID `gorm:"column:role_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (roleModel) TableName() string { return "roles" }

type userRoleModel struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	RoleID uuid.UUID `gorm:"column:role_id;type:uuid;primaryKey"`
}

func (userRoleModel) TableName() string { return "users_roles" }

type addressModel struct {
	AddressID  uuid.UUID `gorm:"column:address_id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid"`
	Street     string    `gorm:"column:street"`
	City       string    `gorm:"column:city"`
	State      string    `gorm:"column:state"`
	PostalCode string    `gorm:"column:postal_code"`
	Country    string    `gorm:"column:country"`
	Type       string    `gorm:"column:type"`
	IsDefault  bool      `gorm:"column:is_default"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (addressModel) TableName() string { return "addresses" }

type loginAttemptModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	UserID        *uuid.UUID `gorm:"column:user_id"`
	AttemptAt     time.Time  `gorm:"column:attempt_at"`
	IPAddress     *string    `gorm:"column:ip_address"`
	Status        string     `gorm:"column:status"`
	FailureReason string     `gorm:"column:failure_reason"`
	UserAgent     string     `gorm:"column:user_agent"`
}

func (loginAttemptModel) TableName() string { return "login_attempts" }

type userOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	RoutingKey     string     `gorm:"column:routing_key"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (userOutboxModel) TableName() string { return "user_outbox" }
