package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/user-service/internal/domain"
	"github.com/shopmesh/user-service/internal/ports"
)

// Lifecycle event types carried on the user-events exchange.
const (
	EventUserRegistered = "USER_REGISTERED"
	EventEmailVerified  = "EMAIL_VERIFIED"
)

const (
	routingKeyUserRegistered = "user.registered"
	routingKeyEmailVerified  = "user.email.verified"
)

type userLifecycleEvent struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func buildLifecycleEvent(u domain.User, eventType, routingKey string, at time.Time) ports.OutboxEvent {
	payload, _ := json.Marshal(userLifecycleEvent{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		EventType: eventType,
		Timestamp: at,
	})
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		RoutingKey:   routingKey,
		PartitionKey: u.UserID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}
}
