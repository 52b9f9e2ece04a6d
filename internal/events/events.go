// Package events publishes user lifecycle events for other services.
package events

import (
	"context"
	"time"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
)

const DefaultTopic = "user_events"

const (
	UserRegistered = "user_registered"
	UserLoggedIn   = "user_logged_in"
	UserLoggedOut  = "user_logged_out"
	TokenRefreshed = "token_refreshed"
	UserCreated    = "user_created"
	UserUpdated    = "user_updated"
	UserDeleted    = "user_deleted"
)

type Event struct {
	Type     string      `json:"type"`
	UserID   uint        `json:"userId"`
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	TenantID *uint       `json:"tenantId,omitempty"`
	At       time.Time   `json:"at"`
}

// ForUser builds an event of type typ describing u.
func ForUser(typ string, u *models.User) Event {
	return Event{
		Type:     typ,
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
		At:       time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
