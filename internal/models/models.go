package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// ParseRole accepts only the closed set of roles, case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCustomer:
		return true
	}
	return false
}

type Tenant struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Address   string    `gorm:"not null"                 json:"address"`
	CreatedAt time.Time `                                json:"createdAt"`
	UpdatedAt time.Time `                                json:"updatedAt"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	FirstName    string    `gorm:"not null"                        json:"firstName"`
	LastName     string    `gorm:"not null"                        json:"lastName"`
	Email        string    `gorm:"uniqueIndex;not null"            json:"email"`
	PasswordHash string    `gorm:"column:password;not null"        json:"-"`
	Role         Role      `gorm:"type:varchar(16);not null"       json:"role"`
	IsAdmin      *bool     `gorm:"uniqueIndex"                     json:"isAdmin,omitempty"`
	TenantID     *uint     `gorm:"index"                           json:"tenantId,omitempty"`
	Tenant       *Tenant   `gorm:"constraint:OnDelete:SET NULL;"   json:"tenant,omitempty"`
	CreatedAt    time.Time `                                       json:"createdAt"`
	UpdatedAt    time.Time `                                       json:"updatedAt"`
}

// RefreshToken is a live refresh-token record. Its ID is the jti of the
// issued token; a missing row means the token was used, revoked or swept.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID    uint      `gorm:"index;not null"                json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;"  json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"                json:"expiresAt"`
	CreatedAt time.Time `                                     json:"createdAt"`
}
