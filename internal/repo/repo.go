// Package repo is the gorm-backed store for users, tenants and refresh-token
// records. Lookups that find nothing return the package sentinels rather than
// gorm.ErrRecordNotFound so callers never depend on gorm.
package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already exists")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
