// Package transport holds the request and response bodies shared by the
// HTTP handlers, the services and pkg/authclient.
package transport

import (
	"strings"
	"time"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,alpha,min=2,max=20"`
	LastName  string `json:"lastName"  validate:"required,alpha,min=2,max=20"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8,max=20,bcrypt"`
}

func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,alpha,min=2,max=20"`
	LastName  string `json:"lastName"  validate:"required,alpha,min=2,max=20"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8,max=20,bcrypt"`
	Role      string `json:"role"      validate:"omitempty,oneof=admin manager customer"`
	TenantID  *uint  `json:"tenantId"`
}

func (r *CreateUserRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// UpdateUserRequest is a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,alpha,min=2,max=20"`
	LastName  *string `json:"lastName"  validate:"omitempty,alpha,min=2,max=20"`
	Role      *string `json:"role"      validate:"omitempty,oneof=admin manager customer"`
	TenantID  *uint   `json:"tenantId"`
}

func (r *UpdateUserRequest) Normalize() {
	trimPtr(r.FirstName)
	trimPtr(r.LastName)
	if r.Role != nil {
		*r.Role = strings.ToLower(strings.TrimSpace(*r.Role))
	}
}

type TenantRequest struct {
	Name    string `json:"name"    validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=255"`
}

func (r *TenantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
}

type UpdateTenantRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=100"`
	Address *string `json:"address" validate:"omitempty,min=1,max=255"`
}

func (r *UpdateTenantRequest) Normalize() {
	trimPtr(r.Name)
	trimPtr(r.Address)
}

// NormalizeEmail trims and lower-cases so lookups and the unique index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

type IDResponse struct {
	ID uint `json:"id"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPage[T any](data []T, total int64, page, size int) Page[T] {
	if data == nil {
		data = []T{}
	}
	offset := (page - 1) * size
	return Page[T]{
		Data: data,
		Meta: PageMeta{
			Page:       page,
			Size:       size,
			Total:      total,
			TotalPages: (total + int64(size) - 1) / int64(size),
			HasPrev:    page > 1,
			HasNext:    int64(offset+size) < total,
		},
	}
}

// TokenPair is what the handlers turn into cookies.
type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

type ErrorItem struct {
	Type       string `json:"type"`
	StatusCode int    `json:"statusCode"`
	Msg        string `json:"msg"`
	Path       string `json:"path"`
	Location   string `json:"location"`
}

type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}
