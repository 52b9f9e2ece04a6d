package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pulak-sarmah/e-com-auth-service/internal/events"
	"github.com/pulak-sarmah/e-com-auth-service/internal/hash"
	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/search"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
	"github.com/pulak-sarmah/e-com-auth-service/internal/util"
)

const msgUserNotFound = "User not found"

// UserService backs the admin-only user management endpoints.
type UserService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  search.Index
}

func NewUserService(r *repo.GormRepo, pub events.Publisher, idx search.Index) *UserService {
	if pub == nil {
		pub = events.Nop{}
	}
	if idx == nil {
		idx = search.Nop{}
	}
	return &UserService{Repo: r, Events: pub, Index: idx}
}

// Create registers a user on behalf of an admin. No tokens are issued; the
// role defaults to manager.
func (s *UserService) Create(ctx context.Context, req transport.CreateUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.create")

	req.Normalize()
	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}
	role := models.RoleManager
	if r, ok := models.ParseRole(req.Role); ok {
		role = r
	}

	if err := s.checkTenant(ctx, req.TenantID); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("create_user_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return nil, internalErr(err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         role,
		TenantID:     req.TenantID,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, newError(KindConflict, msgEmailTaken, err)
		}
		l.Error("create_user_failed", "status", 500, "reason", "cannot create user", "error", err)
		return nil, internalErr(err)
	}

	s.publish(ctx, events.ForUser(events.UserCreated, user))
	s.index(ctx, user)
	l.Info("user_created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// List pages through users. A non-empty query goes through the search index
// and the hits are loaded from the database in rank order.
func (s *UserService) List(ctx context.Context, query string, page, size int) (transport.Page[models.User], error) {
	w := util.Paginate(page, size)
	query = strings.TrimSpace(query)

	if query == "" {
		users, total, err := s.Repo.ListUsers(ctx, w.Offset, w.Size)
		if err != nil {
			logging.FromContext(ctx).Error("list_users_failed", "status", 500, "error", err)
			return transport.Page[models.User]{}, internalErr(err)
		}
		return transport.NewPage(users, total, w.Page, w.Size), nil
	}

	total, ids, err := s.Index.SearchUsers(ctx, query, w.Offset, w.Size)
	if errors.Is(err, search.ErrDisabled) {
		users, total, err := s.Repo.SearchUsers(ctx, query, w.Offset, w.Size)
		if err != nil {
			logging.FromContext(ctx).Error("search_users_failed", "status", 500, "error", err)
			return transport.Page[models.User]{}, internalErr(err)
		}
		return transport.NewPage(users, total, w.Page, w.Size), nil
	}
	if err != nil {
		logging.FromContext(ctx).Error("search_users_failed", "status", 500, "error", err)
		return transport.Page[models.User]{}, internalErr(err)
	}
	users, err := s.Repo.UsersByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Error("search_users_failed", "status", 500, "error", err)
		return transport.Page[models.User]{}, internalErr(err)
	}
	return transport.NewPage(users, total, w.Page, w.Size), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, s.repoErr(ctx, "get_user_failed", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, req transport.UpdateUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update", "user_id", id)

	req.Normalize()
	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Role != nil {
		if r, ok := models.ParseRole(*req.Role); ok {
			updates["role"] = r
		}
	}
	if req.TenantID != nil {
		if err := s.checkTenant(ctx, req.TenantID); err != nil {
			return nil, err
		}
		updates["tenant_id"] = *req.TenantID
	}

	user, err := s.Repo.UpdateUser(ctx, id, updates)
	if err != nil {
		return nil, s.repoErr(ctx, "update_user_failed", err)
	}

	s.publish(ctx, events.ForUser(events.UserUpdated, user))
	s.index(ctx, user)
	l.Info("user_updated")
	return user, nil
}

// Delete removes the user and, with it, every refresh token it holds.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return s.repoErr(ctx, "delete_user_failed", err)
	}

	s.publish(ctx, events.Event{Type: events.UserDeleted, UserID: id})
	if err := s.Index.DeleteUser(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search_delete_failed", "user_id", id, "error", err)
	}
	logging.FromContext(ctx).Info("user_deleted", "user_id", id)
	return nil
}

// EnsureAdmin creates the bootstrap admin unless one already exists. It is
// safe to run on every start.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	exists, err := s.Repo.AdminExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	flag := true
	admin := &models.User{
		FirstName:    "Admin",
		LastName:     "Admin",
		Email:        NormalizeEmail(email),
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
		IsAdmin:      &flag,
	}
	if err := s.Repo.CreateUser(ctx, admin); err != nil {
		return false, err
	}
	s.index(ctx, admin)
	return true, nil
}

func (s *UserService) checkTenant(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := s.Repo.TenantExists(ctx, *id)
	if err != nil {
		return internalErr(err)
	}
	if !ok {
		return &Error{
			Kind:   KindValidation,
			Msg:    "Tenant does not exist",
			Fields: []FieldError{{Field: "tenantId", Msg: "Tenant does not exist"}},
		}
	}
	return nil
}

func (s *UserService) repoErr(ctx context.Context, event string, err error) error {
	if errors.Is(err, repo.ErrUserNotFound) {
		return newError(KindNotFound, msgUserNotFound, err)
	}
	logging.FromContext(ctx).Error(event, "status", 500, "error", err)
	return internalErr(err)
}

func (s *UserService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

func (s *UserService) index(ctx context.Context, u *models.User) {
	if err := s.Index.IndexUser(ctx, u); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "user_id", u.ID, "error", err)
	}
}
