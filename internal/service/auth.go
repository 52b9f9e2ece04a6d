// Package service holds the authentication flows and the admin operations on
// users and tenants. It returns *Error values whose Kind the HTTP layer maps
// to a status code.
package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/pulak-sarmah/e-com-auth-service/internal/events"
	"github.com/pulak-sarmah/e-com-auth-service/internal/hash"
	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/search"
	"github.com/pulak-sarmah/e-com-auth-service/internal/throttle"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

const (
	msgEmailTaken      = "Email is already exists!"
	msgBadCredentials  = "Email or password does not match."
	msgInvalidUser     = "Invalid user"
	msgInvalidRefresh  = "Refresh token is invalid or has been revoked"
	msgTooManyAttempts = "Too many failed login attempts, try again later"
)

// AuthContext is what the gate extracts from a verified token. TokenID is
// only set for refresh tokens.
type AuthContext struct {
	Subject string
	Role    models.Role
	TokenID string
}

// UserID parses the subject back into the numeric user id.
func (a AuthContext) UserID() (uint, error) {
	id, err := strconv.ParseUint(a.Subject, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

type AuthResult struct {
	User   *models.User
	Tokens transport.TokenPair
}

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Codec
	Events   events.Publisher
	Index    search.Index
	Throttle throttle.Limiter
}

// NewAuthService fills the optional collaborators with no-ops.
func NewAuthService(r *repo.GormRepo, codec *tokens.Codec, pub events.Publisher, idx search.Index, lim throttle.Limiter) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	if idx == nil {
		idx = search.Nop{}
	}
	if lim == nil {
		lim = throttle.Nop{}
	}
	return &AuthService{Repo: r, Tokens: codec, Events: pub, Index: idx, Throttle: lim}
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Normalize()
	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}

	taken, err := s.Repo.EmailExists(ctx, req.Email)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot check email", "error", err)
		return nil, internalErr(err)
	}
	if taken {
		return nil, newError(KindConflict, msgEmailTaken, repo.ErrEmailTaken)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return nil, internalErr(err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, newError(KindConflict, msgEmailTaken, err)
		}
		l.Error("register_failed", "status", 500, "reason", "cannot create user", "error", err)
		return nil, internalErr(err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue tokens", "user_id", user.ID, "error", err)
		return nil, internalErr(err)
	}

	s.publish(ctx, events.ForUser(events.UserRegistered, user))
	s.index(ctx, user)
	l.Info("user_registered", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login answers unknown email and wrong password identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := transport.LoginRequest{Email: email, Password: password}
	req.Normalize()
	email = req.Email
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := defaultValidator.Validate(&req); err != nil {
		return nil, err
	}

	allowed, err := s.Throttle.Allow(ctx, email)
	if err != nil {
		l.Warn("login_throttle_unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		l.Warn("login_failed", "status", 429, "reason", "too many attempts")
		return nil, newError(KindRateLimited, msgTooManyAttempts, nil)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
		l.Error("login_failed", "status", 500, "reason", "cannot load user", "error", err)
		return nil, internalErr(err)
	}
	if user == nil || !hash.CheckPassword(user.PasswordHash, password) {
		if err := s.Throttle.Fail(ctx, email); err != nil {
			l.Warn("login_throttle_unavailable", "error", err)
		}
		l.Warn("login_failed", "status", 400, "reason", "bad credentials")
		return nil, newError(KindAuthentication, msgBadCredentials, nil)
	}

	if err := s.Throttle.Reset(ctx, email); err != nil {
		l.Warn("login_throttle_unavailable", "error", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "user_id", user.ID, "error", err)
		return nil, internalErr(err)
	}

	s.publish(ctx, events.ForUser(events.UserLoggedIn, user))
	l.Info("user_logged_in", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh rotates the refresh token named by ac.TokenID. The new record is
// created before the old one is deleted, inside one transaction; if the old
// record is already gone the whole rotation is refused.
func (s *AuthService) Refresh(ctx context.Context, ac AuthContext) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "sub", ac.Subject)

	userID, err := ac.UserID()
	if err != nil {
		return nil, newError(KindValidation, msgInvalidUser, err)
	}
	oldID, err := uuid.Parse(ac.TokenID)
	if err != nil {
		return nil, newError(KindAuthentication, msgInvalidRefresh, err)
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("refresh_failed", "status", 400, "reason", "user not found")
			return nil, newError(KindValidation, msgInvalidUser, err)
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot load user", "error", err)
		return nil, internalErr(err)
	}

	sub := subject(user.ID)
	access, accessExp, err := s.Tokens.GenerateAccess(sub, user.Role)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, internalErr(err)
	}

	rec, err := s.Repo.RotateRefresh(ctx, user.ID, oldID, s.Tokens.Now().Add(s.Tokens.RefreshTTL()))
	if err != nil {
		if errors.Is(err, repo.ErrRefreshNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token already used or revoked", "jti", ac.TokenID)
			return nil, newError(KindAuthentication, msgInvalidRefresh, err)
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot rotate refresh token", "error", err)
		return nil, internalErr(err)
	}

	refresh, refreshExp, err := s.Tokens.GenerateRefresh(sub, user.Role, rec.ID.String())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, internalErr(err)
	}

	s.publish(ctx, events.ForUser(events.TokenRefreshed, user))
	l.Info("token_refreshed", "user_id", user.ID, "old_jti", ac.TokenID, "new_jti", rec.ID)
	return &AuthResult{
		User: user,
		Tokens: transport.TokenPair{
			AccessToken:  access,
			AccessExp:    accessExp,
			RefreshToken: refresh,
			RefreshExp:   refreshExp,
		},
	}, nil
}

// Logout deletes the refresh record; deleting an absent record is fine.
func (s *AuthService) Logout(ctx context.Context, ac AuthContext) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "sub", ac.Subject)

	id, err := uuid.Parse(ac.TokenID)
	if err != nil {
		return newError(KindAuthentication, msgInvalidRefresh, err)
	}
	if err := s.Repo.DeleteRefresh(ctx, id); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot delete refresh token", "error", err)
		return internalErr(err)
	}

	if userID, err := ac.UserID(); err == nil {
		s.publish(ctx, events.Event{Type: events.UserLoggedOut, UserID: userID, Role: ac.Role, At: s.Tokens.Now().UTC()})
	}
	l.Info("user_logged_out", "jti", ac.TokenID)
	return nil
}

// Self resolves the caller's own account. A valid token for a deleted
// account is reported as not found.
func (s *AuthService) Self(ctx context.Context, ac AuthContext) (*models.User, error) {
	userID, err := ac.UserID()
	if err != nil {
		return nil, newError(KindNotFound, "User not found", err)
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, newError(KindNotFound, "User not found", err)
		}
		logging.FromContext(ctx).Error("self_failed", "status", 500, "error", err)
		return nil, internalErr(err)
	}
	return user, nil
}

// SweepExpired drops refresh records past their expiry.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredRefresh(ctx, s.Tokens.Now())
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (transport.TokenPair, error) {
	sub := subject(user.ID)

	access, accessExp, err := s.Tokens.GenerateAccess(sub, user.Role)
	if err != nil {
		return transport.TokenPair{}, err
	}

	rec, err := s.Repo.PersistRefresh(ctx, user.ID, s.Tokens.Now().Add(s.Tokens.RefreshTTL()))
	if err != nil {
		return transport.TokenPair{}, err
	}

	refresh, refreshExp, err := s.Tokens.GenerateRefresh(sub, user.Role, rec.ID.String())
	if err != nil {
		return transport.TokenPair{}, err
	}

	return transport.TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

// publish never fails the caller: events are best effort.
func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

func (s *AuthService) index(ctx context.Context, u *models.User) {
	if err := s.Index.IndexUser(ctx, u); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "user_id", u.ID, "error", err)
	}
}

func subject(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
