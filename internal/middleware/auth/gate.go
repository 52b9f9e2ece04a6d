// Package auth is the access control gate: echo middleware that authenticates
// the access or refresh cookie and authorizes by role.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	accessKey  = "auth"
	refreshKey = "auth_refresh"
)

var (
	errRevoked = errors.New("refresh token revoked")
	errStore   = errors.New("refresh store unavailable")
)

// RefreshStore reports whether a refresh-token record is still live.
type RefreshStore interface {
	RefreshExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Gate struct {
	Tokens *tokens.Codec
	Store  RefreshStore
}

// Authenticate requires a valid access token in the accessToken cookie. Only
// the signature, issuer and expiry are checked; no store is consulted.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  accessKey,
		TokenLookup: "cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			claims, err := g.Tokens.ParseAccess(raw)
			if err != nil {
				return nil, err
			}
			return service.AuthContext{Subject: claims.Subject, Role: claims.Role}, nil
		},
		ErrorHandler: unauthorized("access"),
	})
}

// AuthenticateRefresh requires a refresh token whose record still exists.
func (g *Gate) AuthenticateRefresh() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  refreshKey,
		TokenLookup: "cookie:" + RefreshCookie,
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			claims, err := g.Tokens.ParseRefresh(raw)
			if err != nil {
				return nil, err
			}
			id, err := uuid.Parse(claims.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: jti is not a uuid", tokens.ErrInvalidToken)
			}
			ok, err := g.Store.RefreshExists(c.Request().Context(), id)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errStore, err)
			}
			if !ok {
				return nil, errRevoked
			}
			return service.AuthContext{Subject: claims.Subject, Role: claims.Role, TokenID: claims.ID}, nil
		},
		ErrorHandler: unauthorized("refresh"),
	})
}

func unauthorized(kind string) func(c echo.Context, err error) error {
	return func(c echo.Context, err error) error {
		l := logging.FromContext(c.Request().Context())
		if errors.Is(err, errStore) {
			l.Error("auth_gate_failed", "status", 500, "token", kind, "error", err)
			return &service.Error{Kind: service.KindInternal, Msg: "Internal server error", Err: err}
		}
		l.Warn("auth_gate_rejected", "status", 401, "token", kind, "error", err)
		return &service.Error{Kind: service.KindAuthentication, Msg: "Unauthorized", Err: err}
	}
}
