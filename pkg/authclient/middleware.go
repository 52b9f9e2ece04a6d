package authclient

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AutoRefresh guards routes of downstream services. An expired access token
// is renewed transparently with the refresh cookie and the new pair is
// written back to the browser.
type AutoRefresh struct {
	Verifier *Verifier
	Client   *Client
	Domain   string
	Secure   bool
}

func (m *AutoRefresh) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, nil)
}

func (m *AutoRefresh) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.require(next, func(claims *Claims) error {
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "You don't have enough permissions")
			}
			return nil
		})
	}
}

func (m *AutoRefresh) require(next echo.HandlerFunc, check func(*Claims) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		accessCookie, err := c.Cookie(AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Verifier.Verify(ctx, accessCookie.Value)
		if err != nil {
			if !errors.Is(err, jwt.ErrTokenExpired) {
				m.clearCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			refreshCookie, rErr := c.Cookie(RefreshCookie)
			if rErr != nil || refreshCookie.Value == "" {
				m.clearCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
			}

			session, refErr := m.Client.Refresh(ctx, refreshCookie.Value)
			if refErr != nil {
				m.clearCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
			}
			m.setCookies(c, session)

			claims, err = m.Verifier.Verify(ctx, session.AccessToken)
			if err != nil {
				m.clearCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
			}
		}

		if check != nil {
			if err := check(claims); err != nil {
				return err
			}
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}

func (m *AutoRefresh) setCookies(c echo.Context, s *Session) {
	c.SetCookie(m.cookie(AccessCookie, s.AccessToken, time.Until(s.AccessExpires)))
	c.SetCookie(m.cookie(RefreshCookie, s.RefreshToken, time.Until(s.RefreshExpires)))
}

func (m *AutoRefresh) clearCookies(c echo.Context) {
	c.SetCookie(m.cookie(AccessCookie, "", -time.Second))
	c.SetCookie(m.cookie(RefreshCookie, "", -time.Second))
}

func (m *AutoRefresh) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
