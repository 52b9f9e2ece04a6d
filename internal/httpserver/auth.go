package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/middleware/auth"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies CookieConfig
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return errInvalidBody
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}

	h.Cookies.setAuthCookies(c, h.Svc.Tokens, res.Tokens)
	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, res.User)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return errInvalidBody
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "validation", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if service.KindOf(err) == service.KindAuthentication {
			return withStatus(http.StatusBadRequest, err)
		}
		return err
	}

	h.Cookies.setAuthCookies(c, h.Svc.Tokens, res.Tokens)
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res.User)
}

func (h *AuthHTTP) Self(c echo.Context) error {
	ac, ok := auth.AuthFrom(c)
	if !ok {
		return errUnauthorized
	}
	user, err := h.Svc.Self(c.Request().Context(), ac)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ac, ok := auth.RefreshFrom(c)
	if !ok {
		return errUnauthorized
	}

	res, err := h.Svc.Refresh(ctx, ac)
	if err != nil {
		return err
	}

	h.Cookies.setAuthCookies(c, h.Svc.Tokens, res.Tokens)
	l.Info("refresh_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.IDResponse{ID: res.User.ID})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	access, ok := auth.AuthFrom(c)
	if !ok {
		return errUnauthorized
	}
	ac, ok := auth.RefreshFrom(c)
	if !ok {
		return errUnauthorized
	}
	// Both cookies must belong to the same user.
	if access.Subject != ac.Subject {
		l.Warn("logout_failed", "status", 401, "reason", "token subject mismatch",
			"access_sub", access.Subject, "refresh_sub", ac.Subject)
		return errUnauthorized
	}
	if err := h.Svc.Logout(ctx, ac); err != nil {
		return err
	}

	h.Cookies.clearAuthCookies(c)
	l.Info("logout_successful", "sub", ac.Subject)
	return c.JSON(http.StatusOK, struct{}{})
}
