package auth

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
)

// RequireRole must run after Authenticate. A caller whose role is not listed
// gets 403.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, ok := AuthFrom(c)
			if !ok {
				return &service.Error{Kind: service.KindAuthentication, Msg: "Unauthorized"}
			}
			if !slices.Contains(roles, ac.Role) {
				logging.FromContext(c.Request().Context()).Warn("auth_gate_forbidden",
					"status", 403, "sub", ac.Subject, "role", ac.Role)
				return &service.Error{Kind: service.KindAuthorization, Msg: "You don't have enough permissions"}
			}
			return next(c)
		}
	}
}
