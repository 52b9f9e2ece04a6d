package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
)

// AuthFrom returns what Authenticate stored.
func AuthFrom(c echo.Context) (service.AuthContext, bool) {
	ac, ok := c.Get(accessKey).(service.AuthContext)
	return ac, ok
}

// RefreshFrom returns what AuthenticateRefresh stored.
func RefreshFrom(c echo.Context) (service.AuthContext, bool) {
	ac, ok := c.Get(refreshKey).(service.AuthContext)
	return ac, ok
}
