package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/pulak-sarmah/e-com-auth-service/internal/middleware/auth"
	"github.com/pulak-sarmah/e-com-auth-service/internal/middleware/csrf"
	loggingmw "github.com/pulak-sarmah/e-com-auth-service/internal/middleware/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
)

type Deps struct {
	Logger *slog.Logger

	Auth    *service.AuthService
	Users   *service.UserService
	Tenants *service.TenantService
	Tokens  *tokens.Codec
	Gate    *auth.Gate

	Cookies      CookieConfig
	AllowOrigins []string
	CSRF         bool
	ReadyChecks  map[string]Check
}

func common(d *Deps) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(d.Logger),
		ecM.Secure(),
		ecM.BodyLimit("1M"),
	}
	if len(d.AllowOrigins) > 0 {
		mw = append(mw, ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:     d.AllowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
			AllowCredentials: true,
		}))
	}
	if d.CSRF {
		mw = append(mw, csrf.Middleware(csrf.Config{
			Domain:       d.Cookies.Domain,
			Secure:       d.Cookies.Secure,
			SkipPrefixes: []string{"/health", "/.well-known"},
		}))
	}
	return mw
}

// New builds the echo instance with every route of the service.
func New(d *Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = service.NewValidator()

	for _, m := range common(d) {
		e.Use(m)
	}

	health := &HealthHTTP{Checks: d.ReadyChecks}
	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)

	wk := &WellKnownHTTP{Tokens: d.Tokens}
	e.GET("/.well-known/jwks.json", wk.JWKS)

	authH := &AuthHTTP{Svc: d.Auth, Cookies: d.Cookies}
	a := e.Group("/auth")
	a.POST("/register", authH.Register)
	a.POST("/login", authH.Login)
	a.GET("/self", authH.Self, d.Gate.Authenticate())
	a.POST("/refresh", authH.Refresh, d.Gate.AuthenticateRefresh())
	a.POST("/logout", authH.Logout, d.Gate.Authenticate(), d.Gate.AuthenticateRefresh())

	adminOnly := []echo.MiddlewareFunc{d.Gate.Authenticate(), auth.RequireRole(models.RoleAdmin)}

	usersH := &UserHTTP{Svc: d.Users}
	u := e.Group("/users", adminOnly...)
	u.POST("", usersH.Create)
	u.GET("", usersH.List)
	u.GET("/:id", usersH.Get)
	u.PATCH("/:id", usersH.Update)
	u.DELETE("/:id", usersH.Delete)

	tenantsH := &TenantHTTP{Svc: d.Tenants}
	e.GET("/tenants", tenantsH.List)
	t := e.Group("/tenants", adminOnly...)
	t.POST("", tenantsH.Create)
	t.GET("/:id", tenantsH.Get)
	t.PATCH("/:id", tenantsH.Update)
	t.DELETE("/:id", tenantsH.Delete)

	return e
}
