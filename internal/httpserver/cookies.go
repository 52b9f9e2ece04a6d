package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/middleware/auth"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

type CookieConfig struct {
	Domain string
	Secure bool
}

// setAuthCookies writes both tokens as http-only, same-site strict cookies
// whose max-age follows the token lifetimes.
func (cc CookieConfig) setAuthCookies(c echo.Context, codec *tokens.Codec, pair transport.TokenPair) {
	c.SetCookie(cc.cookie(auth.AccessCookie, pair.AccessToken, int(codec.AccessTTL().Seconds())))
	c.SetCookie(cc.cookie(auth.RefreshCookie, pair.RefreshToken, int(codec.RefreshTTL().Seconds())))
}

func (cc CookieConfig) clearAuthCookies(c echo.Context) {
	c.SetCookie(cc.cookie(auth.AccessCookie, "", -1))
	c.SetCookie(cc.cookie(auth.RefreshCookie, "", -1))
}

func (cc CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
