package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pulak-sarmah/e-com-auth-service/internal/models"
)

// GenerateRefresh signs an HS256 token whose jti is tokenID, the id of the
// refresh-token record that backs it.
func (c *Codec) GenerateRefresh(subject string, role models.Role, tokenID string) (string, time.Time, error) {
	if tokenID == "" {
		return "", time.Time{}, fmt.Errorf("sign refresh token: empty token id")
	}

	now := c.now()
	exp := now.Add(c.refreshTTL)
	claims := RefreshClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, exp, nil
}

// ParseRefresh only checks the cryptographic side. Callers still have to
// confirm the record named by the jti exists.
func (c *Codec) ParseRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.refreshSecret, nil
	}, c.parserOptions(jwt.SigningMethodHS256.Alg())...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or jti", ErrInvalidToken)
	}
	return &claims, nil
}
