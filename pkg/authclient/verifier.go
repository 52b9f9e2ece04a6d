package authclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("authclient: invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks access tokens locally with the keys from
// /.well-known/jwks.json. The key set is refreshed in the background until
// ctx is cancelled, and refetched (rate limited) when a token names an
// unknown kid.
type Verifier struct {
	kf     keyfunc.Keyfunc
	issuer string
}

func NewVerifier(ctx context.Context, client *Client, issuer string) (*Verifier, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{client.baseURL + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("authclient: jwks: %w", err)
	}
	return &Verifier{kf: kf, issuer: issuer}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, v.kf.KeyfuncCtx(ctx), opts...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
