package tokens

import (
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// publicSet builds the single-key JWK set for the access-token key. The kid
// is the RFC 7638 SHA-256 thumbprint.
func publicSet(pub *rsa.PublicKey) (jwk.Set, string, error) {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return nil, "", fmt.Errorf("tokens: jwk from public key: %w", err)
	}
	if err := jwk.AssignKeyID(key); err != nil {
		return nil, "", fmt.Errorf("tokens: jwk key id: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return nil, "", err
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, "", err
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, "", err
	}
	return set, key.KeyID(), nil
}

// JWKS exposes the access-token verification key so other services can check
// tokens without sharing any secret.
func (c *Codec) JWKS() jwk.Set { return c.jwks }
