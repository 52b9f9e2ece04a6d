package tokens

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// LoadPrivateKey accepts either inline PEM (escaped "\n" sequences are
// expanded, as env files usually carry them) or a path to a PEM file.
func LoadPrivateKey(inline, path string) (*rsa.PrivateKey, error) {
	data, err := pemSource(inline, path)
	if err != nil || data == nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// LoadPublicKey returns nil, nil when nothing is configured; the codec then
// derives the public half from the private key.
func LoadPublicKey(inline, path string) (*rsa.PublicKey, error) {
	data, err := pemSource(inline, path)
	if err != nil || data == nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

func pemSource(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(strings.ReplaceAll(inline, `\n`, "\n")), nil
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}
