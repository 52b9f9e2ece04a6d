// Package tokens issues and verifies the two JWT kinds the service hands out:
// RS256 access tokens, verifiable by anyone holding the public key, and HS256
// refresh tokens whose jti points at a stored refresh-token record.
package tokens

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

const (
	DefaultIssuer     = "auth-service"
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

var (
	ErrMissingPrivateKey    = errors.New("tokens: private key is not configured")
	ErrMissingRefreshSecret = errors.New("tokens: refresh token secret is not configured")
	ErrInvalidToken         = errors.New("invalid token")
)

// Config is read once at startup. The codec copies what it needs and never
// mutates it afterwards.
type Config struct {
	PrivateKey    *rsa.PrivateKey
	PublicKey     *rsa.PublicKey
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

type Codec struct {
	private       *rsa.PrivateKey
	public        *rsa.PublicKey
	kid           string
	jwks          jwk.Set
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func New(cfg Config) (*Codec, error) {
	if cfg.PrivateKey == nil {
		return nil, ErrMissingPrivateKey
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, ErrMissingRefreshSecret
	}

	public := cfg.PublicKey
	if public == nil {
		public = &cfg.PrivateKey.PublicKey
	}
	if public.N.Cmp(cfg.PrivateKey.PublicKey.N) != 0 || public.E != cfg.PrivateKey.PublicKey.E {
		return nil, fmt.Errorf("tokens: public key does not match private key")
	}

	set, kid, err := publicSet(public)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		private:       cfg.PrivateKey,
		public:        public,
		kid:           kid,
		jwks:          set,
		refreshSecret: append([]byte(nil), cfg.RefreshSecret...),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}
	if c.issuer == "" {
		c.issuer = DefaultIssuer
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Codec) Issuer() string { return c.issuer }
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
func (c *Codec) PublicKey() *rsa.PublicKey { return c.public }
func (c *Codec) KeyID() string { return c.kid }
func (c *Codec) Now() time.Time { return c.now() }
