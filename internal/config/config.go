package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	LogLevel   string
	ServerPort int

	DatabaseURL string

	PrivateKey     string
	PrivateKeyPath string
	PublicKey      string
	PublicKeyPath  string
	RefreshSecret  []byte
	Issuer         string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration

	CookieDomain string
	CookieSecure bool
	AllowOrigins []string
	CSRFEnabled  bool

	AdminEmail    string
	AdminPassword string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr        string
	LoginMaxAttempts int
	LoginWindow      time.Duration

	SweepInterval time.Duration
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables alone and reports
// every missing or malformed value at once.
func FromEnv() (*Config, error) {
	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return def
		}
		return d
	}

	cfg := &Config{
		Env:        EnvDefault("APP_ENV", "development"),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),
		ServerPort: EnvIntDefault("SERVER_PORT", 5501),

		DatabaseURL: databaseURL(),

		PrivateKey:     os.Getenv("PRIVATE_KEY"),
		PrivateKeyPath: os.Getenv("PRIVATE_KEY_PATH"),
		PublicKey:      os.Getenv("PUBLIC_KEY"),
		PublicKeyPath:  os.Getenv("PUBLIC_KEY_PATH"),
		RefreshSecret:  []byte(os.Getenv("REFRESH_TOKEN_SECRET")),
		Issuer:         EnvDefault("TOKEN_ISSUER", "auth-service"),
		AccessTTL:      duration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL:     duration("REFRESH_TOKEN_TTL", 365*24*time.Hour),

		CookieDomain: EnvDefault("COOKIE_DOMAIN", "localhost"),
		CookieSecure: EnvBool("COOKIE_SECURE", false),
		AllowOrigins: CSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		CSRFEnabled:  EnvBool("CSRF_ENABLED", false),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "users"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		LoginMaxAttempts: EnvIntDefault("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      duration("LOGIN_WINDOW", 15*time.Minute),

		SweepInterval: duration("REFRESH_SWEEP_INTERVAL", time.Hour),
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL or DB_HOST/DB_NAME"))
	}
	if cfg.PrivateKey == "" && cfg.PrivateKeyPath == "" {
		errs = append(errs, errors.New("missing required env PRIVATE_KEY or PRIVATE_KEY_PATH"))
	}
	if len(cfg.RefreshSecret) == 0 {
		errs = append(errs, errors.New("missing required env REFRESH_TOKEN_SECRET"))
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres URL
// from the DB_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host, name := os.Getenv("DB_HOST"), os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USERNAME"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + EnvDefault("DB_PORT", "5432"),
		Path:     "/" + name,
		RawQuery: "sslmode=" + EnvDefault("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
