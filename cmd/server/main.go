package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pulak-sarmah/e-com-auth-service/internal/config"
	"github.com/pulak-sarmah/e-com-auth-service/internal/db"
	"github.com/pulak-sarmah/e-com-auth-service/internal/events"
	"github.com/pulak-sarmah/e-com-auth-service/internal/httpserver"
	"github.com/pulak-sarmah/e-com-auth-service/internal/logging"
	"github.com/pulak-sarmah/e-com-auth-service/internal/middleware/auth"
	"github.com/pulak-sarmah/e-com-auth-service/internal/repo"
	"github.com/pulak-sarmah/e-com-auth-service/internal/search"
	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/throttle"
	"github.com/pulak-sarmah/e-com-auth-service/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Env)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	codec, err := newCodec(cfg)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	var index search.Index = search.Nop{}
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		index = search.NewESIndex(esClient, cfg.ESIndex)
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL not set")
	}

	var (
		limiter     throttle.Limiter = throttle.Nop{}
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = throttle.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis init: %v", err)
		}
		limiter = throttle.NewRedisLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow)
	} else {
		logger.Warn("login_throttle_disabled", "reason", "REDIS_ADDR not set")
	}

	store := repo.New(gdb)
	authSvc := service.NewAuthService(store, codec, publisher, index, limiter)
	userSvc := service.NewUserService(store, publisher, index)
	tenantSvc := &service.TenantService{Repo: store}

	if cfg.AdminEmail != "" {
		created, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			logger.Info("admin_created", "email", cfg.AdminEmail)
		}
	}

	e := httpserver.New(&httpserver.Deps{
		Logger:       logger,
		Auth:         authSvc,
		Users:        userSvc,
		Tenants:      tenantSvc,
		Tokens:       codec,
		Gate:         &auth.Gate{Tokens: codec, Store: store},
		Cookies:      httpserver.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure},
		AllowOrigins: cfg.AllowOrigins,
		CSRF:         cfg.CSRFEnabled,
		ReadyChecks:  readyChecks(gdb, redisClient),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweep(sweepCtx, authSvc, cfg.SweepInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		log.Println("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}

func newCodec(cfg *config.Config) (*tokens.Codec, error) {
	private, err := tokens.LoadPrivateKey(cfg.PrivateKey, cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	public, err := tokens.LoadPublicKey(cfg.PublicKey, cfg.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	return tokens.New(tokens.Config{
		PrivateKey:    private,
		PublicKey:     public,
		RefreshSecret: cfg.RefreshSecret,
		Issuer:        cfg.Issuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
}

func readyChecks(gdb *gorm.DB, rdb *redis.Client) map[string]httpserver.Check {
	checks := map[string]httpserver.Check{
		"database": func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// sweep drops expired refresh-token records until ctx is cancelled.
func sweep(ctx context.Context, svc *service.AuthService, every time.Duration) {
	l := logging.FromContext(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpired(ctx)
			if err != nil {
				l.Error("refresh_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("refresh_swept", "count", n)
			}
		}
	}
}
