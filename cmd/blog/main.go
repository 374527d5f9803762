package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/blog_service/internal/config"
	"github.com/Skotchmaster/blog_service/internal/db"
	"github.com/Skotchmaster/blog_service/internal/httpserver"
	"github.com/Skotchmaster/blog_service/internal/limiter"
	"github.com/Skotchmaster/blog_service/internal/logging"
	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/blog_service/internal/middleware/logging"
	"github.com/Skotchmaster/blog_service/internal/mfa"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/repo"
	"github.com/Skotchmaster/blog_service/internal/service"
	"github.com/Skotchmaster/blog_service/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustSigningKey(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: gdb}

	limiterCfg := limiter.Config{MaxAttempts: cfg.LoginMaxAttempts, LockoutDuration: cfg.LoginLockoutDuration}
	memLimiter := limiter.NewMemory(limiterCfg)
	var loginLimiter limiter.Limiter = memLimiter
	var redisClient *redis.Client
	if cfg.LimiterRedisURL != "" {
		opts, err := redis.ParseURL(cfg.LimiterRedisURL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		loginLimiter = limiter.NewRedis(redisClient, limiterCfg)
		logger.Info("login_limiter", "backend", "redis")
	}

	var events mykafka.Publisher = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		events = mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}

	svc := &service.AuthService{
		Users:       gormRepo,
		Tokens:      gormRepo,
		Revocations: gormRepo,
		Issuer:      tokens.NewIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.PendingMfaTTL),
		Limiter:     loginLimiter,
		MFA:         mfa.NewEngine(cfg.MfaIssuer),
		Events:      events,
	}
	sweeper := &service.Sweeper{Tokens: gormRepo, Revocations: gormRepo, Interval: cfg.SweepInterval}
	if redisClient == nil {
		sweeper.Limiter = memLimiter
	}

	baseCtx, stopBackground := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer stopBackground()

	if cfg.AdminUsername != "" {
		config.MustNonEmpty(cfg.AdminEmail, "ADMIN_EMAIL")
		config.MustNonEmpty(cfg.AdminPassword, "ADMIN_PASSWORD")
		if err := svc.BootstrapAdmin(baseCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
	}

	go sweeper.Run(baseCtx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHTTP{Svc: svc},
		TokensHandler: &httpserver.TokensHTTP{Svc: svc, Sweeper: sweeper},
		MfaHandler:    &httpserver.MfaHTTP{Svc: svc},
		AdminHandler:  &httpserver.AdminHTTP{Svc: svc},
		Filter:        authmw.NewTokenFilter(svc),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	stopBackground()

	if err := events.Close(); err != nil {
		logger.Warn("kafka_close_failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Printf("%s stopped", cfg.ServiceName)
}
