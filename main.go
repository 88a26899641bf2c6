package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accounts-be/internal/cache"
	"accounts-be/internal/config"
	"accounts-be/internal/controllers"
	"accounts-be/internal/database"
	"accounts-be/internal/jwt"
	"accounts-be/internal/mailer"
	"accounts-be/internal/repository"
	"accounts-be/internal/server"
	"accounts-be/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Connect to database, or fall back to process memory for local runs
	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		db, err := database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}
		userRepo = repository.NewUserRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		userRepo = repository.NewMemoryUserRepository()
	}

	// Initialize Redis cache (optional - continue if Redis is unavailable)
	var cacheClient cache.Cache
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without profile cache", "error", err)
		} else {
			defer c.Close()
			cacheClient = c
			logger.Info("connected to redis cache")
		}
	}

	var mail mailer.Mailer
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom)
	} else {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set, OTP mails will only be logged")
		mail = mailer.NewLogMailer(logger)
	}

	jwtService := jwt.NewJWTService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	profiles := service.NewProfileCache(cacheClient, cfg.ProfileCacheTTL, logger)

	// Initialize services
	accountService := service.NewAccountService(userRepo, jwtService, profiles, logger)
	recoveryService := service.NewRecoveryService(userRepo, mail, cfg.OTPTTL, logger)
	adminService := service.NewAdminService(userRepo, profiles, logger)

	router := server.NewRouter(server.Deps{
		Users:    controllers.NewUserController(accountService, recoveryService, cfg.CookieSecure),
		Admin:    controllers.NewAdminController(adminService),
		Verifier: jwtService,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
