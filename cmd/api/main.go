package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avercroft/kennelgate/internal/auth"
	"github.com/avercroft/kennelgate/internal/background"
	"github.com/avercroft/kennelgate/internal/config"
	"github.com/avercroft/kennelgate/internal/database"
	"github.com/avercroft/kennelgate/internal/handlers"
	middlewareCustom "github.com/avercroft/kennelgate/internal/middleware"
	"github.com/avercroft/kennelgate/internal/models"
	"github.com/avercroft/kennelgate/internal/repositories"
	"github.com/avercroft/kennelgate/internal/routes"
	"github.com/avercroft/kennelgate/internal/services"
	"github.com/avercroft/kennelgate/internal/throttle"
	pkgauth "github.com/avercroft/kennelgate/pkg/auth"
	pkghttp "github.com/avercroft/kennelgate/pkg/http"
	pkglogger "github.com/avercroft/kennelgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	adminRepo := repositories.NewAdminRepository(db)
	codeRepo := repositories.NewResetCodeRepository(db)
	attemptRepo := repositories.NewResetAttemptRepository(db)

	// Request throttle and failed-login tracker
	limiter, tracker := buildThrottle(&cfg.Throttle, logger)

	// Token manager and password hasher
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	hasher := pkgauth.NewHasher(cfg.Auth.PasswordSalt)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Reset code delivery
	var emailSender services.EmailSender
	if cfg.Email.FromAddress != "" {
		sesSender, err := services.NewAWSSESEmailSender(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.FromName,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email sender", slog.Any("error", err))
			os.Exit(1)
		}
		emailSender = sesSender
	} else {
		logger.Warn("EMAIL_FROM_ADDRESS not set, reset codes will be logged instead of sent")
		emailSender = services.NewLogEmailSender(logger)
	}

	// Initialize services
	authService := services.NewAuthService(
		adminRepo,
		tokenManager,
		hasher,
		tracker,
		cfg.Auth.AdminCreationPassword,
		logger,
		auditLogger,
	)
	resetService := services.NewResetService(
		adminRepo,
		codeRepo,
		attemptRepo,
		db,
		emailSender,
		hasher,
		logger,
		auditLogger,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, resetService, ipConfig)

	// Bootstrap first admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, &cfg.Auth, adminRepo, hasher, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	// No RealIP here: client addresses come from ExtractClientIP, which only
	// honors forwarding headers from configured trusted proxies. RealIP would
	// rewrite RemoteAddr from spoofable headers before that gate runs.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Coarse per-IP backstop in front of the class-aware limiter
	router.Use(httprate.LimitByIP(cfg.Throttle.BackstopMax, cfg.Throttle.BackstopWindow))
	router.Use(middlewareCustom.RateLimit(limiter, ipConfig))

	// Register routes
	routes.RegisterRoutes(router, authHandler, tokenManager, adminRepo)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(resetService, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// buildThrottle selects the limiter and lockout tracker backend. Memory is
// the single-instance default; Redis shares state across instances.
func buildThrottle(cfg *config.ThrottleConfig, logger *slog.Logger) (throttle.Limiter, throttle.LoginTracker) {
	limits := throttle.Limits{
		Login:  throttle.Limit{Window: cfg.LoginWindow, Max: cfg.LoginMax},
		Admin:  throttle.Limit{Window: cfg.AdminWindow, Max: cfg.AdminMax},
		Public: throttle.Limit{Window: cfg.PublicWindow, Max: cfg.PublicMax},
	}
	lockout := throttle.LockoutConfig{
		Retention: cfg.FailedLoginRetention,
		Window:    cfg.LockoutWindow,
		Threshold: cfg.LockoutThreshold,
	}

	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("throttle backend: redis", slog.String("addr", cfg.RedisAddr))
		return throttle.NewRedisLimiter(client, limits, logger),
			throttle.NewRedisLoginTracker(client, lockout, logger)
	}

	logger.Info("throttle backend: memory")
	return throttle.NewMemoryLimiter(limits), throttle.NewMemoryLoginTracker(lockout)
}

// ensureAdminAccount creates the first admin if the bootstrap credentials
// are configured.
func ensureAdminAccount(ctx context.Context, cfg *config.AuthConfig, adminRepo *repositories.AdminRepository, hasher *pkgauth.Hasher, logger *slog.Logger) error {
	username := cfg.BootstrapUsername
	email := cfg.BootstrapEmail
	password := cfg.BootstrapPassword

	if username == "" || email == "" || password == "" {
		logger.Info("no bootstrap admin configured, skipping admin account creation")
		return nil
	}

	_, err := adminRepo.GetByUsername(ctx, username)
	if err == nil {
		logger.Info("bootstrap admin already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	digest := password
	if !pkgauth.IsDigest(password) {
		digest = hasher.Digest(password)
	}

	if _, err := adminRepo.Create(ctx, &models.AdminAccount{
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
	}); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("bootstrap admin account created", slog.String("username", username))
	return nil
}
