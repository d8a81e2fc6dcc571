package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/salespilot/admin-auth-server/src/config"
	"github.com/salespilot/admin-auth-server/src/database"
	"github.com/salespilot/admin-auth-server/src/handlers"
	"github.com/salespilot/admin-auth-server/src/logging"
	"github.com/salespilot/admin-auth-server/src/middleware"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/services"
)

func main() {
	// Load .env if present (development convenience)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Str("environment", cfg.Environment).
		Msg("starting admin auth server")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	log.Info().Msg("database connected")

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWTSecret,
		cfg.JWTRefreshSecret,
		cfg.JWTExpiresIn,
		cfg.JWTRefreshExpiresIn,
		cfg.TempTokenExpiresIn,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	adminService := services.NewAdminService(db.GetPool(), cfg.BcryptRounds)
	sessionService := services.NewSessionService(db.GetPool(), cfg.SessionIdleTimeout)
	bruteForceService := services.NewBruteForceService(db.GetPool(), cfg.BruteForceMaxAttempts, cfg.BruteForceBlockDuration)
	totpService := services.NewTOTPService(cfg.TOTPIssuer)
	csrfService := services.NewCSRFService(cfg.CSRFTokenTTL)
	auditService := services.NewAuditService(db.GetPool())
	cleanupService := services.NewCleanupService(db.GetPool(), sessionService, cfg.EnableAutoCleanup)

	// Auto-seed the first SUPER_ADMIN on an empty database
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hasAdmins, err := adminService.HasAdmins(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("failed to check for existing admin accounts")
		} else if !hasAdmins {
			if _, err := adminService.CreateAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, models.RoleSuperAdmin); err != nil {
				log.Error().Err(err).Msg("failed to create initial admin account")
			} else {
				log.Info().Str("email", cfg.AdminEmail).Msg("initial SUPER_ADMIN account created")
			}
		}
	}

	// Start background cleanup
	go cleanupService.Start(context.Background())

	// Create Gin router
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware(cfg.IsProduction()))
	router.Use(middleware.ErrorHandlerMiddleware(cfg.IsProduction()))
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(middleware.NewIPRateLimitingMiddleware(middleware.RateLimitConfig{
		Window:      cfg.RateLimitWindow,
		MaxRequests: cfg.RateLimitMaxRequests,
		Burst:       cfg.RateLimitMaxRequests,
	}))

	setupRoutes(router, db, cfg, adminService, sessionService, tokenService, totpService, bruteForceService, csrfService, auditService)

	// HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cleanupService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func setupRoutes(
	router *gin.Engine,
	db *database.Database,
	cfg *config.Config,
	adminService *services.AdminService,
	sessionService *services.SessionService,
	tokenService *services.TokenService,
	totpService *services.TOTPService,
	bruteForceService *services.BruteForceService,
	csrfService *services.CSRFService,
	auditService *services.AuditService,
) {
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(adminService, sessionService, tokenService, totpService, bruteForceService, csrfService, cfg)
	adminHandler := handlers.NewAdminHandler(adminService, bruteForceService, auditService, cfg)

	authMW := middleware.AdminAuthMiddleware(tokenService, sessionService, adminService)
	auditMW := middleware.AuditMiddleware(auditService)
	csrfMW := middleware.CSRFMiddleware(csrfService)
	whitelistMW := middleware.IPWhitelistMiddleware(cfg.IPWhitelistEnabled, cfg.IPWhitelist)

	// Health checks
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)

	// Public auth endpoints with a tighter rate limit
	authPublic := router.Group("/api/auth")
	authPublic.Use(middleware.AuthRateLimitMiddleware(cfg.RateLimitWindow, cfg.AuthRateLimitRequests))
	authPublic.Use(csrfMW)
	authPublic.Use(auditMW)
	{
		authPublic.POST("/login", authHandler.HandleLogin)
		authPublic.POST("/verify-2fa", authHandler.HandleVerify2FA)
		authPublic.POST("/refresh", authHandler.HandleRefresh)
	}

	// Authenticated auth endpoints
	authPrivate := router.Group("/api/auth")
	authPrivate.Use(authMW)
	authPrivate.Use(csrfMW)
	authPrivate.Use(auditMW)
	{
		authPrivate.POST("/logout", authHandler.HandleLogout)
		authPrivate.GET("/me", authHandler.HandleMe)
		authPrivate.GET("/csrf-token", authHandler.HandleCSRFToken)
		authPrivate.POST("/setup-2fa", authHandler.HandleSetup2FA)
		authPrivate.POST("/enable-2fa", authHandler.HandleEnable2FA)
		authPrivate.POST("/disable-2fa", authHandler.HandleDisable2FA)
	}

	// SUPER_ADMIN account management
	admin := router.Group("/api/admin")
	admin.Use(whitelistMW)
	admin.Use(authMW)
	admin.Use(middleware.RequireRole(models.RoleSuperAdmin))
	admin.Use(csrfMW)
	admin.Use(auditMW)
	{
		admin.GET("/accounts", adminHandler.HandleListAccounts)
		admin.POST("/accounts", adminHandler.HandleCreateAccount)
		admin.POST("/accounts/:id/unlock", adminHandler.HandleUnlockAccount)
		admin.POST("/accounts/:id/deactivate", adminHandler.HandleDeactivateAccount)
		admin.POST("/accounts/:id/reactivate", adminHandler.HandleReactivateAccount)
		admin.GET("/audit-logs", adminHandler.HandleListAuditLogs)
	}
}

// buildCORSConfig allows the configured origins plus localhost in
// development
func buildCORSConfig(cfg *config.Config) cors.Config {
	allowed := map[string]bool{}
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if allowed[origin] {
				return true
			}
			if !cfg.IsProduction() && strings.HasPrefix(origin, "http://localhost") {
				return true
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
