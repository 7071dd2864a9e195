package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/background"
	"github.com/anonchat/anonchat/internal/config"
	"github.com/anonchat/anonchat/internal/database"
	"github.com/anonchat/anonchat/internal/handlers"
	middlewareCustom "github.com/anonchat/anonchat/internal/middleware"
	"github.com/anonchat/anonchat/internal/repositories"
	"github.com/anonchat/anonchat/internal/routes"
	"github.com/anonchat/anonchat/internal/services"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
	pkglogger "github.com/anonchat/anonchat/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply schema migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	logger.Info("connecting to database",
		pkglogger.RedactedAttr("dsn", cfg.Database.DSN(), cfg.Server.Env))
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Rotating file sink for the security audit trail
	auditSink, err := pkglogger.NewAuditLogger(cfg.Server.AuditDir, cfg.Chat.LogRetention)
	if err != nil {
		logger.Error("failed to open audit log sink", slog.Any("error", err))
		os.Exit(1)
	}
	defer auditSink.Close()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	rateLimitRepo := repositories.NewRateLimitRepository(db)
	securityLogRepo := repositories.NewSecurityLogRepository(db)
	panelRepo := repositories.NewPanelRepository(db)

	// Session store and access control
	sessionStore := auth.NewStore(cfg.Session.IdleTimeout, cfg.Session.AbsoluteLifetime)
	authority := auth.NewAuthority(sessionStore, auth.CookieConfig{
		Name:     cfg.Session.CookieName,
		Secret:   []byte(cfg.Session.Secret),
		Secure:   cfg.Server.Env == "production",
		Lifetime: cfg.Session.AbsoluteLifetime,
	})

	// Initialize services
	auditService := services.NewAuditService(securityLogRepo, auditSink, logger)
	guard := auth.NewGuard(auditService)
	rateLimitService := services.NewRateLimitService(rateLimitRepo, cfg.Security, logger)
	loginService := services.NewLoginService(accountRepo, rateLimitService, auditService, cfg.Security, logger)
	conversationService := services.NewConversationService(conversationRepo, rateLimitService, auditService, logger)
	chatService := services.NewChatService(messageRepo, conversationRepo, guard, sessionStore, cfg.Chat, logger)
	panelService := services.NewPanelService(panelRepo, logger)

	// Bootstrap the admin account if configured
	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := loginService.EnsureAdminAccount(bootstrapCtx, os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(loginService, conversationService, authority, auditService, ipConfig)
	chatHandler := handlers.NewChatHandler(chatService, authority, auditService, ipConfig)
	panelHandler := handlers.NewPanelHandler(panelService, authority, auditService, ipConfig)

	// Background cleanup
	cleanupManager := background.NewCleanupManager(rateLimitService, securityLogRepo, logger, cfg.Chat.CleanupInterval, cfg.Chat.LogRetention)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(authority.Middleware)

	// Register routes
	routes.RegisterRoutes(router, authHandler, chatHandler, panelHandler)

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
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
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
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
