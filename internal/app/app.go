// Package app wires the auth service together: configuration, stores,
// services, the HTTP surface and graceful shutdown. All dependencies are
// constructed here once and injected; nothing in the service layer reaches
// for globals.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/config"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/repository/postgres"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/events/kafka"
	httphandler "github.com/arena-gg/esports-platform/services/auth-service/internal/handler/http"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/handler/http/middleware"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/infrastructure/database"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/infrastructure/ratelimit"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/service"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/utils/logger"
)

// App holds the composed application.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	publisher  kafka.SecurityEventPublisher
	httpServer *http.Server
	janitor    *service.JanitorService

	Auth *service.AuthService
}

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, err
		}
	}
	pool, err := database.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var publisher kafka.SecurityEventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SecurityEventTopic,
			logger.WithComponent(log, "kafka"))
	}

	userRepo := postgres.NewUserRepositoryPostgres(pool)
	sessionRepo := postgres.NewSessionRepositoryPostgres(pool)
	logRepo := postgres.NewSecurityLogRepositoryPostgres(pool)
	tokenRepo := postgres.NewVerificationTokenRepositoryPostgres(pool)
	roleRepo := postgres.NewRoleRepositoryPostgres(pool)

	securityLog := service.NewSecurityLogService(logRepo, publisher, logger.WithComponent(log, "security_log"))
	sessions := service.NewSessionService(sessionRepo, securityLog, logger.WithComponent(log, "sessions"), cfg.Security.SessionTTL)
	lockout := service.NewLockoutService(userRepo, sessionRepo, securityLog, logger.WithComponent(log, "lockout"), cfg.Security.LockoutThreshold)
	risk := service.NewRiskService(logRepo, logger.WithComponent(log, "risk"))
	roles := service.NewRoleService(roleRepo, securityLog, logger.WithComponent(log, "roles"))
	verification := service.NewVerificationService(tokenRepo, userRepo, securityLog, logger.WithComponent(log, "verification"), cfg.Security.VerificationTokenTTL)

	auth := service.NewAuthService(userRepo, sessions, lockout, risk, roles, verification, securityLog,
		logger.WithComponent(log, "auth"), cfg.Security.TwoFactorIssuer)

	app := &App{
		cfg:       cfg,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		publisher: publisher,
		janitor: service.NewJanitorService(sessionRepo, tokenRepo,
			logger.WithComponent(log, "janitor"), cfg.Security.CleanupInterval),
		Auth: auth,
	}
	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.buildRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *App) buildRouter() *gin.Engine {
	if a.cfg.Logging.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.RequestLogger(logger.WithComponent(a.logger, "http")))
	if len(a.cfg.Security.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = a.cfg.Security.AllowedOrigins
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	router.GET("/healthz", func(c *gin.Context) {
		if err := a.pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := ratelimit.NewRedisRateLimiter(a.redis, logger.WithComponent(a.logger, "ratelimit"))
	rateLimited := middleware.RateLimitMiddleware(limiter,
		a.cfg.Security.RateLimitMaxRequests, a.cfg.Security.RateLimitWindow,
		logger.WithComponent(a.logger, "ratelimit"))

	handler := httphandler.NewAuthHandler(a.Auth, a.logger)
	internalHandler := httphandler.NewInternalHandler(a.Auth, a.logger)

	public := router.Group("/v1", rateLimited)
	{
		public.POST("/auth/verification/consume", handler.ConsumeVerificationToken)
	}

	authed := router.Group("/v1", rateLimited, middleware.AuthMiddleware(a.Auth, a.logger))
	{
		authed.GET("/auth/profile", handler.GetProfile)
		authed.GET("/auth/sessions", handler.ListSessions)
		authed.DELETE("/auth/sessions/:id", handler.RevokeSession)
		authed.POST("/auth/sessions/revoke-others", handler.RevokeOtherSessions)
		authed.POST("/auth/2fa/enable", handler.EnableTwoFactor)
		authed.POST("/auth/2fa/disable", handler.DisableTwoFactor)
	}

	admin := authed.Group("/admin", middleware.RequirePermission(a.Auth, "security.admin", a.logger))
	{
		admin.GET("/security-log", handler.GetSecurityLog)
		admin.GET("/users/:id/profile", handler.GetUserProfile)
		admin.GET("/users/:id/roles", handler.GetUserRoles)
		admin.POST("/users/:id/roles", handler.AssignRole)
		admin.POST("/users/:id/lock", handler.LockAccount)
		admin.POST("/users/:id/unlock", handler.UnlockAccount)
		admin.POST("/roles", handler.CreateRole)
	}

	internal := router.Group("/internal",
		middleware.InternalAuth(a.cfg.Security.InternalAPIToken, logger.WithComponent(a.logger, "internal")))
	{
		internal.POST("/sessions", internalHandler.CreateSession)
		internal.POST("/login-failures", internalHandler.RecordLoginFailure)
		internal.POST("/verification-tokens", internalHandler.IssueVerificationToken)
		internal.GET("/users/:id/risk", internalHandler.GetRiskScore)
	}

	return router
}

// Run serves HTTP and the background janitor until ctx is canceled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.janitor.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("Kafka producer close failed", zap.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Redis close failed", zap.Error(err))
	}
	a.pool.Close()
	a.logger.Info("Shutdown complete")
	return nil
}
