package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veriscribe/signature-api/internal/api/handler"
	"github.com/veriscribe/signature-api/internal/api/middleware"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/core/service"
	"github.com/veriscribe/signature-api/internal/core/token"
	mongodb "github.com/veriscribe/signature-api/internal/infrastructure/db/mongo"
	redisdb "github.com/veriscribe/signature-api/internal/infrastructure/db/redis"
	"github.com/veriscribe/signature-api/internal/infrastructure/config"
	"github.com/veriscribe/signature-api/internal/infrastructure/storage"
	"github.com/veriscribe/signature-api/pkg/logger"
)

// Deps carries the shared infrastructure the router wires handlers onto.
type Deps struct {
	Config  *config.Config
	Mongo   *mongo.Client
	DB      *mongo.Database
	Redis   *goredis.Client
	Store   *storage.Store
	Runner  ports.WorkerRunner
	Cleaner ports.ArtifactCleaner
	Health  *mongodb.Health
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	log := logger.Get()
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("signature_http"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(d.DB)
	recordRepo := mongodb.NewVerificationRepository(d.DB)
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	limiter := redisdb.NewLimiter(d.Redis)

	authService := service.NewAuthService(userRepo, codec, log)
	historyService := service.NewHistoryService(recordRepo, userRepo, d.Store, d.Cleaner, d.Health, log)
	userService := service.NewUserService(userRepo, recordRepo, d.Store, d.Cleaner, log)
	verifyService := service.NewVerifyService(d.Runner, d.Store, recordRepo, log)

	session := middleware.NewSession(codec, userRepo, cfg.Production(), log)

	authHandler := handler.NewAuthHandler(authService, userService, session)
	userHandler := handler.NewUserHandler(userService, d.Store, session)
	verifyHandler := handler.NewVerifyHandler(verifyService, historyService, d.Store)
	statsHandler := handler.NewStatsHandler(historyService, verifyService)
	uploadsHandler := handler.NewUploadsHandler(d.Store)
	healthHandler := handler.NewHealthHandler(d.Mongo, d.Redis, d.Health)

	// --- Rate buckets ---
	authLimit := middleware.RateLimit(limiter, "auth", cfg.Rate.AuthWindow, cfg.Rate.AuthMax, log)
	apiLimit := middleware.RateLimit(limiter, "api", cfg.Rate.APIWindow, cfg.Rate.APIMax, log)
	statusLimit := middleware.RateLimit(limiter, "status", cfg.Rate.StatusWindow, cfg.Rate.StatusMax, log)
	verifyLimit := middleware.RateLimit(limiter, "verify", cfg.Rate.VerifyWindow, cfg.Rate.VerifyMax, log)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register, authLimit)
	auth.POST("/login", authHandler.Login, authLimit)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/status", authHandler.Status, statusLimit, session.Optional())
	auth.POST("/invalidate-sessions", authHandler.InvalidateSessions, session.RequireSession())

	// --- Profile routes ---
	user := e.Group("/api/user", apiLimit, session.RequireSession())
	user.GET("/profile", userHandler.Profile)
	user.PUT("/profile", userHandler.UpdateProfile)
	user.POST("/change-password", userHandler.ChangePassword)
	user.DELETE("/account", userHandler.DeleteAccount)

	// --- Verification ---
	e.POST("/api/verify", verifyHandler.Predict, verifyLimit, session.Optional())
	e.GET("/api/models", verifyHandler.Models, apiLimit)

	// --- History ---
	history := e.Group("/api/history", apiLimit, session.RequireSession())
	history.GET("", verifyHandler.History)
	history.DELETE("", verifyHandler.ClearHistory)
	history.DELETE("/:id", verifyHandler.DeleteRecord)
	history.POST("/bulk-delete", verifyHandler.BulkDelete)
	history.POST("/clean-orphaned", verifyHandler.CleanOrphaned)

	// --- Public stats and artifacts ---
	e.GET("/api/stats", statsHandler.GlobalStats, statusLimit)
	e.GET("/uploads/*", uploadsHandler.Serve)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes ---
	e.GET("/health", healthHandler.Live)
	e.GET("/health/ready", healthHandler.Ready)

	return e
}
