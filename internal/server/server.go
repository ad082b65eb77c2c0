// Package server contains the HTTP handlers and routing for the postboard API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "postboard/docs" // swagger docs
	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "postboard-api"

// Rate limits for the unauthenticated account endpoints.
var (
	loginRateRule  = middleware.RateRule{Resource: "login", Limit: 10, Window: 5 * time.Minute, Policy: middleware.FailOpen}
	signupRateRule = middleware.RateRule{Resource: "signup", Limit: 3, Window: 10 * time.Minute, Policy: middleware.FailOpen}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	registry       *prometheus.Registry
	promMiddleware *fiberprometheus.FiberPrometheus
	rateLimiter    *middleware.RateLimiter
	featureFlags   *featureflags.Manager
	store          repository.Store
	tokens         *service.TokenService
	userService    *service.UserService
	authService    *service.AuthService
	postService    *service.PostService
	voteService    *service.VoteService
}

// NewServer connects to the database and Redis described by cfg, applies the
// schema policy and wires the services.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm,
		time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	hasher := service.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	store := repository.NewStore(db)
	registry := prometheus.NewRegistry()

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		registry:       registry,
		promMiddleware: middleware.InitMetrics(serviceName, registry),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		store:          store,
		tokens:         tokens,
		userService:    service.NewUserService(store.Users(), hasher),
		authService:    service.NewAuthService(store.Users(), hasher, tokens),
		postService:    service.NewPostService(store),
		voteService:    service.NewVoteService(store),
	}
	s.app = s.NewApp()

	return s, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// NewApp builds a Fiber application with the middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Postboard API",
		ErrorHandler: ErrorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// ErrorHandler renders handler errors in the standard error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
			Error: fiberErr.Message,
			Code:  codeForStatus(fiberErr.Code),
		})
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusConflict:
		return models.CodeConflict
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	case fiber.StatusInternalServerError:
		return models.CodeInternal
	default:
		return ""
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagate request and trace ids into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured logging renders errors itself, so everything above sees nil
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	if s.config.Env != "test" {
		app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return models.NewRateLimitedError()
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get(middleware.MetricsPath, middleware.MetricsHandler(s.registry))

	api := app.Group("/api")
	api.Get("/health", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/login", s.rateLimiter.Handler(loginRateRule), s.Login)

	users := api.Group("/users")
	users.Post("/", s.rateLimiter.Handler(signupRateRule), s.CreateUser)
	users.Get("/:id", s.GetUser)

	posts := api.Group("/posts", s.AuthRequired())
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	api.Post("/vote", s.AuthRequired(), s.Vote)
	api.Get("/feature-flags", s.AuthRequired(), s.GetFeatureFlags)
}

// AuthRequired returns the bearer-token guard for protected routes.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthGuard(s.tokens, s.store.Users())
}

// HealthCheck godoc
// @Summary Health check
// @Description Always answers "OK" while the process is serving.
// @Tags health
// @Produce json
// @Success 200 {string} string "OK"
// @Router /health [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON("OK")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: when
// it is not configured the check reports it as disabled without failing.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := cache.Ping(ctx, s.redis); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, waits for in-flight ones within ctx and
// releases the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	cache.Close(s.redis)

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
