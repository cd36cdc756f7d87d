// Package server contains the HTTP and WebSocket handlers for the Mesto API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "mesto/docs" // swagger docs
	"mesto/internal/bootstrap"
	"mesto/internal/cache"
	"mesto/internal/config"
	"mesto/internal/database"
	"mesto/internal/featureflags"
	"mesto/internal/middleware"
	"mesto/internal/models"
	"mesto/internal/notifications"
	"mesto/internal/observability"
	"mesto/internal/repository"
	"mesto/internal/service"
	"mesto/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimit leaves room for multipart framing around a maximum-size upload.
const bodyLimit = service.MaxUploadBytes + 1024*1024

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	cardRepo       repository.CardRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	userService    *service.UserService
	cardService    *service.CardService
	mediaService   *service.MediaService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	// Redis is optional: a nil client disables caching, rate limits and the feed.
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, rdb, store)
}

// NewServerWithDeps wires a server from already opened dependencies.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}

	models.HideDetails = cfg.IsProduction()
	cache.SetClient(redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		userRepo:       repository.NewUserRepository(db),
		cardRepo:       repository.NewCardRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	server.userService = service.NewUserService(server.userRepo)
	server.cardService = service.NewCardService(server.cardRepo, server.notifier)
	if store != nil {
		server.mediaService = service.NewMediaService(store)
	}

	return server, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Mesto API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler answers for errors no handler turned into a response.
func errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		if models.ErrorCode(err) == "" {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace id reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// The default CORP policy would stop the SPA from loading /media images.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	env := s.config.Environment()

	// Auth routes
	app.Post("/signup", middleware.RateLimit(env, s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	app.Post("/signin", middleware.RateLimit(env, s.redis, 10, 5*time.Minute, "signin"), s.Signin)
	app.Post("/signout", s.Signout)

	// User routes; /me routes come before the generic /:id route.
	users := app.Group("/users", s.AuthRequired())
	users.Get("/", s.GetAllUsers)
	users.Get("/me", s.GetMyProfile)
	users.Patch("/me", s.UpdateMyProfile)
	users.Patch("/me/avatar", s.UpdateMyAvatar)
	users.Get("/:id", s.GetUserProfile)

	// Card routes
	cards := app.Group("/cards", s.AuthRequired())
	cards.Get("/", s.GetCards)
	cards.Post("/", s.CreateCard)
	cards.Put("/:id/likes", s.LikeCard)
	cards.Delete("/:id/likes", s.UnlikeCard)
	cards.Delete("/:id", s.DeleteCard)

	app.Get("/features", s.AuthRequired(), s.GetFeatureFlags)

	if s.mediaService != nil && !s.featureFlags.Off(featureflags.Uploads) {
		app.Post("/uploads", s.AuthRequired(), s.FeatureRequired(featureflags.Uploads),
			middleware.RateLimit(env, s.redis, 30, 10*time.Minute, "uploads"), s.UploadImage)
		if local, ok := s.store.(*storage.LocalStore); ok {
			app.Static(storage.MediaPrefix, local.Root, fiber.Static{
				MaxAge: 31536000,
			})
		}
	}

	if s.feedEnabled() {
		app.Get("/ws/cards", s.AuthRequired(), s.FeatureRequired(featureflags.CardFeed), s.CardFeedHandler())
	}

	app.Use(s.NotFound)
}

// feedEnabled reports whether the card feed can run at all.
func (s *Server) feedEnabled() bool {
	return s.hub != nil && !s.featureFlags.Off(featureflags.CardFeed)
}

// NotFound answers every request no route matched.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound,
		&models.AppError{Code: models.CodeNotFound, Message: "Requested resource not found"})
}

// Start builds the app, wires the card feed and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.feedEnabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
