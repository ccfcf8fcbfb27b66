// Package server contains the HTTP handlers, guards and routes of the catalog API.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "librarium/docs" // swagger docs
	"librarium/internal/cache"
	"librarium/internal/config"
	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/notifications"
	"librarium/internal/repository"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "librarium-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	rateLimiter    *middleware.RateLimiter
	notifier       *notifications.Notifier
	authService    *service.AuthService
	userService    *service.UserService
	catalogService *service.CatalogService
	lendingService *service.LendingService
	commentService *service.CommentService
	ratingService  *service.RatingService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	bookRepo := repository.NewBookRepository(db)
	authorRepo := repository.NewAuthorRepository(db)
	tagRepo := repository.NewTagRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env, middleware.FailOpen),
		notifier:       notifications.NewNotifier(redisClient),
		authService:    service.NewAuthService(userRepo, tokenRepo, cache.NewTokenRevocationList(redisClient), service.AuthConfigFromConfig(cfg)),
		userService:    service.NewUserService(userRepo, tokenRepo),
		catalogService: service.NewCatalogService(bookRepo, authorRepo, tagRepo),
		lendingService: service.NewLendingService(loanRepo, bookRepo),
		commentService: service.NewCommentService(commentRepo, bookRepo),
		ratingService:  service.NewRatingService(ratingRepo, bookRepo),
	}
	return s, nil
}

// AuthService exposes the session manager for bootstrap tasks.
func (s *Server) AuthService() *service.AuthService {
	return s.authService
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Librarium API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	app.Use(middleware.InitMetrics(app, serviceName))

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/register", s.rateLimiter.Limit("register", s.config.RateLimitRegister, time.Minute), s.Register)
	auth.Post("/user/token", s.rateLimiter.Limit("login", s.config.RateLimitLogin, time.Minute), s.Login)
	auth.Put("/user/token", s.Refresh)
	auth.Delete("/user/token", s.Logout)
	auth.Get("/user", s.AuthRequired(), s.GetCurrentUser)
	auth.Get("/user/books", s.AuthRequired(), s.GetMyLoans)

	library := app.Group("/library")

	// Admin routes are registered before /:bookId so "admin" is never parsed as an id.
	admin := library.Group("/admin", s.AdminRequired())
	admin.Get("/", s.AdminListBooks)
	admin.Post("/", s.AdminCreateBook)
	admin.Get("/tag", s.GetTags)
	admin.Post("/tag", s.AdminCreateTag)
	admin.Patch("/tag/:id", s.AdminUpdateTag)
	admin.Delete("/tag/:id", s.AdminDeleteTag)
	admin.Post("/author", s.AdminCreateAuthor)
	admin.Patch("/author/:id", s.AdminUpdateAuthor)
	admin.Delete("/author/:id", s.AdminDeleteAuthor)
	admin.Post("/:bookId/give", s.GiveBook)
	admin.Post("/:bookId/get", s.TakeBookBack)
	admin.Get("/:bookId/loans", s.GetBookLoans)
	admin.Get("/:bookId", s.AdminGetBook)
	admin.Patch("/:bookId", s.AdminUpdateBook)
	admin.Delete("/:bookId", s.AdminDeleteBook)

	library.Get("/author", s.GetAuthors)
	library.Get("/author/:id", s.GetAuthorBooks)
	library.Get("/tag", s.GetTags)

	library.Patch("/comment/:commentId", s.AuthRequired(), s.UpdateComment)
	library.Delete("/comment/:commentId", s.AuthRequired(), s.DeleteComment)

	library.Get("/", s.GetBooks)
	library.Get("/:bookId/rating", s.GetRating)
	library.Post("/:bookId/rating", s.AuthRequired(), s.SetRating)
	library.Post("/:bookId/comment", s.AuthRequired(), s.CreateComment)
	library.Get("/:bookId/comment", s.GetComments)
	library.Get("/:bookId", s.GetBook)
}

// AuthRequired resolves the access token (cookie or bearer header) to an
// active user and stores it in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, principal, err := s.authService.RequireUser(c.UserContext(), middleware.ExtractAccessToken(c))
		if err != nil {
			return respondError(c, err)
		}
		s.storePrincipal(c, user, principal)
		return c.Next()
	}
}

// AdminRequired is AuthRequired restricted to admins. Every failure,
// including a valid non-admin session, is reported as 401.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, principal, err := s.authService.RequireAdmin(c.UserContext(), middleware.ExtractAccessToken(c))
		if err != nil {
			if models.ErrorCode(err) == models.CodeForbidden {
				return models.RespondWithError(c, fiber.StatusUnauthorized, err)
			}
			return respondError(c, err)
		}
		s.storePrincipal(c, user, principal)
		return c.Next()
	}
}

func (s *Server) storePrincipal(c *fiber.Ctx, user *models.User, principal *service.Principal) {
	middleware.WithUserID(c, user.ID)
	c.Locals(middleware.LocalIsAdmin, user.IsAdmin)
	c.Locals(middleware.LocalTokenID, principal.TokenID)
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
