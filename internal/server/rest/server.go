// Package rest exposes the user service over HTTP using fiber.
package rest

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/backup"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// UserService is what the handlers need from services.UserService.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, in *models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, in *models.UserInput) (models.User, error)
	DeleteUserByID(ctx context.Context, id string) (models.User, error)
	CountUsers(ctx context.Context) (int, error)
	FindPaginated(ctx context.Context, page, limit int) (models.Page, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// Snapshotter takes a backup. nil disables POST /admin/backup.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*backup.Result, error)
}

type Server struct {
	app       *fiber.App
	address   string
	users     UserService
	backups   Snapshotter
	admins    map[string]struct{}
	jwtSecret []byte
	logger    logging.Logger
}

// NewServer builds the fiber app and registers every route.
func NewServer(cfg *config.Config, users UserService, backups Snapshotter, l logging.Logger) *Server {
	s := &Server{
		address:   cfg.HTTPAddr,
		users:     users,
		backups:   backups,
		admins:    make(map[string]struct{}),
		jwtSecret: []byte(cfg.SecretKey),
		logger:    l.With("module", "rest_server"),
	}

	for _, e := range cfg.Admins() {
		s.admins[e] = struct{}{}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "userkeeper",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(requestID())
	s.app.Use(s.accessLog())
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept,
			fiber.HeaderAuthorization, common.RequestIDHeaderName,
		}, ", "),
		ExposeHeaders: common.RequestIDHeaderName,
	}))

	s.routes(cfg)
	return s
}

func (s *Server) routes(cfg *config.Config) {
	s.app.Get("/health", s.health)
	s.app.Get("/api-docs", s.apiDocs)

	users := s.app.Group("/users")
	users.Post("/", s.createUser)
	users.Get("/", s.listUsers)
	users.Get("/count", s.countUsers)
	users.Get("/:id", s.getUser)
	users.Put("/:id", s.updateUser)
	users.Delete("/:id", s.deleteUser)

	authn := s.requireAuth()

	auth := s.app.Group("/auth")
	auth.Post("/register", s.createUser)
	auth.Get("/password-policy", s.passwordPolicy)
	if cfg.LoginRateLimit > 0 {
		auth.Post("/login", loginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow), s.login)
	} else {
		auth.Post("/login", s.login)
	}
	auth.Get("/me", authn, s.me)

	admin := s.app.Group("/admin", authn, s.requireAdmin())
	admin.Post("/backup", s.backup)
}

func loginLimiter(max int, window time.Duration) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
	})
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}
