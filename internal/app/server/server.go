package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/pailler/qrlink/internal/app/service"
	inthttp "github.com/pailler/qrlink/internal/http/handler"
	"github.com/pailler/qrlink/internal/http/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles everything required by the HTTP server.
type Dependencies struct {
	Logger         *zap.Logger
	Redis          *redis.Client
	Resolver       *service.Resolver
	LinkService    service.LinkService
	QRService      service.QRCodeService
	StatsService   service.StatsService
	SessionService service.SessionService
	SessionHours   int
	DownloadSecret []byte
	BaseURL        string
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())
	s.app.Use(middleware.Logger(s.deps.Logger))
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}
}

func (s *Server) registerRoutes() {
	qrHandler := inthttp.NewQRHandler(inthttp.QRDeps{
		Logger:    s.deps.Logger,
		QRService: s.deps.QRService,
		Secret:    s.deps.DownloadSecret,
		BaseURL:   s.deps.BaseURL,
	})
	sessionHandler := inthttp.NewSessionHandler(inthttp.SessionDeps{
		Logger:       s.deps.Logger,
		Sessions:     s.deps.SessionService,
		DefaultHours: s.deps.SessionHours,
	})

	// Session issuance cannot require a session; the download route is
	// gated by its signed token instead.
	api := s.app.Group("/api")
	sessionHandler.Register(api)
	qrHandler.RegisterPublic(s.app)

	gated := api.Group("", middleware.Session(s.deps.SessionService, s.deps.Logger))
	inthttp.NewLinkHandler(inthttp.LinkDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
		BaseURL:     s.deps.BaseURL,
	}).Register(gated)
	inthttp.NewStatsHandler(inthttp.StatsDeps{
		Logger:       s.deps.Logger,
		StatsService: s.deps.StatsService,
	}).Register(gated)
	qrHandler.Register(gated)

	// Last, so the :code wildcard does not shadow anything above.
	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:   s.deps.Logger,
		Resolver: s.deps.Resolver,
	}).Register(s.app)
}
