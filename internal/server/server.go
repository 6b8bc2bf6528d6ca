// Package server exposes the Bot Framework webhook, health and metrics
// endpoints over fiber.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/logger"
	"github.com/edgard/helpdeskbot/internal/metrics"
)

// Webhook processes a raw Bot Framework activity.
type Webhook interface {
	Process(ctx context.Context, authHeader string, body []byte) error
}

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// Deps provides the collaborators of the server.
type Deps struct {
	Config           config.ServerConfig
	Logger           *slog.Logger
	Webhook          Webhook
	Metrics          *metrics.Recorder
	Gatherer         prometheus.Gatherer
	Version          string
	KnowledgeEntries int
	Checks           map[string]Checker
}

// Server wraps the fiber app and its limiter storage.
type Server struct {
	App     *fiber.App
	deps    Deps
	log     *slog.Logger
	storage fiber.Storage
}

// New creates a server with middleware and routes configured.
func New(deps Deps) *Server {
	log := deps.Logger.With("component", "server")

	app := fiber.New(fiber.Config{
		AppName:      "helpdeskbot",
		ReadTimeout:  deps.Config.ReadTimeout,
		WriteTimeout: deps.Config.WriteTimeout,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(recover.New())
	app.Use(logger.HTTPMiddleware(log))

	s := &Server{App: app, deps: deps, log: log}

	if deps.Config.RateLimit > 0 {
		cfg := limiter.Config{
			Max:        deps.Config.RateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "rate limit exceeded, try again later",
				})
			},
		}
		if deps.Config.RedisURL != "" {
			s.storage = redis.New(redis.Config{URL: deps.Config.RedisURL})
			cfg.Storage = s.storage
			log.Info("Rate limiter uses shared redis storage")
		}
		app.Use(limiter.New(cfg))
	}

	s.RegisterRoutes()
	return s
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Starting webhook server", "addr", s.deps.Config.Addr)
	return s.App.Listen(s.deps.Config.Addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests, waits for in-flight ones up to ctx's
// deadline and closes the limiter storage.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.App.ShutdownWithContext(ctx)
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil {
			s.log.Warn("Failed to close limiter storage", "error", cerr)
		}
	}
	return err
}
