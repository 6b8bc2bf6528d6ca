package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/helpdeskbot/internal/errs"
)

const (
	routeMessages = "/api/messages"
	routeHealth   = "/api/health"
	routeMetrics  = "/metrics"

	healthTimeout = 5 * time.Second
)

// RegisterRoutes sets up all routes.
func (s *Server) RegisterRoutes() {
	s.App.Post(routeMessages, s.handleMessages)
	s.App.Get(routeHealth, s.handleHealth)

	gatherer := s.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.App.Get(routeMetrics, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// handleMessages hands the activity to the webhook and maps its error code to
// a status. Processing failures past authentication have already produced a
// reply for the user, so anything else is acknowledged with 200.
func (s *Server) handleMessages(c fiber.Ctx) error {
	start := time.Now()
	defer func() { s.deps.Metrics.ObserveRequest(routeMessages, time.Since(start)) }()

	err := s.deps.Webhook.Process(c.Context(), c.Get(fiber.HeaderAuthorization), c.Body())
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusOK)
	case errs.Is(err, errs.CodeValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errs.Is(err, errs.CodeUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	default:
		s.log.ErrorContext(c.Context(), "Webhook processing failed", "error", err)
		return c.SendStatus(fiber.StatusOK)
	}
}

type healthResponse struct {
	Status           string            `json:"status"`
	Version          string            `json:"version"`
	KnowledgeEntries int               `json:"knowledge_entries"`
	Checks           map[string]string `json:"checks"`
}

// handleHealth reports liveness. A failing dependency marks the service
// degraded but keeps status 200: the bot still answers with fallbacks.
func (s *Server) handleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:           "healthy",
		Version:          s.deps.Version,
		KnowledgeEntries: s.deps.KnowledgeEntries,
		Checks:           make(map[string]string, len(s.deps.Checks)),
	}
	for name, check := range s.deps.Checks {
		if err := check.Ping(ctx); err != nil {
			s.log.WarnContext(ctx, "Health check failed", "check", name, "error", err)
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.JSON(resp)
}
