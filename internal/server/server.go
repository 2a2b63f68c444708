// Package server exposes the workflow engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkflowEngine is the single operation callers drive transitions through.
type WorkflowEngine interface {
	Apply(ctx context.Context, req workflow.ApplyRequest) (*models.Application, error)
}

// ApplicationDirectory covers the non-transition application operations the
// HTTP surface needs.
type ApplicationDirectory interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, applicationID string) (*models.Application, error)
	SetDocumentChecked(ctx context.Context, applicationID, documentType string, checked bool) error
}

// HistoryProvider serves the ordered transition history.
type HistoryProvider interface {
	History(ctx context.Context, applicationID string) ([]models.TransitionRecord, error)
}

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

type Server struct {
	engine        WorkflowEngine
	apps          ApplicationDirectory
	audit         HistoryProvider
	clock         func() time.Time
	actionTimeout time.Duration
	healthChecks  map[string]HealthCheck
	logger        logger.Logger
	router        chi.Router
}

type Option func(*Server)

// WithClock overrides the server clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// WithHealthCheck registers a named dependency ping for /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.healthChecks[name] = check }
}

func New(engine WorkflowEngine, apps ApplicationDirectory, audit HistoryProvider, actionTimeout time.Duration, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		engine:        engine,
		apps:          apps,
		audit:         audit,
		clock:         func() time.Time { return time.Now().UTC() },
		actionTimeout: actionTimeout,
		healthChecks:  map[string]HealthCheck{},
		logger:        log.WithFields(map[string]interface{}{"component": "http"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ActorFromHeaders)

		r.Post("/applications", s.handleCreateApplication)
		r.Get("/applications/{id}", s.handleGetApplication)
		r.Post("/applications/{id}/actions/{action}", s.handleAction)
		r.Get("/applications/{id}/history", s.handleHistory)
		r.Post("/applications/{id}/documents/{documentType}/check", s.handleCheckDocument)
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// actionContext bounds every engine call; no operation blocks indefinitely.
func (s *Server) actionContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.actionTimeout)
}
