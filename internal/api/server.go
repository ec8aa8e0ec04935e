package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/transport"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Viewer is what the API reports on. *session.Session satisfies it.
type Viewer interface {
	DesktopID() string
	ViewerID() string
	Status() transport.Status
	Attempts() int
	State() (types.DesktopState, uint64)
}

// Config configures the inspection server
type Config struct {
	Addr        string
	RateLimit   middleware.RateLimitConfig
	Development bool
	Viewer      Viewer
	Metrics     *monitoring.Metrics
	Logger      *logging.Logger
}

// Server is the inspection HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *logging.Logger
}

// New builds the router and HTTP server
func New(cfg Config) *Server {
	log := logging.OrNop(cfg.Logger).Named("api")
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics(nil)
	}

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.GlobalRateLimit(cfg.RateLimit))

	h := &handlers{viewer: cfg.Viewer, metrics: metrics}
	router.GET("/healthz", h.health)
	router.GET("/status", h.status)
	router.GET("/state", h.state)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/summary", h.metricsSummary)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown
func (s *Server) ListenAndServe() error {
	s.log.Info("Starting inspection server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping inspection server")
	return s.http.Shutdown(ctx)
}
