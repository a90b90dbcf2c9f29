// Package server is the HTTP boundary of the broker: it authenticates the
// caller from identity headers, calls the core services and maps their error
// kinds to status codes.
package server

import (
	// Go Internal Packages
	"context"
	"net/http"
	"time"

	// Local Packages
	directory "coinnet/services/directory"
	lifecycle "coinnet/services/lifecycle"
	queries "coinnet/services/queries"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const probeTimeout = 2 * time.Second

// Probe checks one backing dependency for the health endpoint.
type Probe func(ctx context.Context) error

type Options struct {
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Probes  map[string]Probe
}

type Server struct {
	Logger    *zap.Logger
	directory *directory.Directory
	machine   *lifecycle.Machine
	queries   *queries.Service
	opts      Options
	router    *gin.Engine
}

func NewServer(logger *zap.Logger, dir *directory.Directory, machine *lifecycle.Machine, q *queries.Service, opts Options) *Server {
	s := &Server{
		Logger:    logger,
		directory: dir,
		machine:   machine,
		queries:   q,
		opts:      opts,
		router:    gin.New(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), requestLogger(s.Logger))

	r.GET("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	api := r.Group("/", identity())

	providers := api.Group("/providers")
	{
		providers.POST("", s.handleRegisterProvider)
		providers.GET("/me", s.handleMyProvider)
		providers.GET("/nearby", s.handleFindNearby)
		providers.GET("/:id", s.handleGetProvider)
		providers.PATCH("/:id", s.handleUpdateProvider)
		providers.POST("/:id/availability", s.handleSetAvailability)
	}

	transactions := api.Group("/transactions")
	{
		transactions.POST("", s.handleCreateTransaction)
		transactions.GET("/mine", s.handleMyTransactions)
		transactions.GET("/queue", s.handleProviderQueue)
		transactions.GET("/code/:code", s.handleGetTransactionByCode)
		transactions.GET("/:id", s.handleGetTransaction)
		transactions.POST("/:id/:action", s.handleTransition)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/metrics", s.handleAdminMetrics)
		admin.GET("/providers", s.handleAdminProviders)
		admin.PATCH("/providers/:id/verify", s.handleVerifyProvider)
		admin.PATCH("/providers/:id/suspend", s.handleSuspendProvider)
		admin.GET("/disputes", s.handleDisputes)
		admin.PATCH("/disputes/:id/resolve", s.handleResolveDispute)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.opts.Probes))
	for name, probe := range s.opts.Probes {
		if err := probe(ctx); err != nil {
			s.Logger.Error("health probe failed", zap.String("probe", name), zap.Error(err))
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
