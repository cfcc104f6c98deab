package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/wizard"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// ReportStore is the read side of persisted reports plus user priorities.
type ReportStore interface {
	ListReportsByUser(ctx context.Context, userID string) ([]domain.Report, error)
	Priorities(ctx context.Context, userID string) ([]string, error)
	SavePriorities(ctx context.Context, userID string, categoryIDs []string) error
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
	AreaCounts(ctx context.Context, level int) ([]domain.AreaCount, error)
}

// Options configures the API server.
type Options struct {
	Addr           string
	JWTSecret      []byte
	AdminRole      string
	MaxUploadBytes int64
}

// Server exposes the report API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	drafts     *wizard.Registry
	reports    ReportStore
	opts       Options
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(opts Options, drafts *wizard.Registry, reports ReportStore, ready ReadinessChecker, logger *slog.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	if opts.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = opts.MaxUploadBytes
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		drafts:  drafts,
		reports: reports,
		opts:    opts,
		logger:  logger,
	}

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api", authenticate(opts.JWTSecret, logger))
	{
		api.GET("/categories", s.listCategories)
		api.GET("/categories/:categoryId", s.getCategory)

		api.POST("/report/:categoryId", s.openDraft)
		api.GET("/drafts/:draftId", s.getDraft)
		api.DELETE("/drafts/:draftId", s.discardDraft)
		api.PATCH("/drafts/:draftId", s.updateField)
		api.PUT("/drafts/:draftId/postal-code", s.setPostalCode)
		api.PUT("/drafts/:draftId/marker", s.dragMarker)
		api.POST("/drafts/:draftId/advance", s.advance)
		api.POST("/drafts/:draftId/retreat", s.retreat)
		api.POST("/drafts/:draftId/files", s.attachFiles)
		api.DELETE("/drafts/:draftId/files/:index", s.removeFile)
		api.GET("/drafts/:draftId/files/:fileId/preview", s.previewFile)
		api.POST("/drafts/:draftId/submit", s.submit)

		api.GET("/reports/mine", s.myReports)
		api.GET("/priorities", s.getPriorities)
		api.PUT("/priorities", s.savePriorities)

		admin := api.Group("/admin", requireRole(opts.AdminRole))
		admin.GET("/dashboard", s.dashboard)
		admin.GET("/areas", s.areas)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/healthz" || c.FullPath() == "/metrics" {
			return
		}
		logger.Debug("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
