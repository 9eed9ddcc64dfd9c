package api

import (
	"net/http"
	"time"

	"gogsea/app"
	"gogsea/internal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ServerSettings holds transport limits for the API router
type ServerSettings struct {
	GinMode      string
	MaxBodyBytes int64
}

// Server is the public HTTP surface of the analysis service
type Server struct {
	router   *gin.Engine
	analyses *app.AnalysisService
	settings ServerSettings
	logger   *internal.Logger
}

// NewServer creates the gin router with all routes registered
func NewServer(analyses *app.AnalysisService, settings ServerSettings, logger *internal.Logger) *Server {
	if settings.GinMode != "" {
		gin.SetMode(settings.GinMode)
	}
	if settings.MaxBodyBytes <= 0 {
		settings.MaxBodyBytes = 64 << 20
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:   gin.New(),
		analyses: analyses,
		settings: settings,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(accessLog(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/species", s.handleSpecies)
	s.router.POST("/analyse", s.handleAnalyse)

	runs := s.router.Group("/runs")
	{
		runs.GET("", s.handleListRuns)
		runs.GET("/:id", s.handleGetRun)
	}
}

// requestID tags each request with an id, reusing the caller's when present
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// accessLog writes one structured line per request
func accessLog(logger *internal.Logger) gin.HandlerFunc {
	zl := logger.Zerolog()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := zl.Info()
		if status >= http.StatusInternalServerError {
			event = zl.Error()
		}
		event.
			Str("request_id", c.GetString("requestID")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("[HTTP] request")
	}
}
