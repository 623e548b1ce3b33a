package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// The api package is split by concern:
// - api.go: handler dependencies and routing (this file)
// - handler.go: HTTP request handlers
// - middleware.go: middleware functions
// - validator.go: request validation

// Constants
const (
	DefaultTimeout      = 30 * time.Second
	ServiceVersion      = "1.0.0"
	ServiceName         = "investment-risk-platform"
	WelcomeMessage      = "Welcome to the Investment Risk Management Platform API"
	UploadFormField     = "file"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// RiskService computes risk metrics for validated requests
type RiskService interface {
	Calculate(ctx context.Context, req model.RiskRequest) (model.MetricResult, error)
}

// ImportService parses uploaded tabular files
type ImportService interface {
	Import(ctx context.Context, filename string, r io.Reader) (model.ImportSummary, error)
	MaxUploadBytes() int64
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	riskService    RiskService
	importService  ImportService
	validator      *Validator
	metricsHandler http.Handler
	requestTimeout time.Duration
	logger         *slog.Logger
}

// HandlerOption configures an APIHandler
type HandlerOption func(*APIHandler)

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(a *APIHandler) {
		a.metricsHandler = h
	}
}

// WithRequestTimeout bounds the work done for a single request
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(a *APIHandler) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(riskService RiskService, importService ImportService, logger *slog.Logger, opts ...HandlerOption) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &APIHandler{
		riskService:    riskService,
		importService:  importService,
		validator:      GetValidator(),
		requestTimeout: DefaultTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewServer wraps the routes in an http.Server listening on port
func (h *APIHandler) NewServer(port int) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(corsMiddleware())

	// API routes
	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)
	if h.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(h.metricsHandler))
	}
	router.POST("/calculate-risk", h.CalculateRisk)
	router.POST("/etl/import-data", h.ImportData)

	return router
}
