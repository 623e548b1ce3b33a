package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BpsEason/investment-risk-platform/internal/core"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/observability"
)

// DefaultExplainTimeout bounds the optional explanation call
const DefaultExplainTimeout = 5 * time.Second

// RiskEngine computes a metric from raw request records
type RiskEngine interface {
	ComputeRecords(records []model.PriceRecord, metric string, parameters map[string]float64) (core.Result, error)
}

// Explainer produces a natural-language interpretation of a result
type Explainer interface {
	Explain(ctx context.Context, result model.MetricResult) (string, error)
}

// RiskService serves risk metric calculations for the API
type RiskService struct {
	engine         RiskEngine
	explainer      Explainer
	explainTimeout time.Duration
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// Option configures a RiskService
type Option func(*RiskService)

// WithExplainer enables explanations, each bounded by timeout
func WithExplainer(explainer Explainer, timeout time.Duration) Option {
	return func(s *RiskService) {
		if timeout <= 0 {
			timeout = DefaultExplainTimeout
		}
		s.explainer = explainer
		s.explainTimeout = timeout
	}
}

// WithMetrics records calculations on m
func WithMetrics(m *observability.Metrics) Option {
	return func(s *RiskService) {
		s.metrics = m
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *RiskService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRiskService creates a new risk service
func NewRiskService(engine RiskEngine, opts ...Option) *RiskService {
	s := &RiskService{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate computes the requested metric. Client-side failures wrap
// core.ErrInvalidInput or core.ErrUnsupportedMetric.
func (s *RiskService) Calculate(ctx context.Context, req model.RiskRequest) (model.MetricResult, error) {
	start := time.Now()
	label := metricLabel(req.Metric)

	result, err := s.engine.ComputeRecords(req.Data, req.Metric, req.Parameters)
	if err != nil {
		outcome := observability.OutcomeError
		if isClientError(err) {
			outcome = observability.OutcomeRejected
		}
		s.metrics.ObserveCalculation(label, outcome, time.Since(start))
		s.logger.Debug("risk calculation rejected",
			"metric", req.Metric,
			"records", len(req.Data),
			"error", err)
		return model.MetricResult{}, err
	}
	s.metrics.ObserveCalculation(label, observability.OutcomeSuccess, time.Since(start))

	out := result.ToModel()
	s.logger.Debug("risk calculation completed",
		"metric", out.Metric,
		"records", len(req.Data),
		"value", out.Value)

	if s.explainer != nil {
		out.Description = s.describe(ctx, out)
	}
	return out, nil
}

// describe appends an explanation when one is available. Explanation
// failures never fail the calculation.
func (s *RiskService) describe(ctx context.Context, result model.MetricResult) string {
	ctx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()

	text, err := s.explainer.Explain(ctx, result)
	if err != nil {
		s.metrics.ObserveExplanation(observability.OutcomeError)
		s.logger.Warn("metric explanation failed, keeping computed description",
			"metric", result.Metric,
			"error", err)
		return result.Description
	}
	s.metrics.ObserveExplanation(observability.OutcomeSuccess)
	return result.Description + " Explanation: " + text
}

// isClientError reports whether err is caused by the request content
func isClientError(err error) bool {
	return errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrUnsupportedMetric)
}

// metricLabel keeps the metrics label set closed
func metricLabel(name string) string {
	if _, err := core.ParseMetric(name); err != nil {
		return "unsupported"
	}
	return name
}
