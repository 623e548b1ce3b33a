package core

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/shopspring/decimal"
)

// This file holds the risk metric engine: a stateless transformation from a
// price series to a single historical-simulation risk figure.
// - risk_engine.go: metrics, parameters, dispatch (this file)
// - stats.go: sort, mean, sample standard deviation, tail slicing

// Parameter names and defaults
const (
	ParamConfidenceLevel = "confidence_level"
	ParamRiskFreeRate    = "risk_free_rate"

	DefaultConfidenceLevel = 0.95
	DefaultRiskFreeRate    = 0.0

	UnitPercent = "%"
	UnitRatio   = "ratio"
)

var (
	// ErrInvalidInput is returned when the price data cannot produce a return series
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedMetric is returned for metric names outside the supported set
	ErrUnsupportedMetric = errors.New("unsupported risk metric")
)

// Metric is one of the supported risk metrics
type Metric int

const (
	MetricVaR Metric = iota + 1
	MetricCVaR
	MetricSharpeRatio
)

var metricNames = map[Metric]string{
	MetricVaR:         "VaR",
	MetricCVaR:        "CVaR",
	MetricSharpeRatio: "Sharpe Ratio",
}

// String returns the wire name of the metric
func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// SupportedMetrics lists the wire names in a stable order
func SupportedMetrics() []string {
	return []string{MetricVaR.String(), MetricCVaR.String(), MetricSharpeRatio.String()}
}

// ParseMetric maps a wire name onto a Metric. Names are matched exactly.
func ParseMetric(name string) (Metric, error) {
	for m, n := range metricNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedMetric, name, strings.Join(SupportedMetrics(), ", "))
}

// Parameters holds the numeric options of a calculation
type Parameters struct {
	ConfidenceLevel float64
	RiskFreeRate    float64
}

// DefaultParameters returns the parameters used when a request names none
func DefaultParameters() Parameters {
	return Parameters{
		ConfidenceLevel: DefaultConfidenceLevel,
		RiskFreeRate:    DefaultRiskFreeRate,
	}
}

// ParametersFromMap applies request options on top of the defaults.
// Unknown keys are ignored.
func ParametersFromMap(options map[string]float64) (Parameters, error) {
	params := DefaultParameters()
	if v, ok := options[ParamConfidenceLevel]; ok {
		params.ConfidenceLevel = v
	}
	if v, ok := options[ParamRiskFreeRate]; ok {
		params.RiskFreeRate = v
	}
	if err := params.Validate(); err != nil {
		return Parameters{}, err
	}
	return params, nil
}

// Validate checks parameter ranges
func (p Parameters) Validate() error {
	// 1 is allowed and selects the smallest loss
	if math.IsNaN(p.ConfidenceLevel) || p.ConfidenceLevel <= 0 || p.ConfidenceLevel > 1 {
		return fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrInvalidInput, ParamConfidenceLevel, p.ConfidenceLevel)
	}
	if math.IsNaN(p.RiskFreeRate) || math.IsInf(p.RiskFreeRate, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, ParamRiskFreeRate)
	}
	return nil
}

// PriceSeries is a chronological sequence of non-negative prices
type PriceSeries []float64

// ReturnSeries is a sequence of simple period returns
type ReturnSeries []float64

// ExtractPrices reads the price field of every record in order. A record
// without the field contributes a price of 0.
func ExtractPrices(records []model.PriceRecord) (PriceSeries, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no price data provided", ErrInvalidInput)
	}

	prices := make(PriceSeries, 0, len(records))
	for i, record := range records {
		price := record[model.PriceField]
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			return nil, fmt.Errorf("%w: price at position %d must be a non-negative number", ErrInvalidInput, i)
		}
		prices = append(prices, price)
	}
	return prices, nil
}

// Returns derives simple returns between consecutive prices. Positions whose
// prior price is zero are dropped.
func Returns(prices PriceSeries) ReturnSeries {
	if len(prices) < 2 {
		return ReturnSeries{}
	}
	returns := make(ReturnSeries, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prev)/prev)
	}
	return returns
}

// Result is the outcome of a single metric computation
type Result struct {
	Metric      Metric
	Value       float64
	Unit        string
	Description string
}

// ToModel converts the result to its wire representation
func (r Result) ToModel() model.MetricResult {
	return model.MetricResult{
		Metric:      r.Metric.String(),
		Value:       r.Value,
		Unit:        r.Unit,
		Description: r.Description,
	}
}

// Engine computes risk metrics by historical simulation. The zero value is
// ready to use and safe for concurrent callers.
type Engine struct{}

// NewEngine creates a risk engine
func NewEngine() *Engine {
	return &Engine{}
}

// ComputeRecords runs the full pipeline from raw request records: price
// extraction, metric parsing, parameter defaults and computation.
func (e *Engine) ComputeRecords(records []model.PriceRecord, metricName string, options map[string]float64) (Result, error) {
	prices, err := ExtractPrices(records)
	if err != nil {
		return Result{}, err
	}
	metric, err := ParseMetric(metricName)
	if err != nil {
		return Result{}, err
	}
	params, err := ParametersFromMap(options)
	if err != nil {
		return Result{}, err
	}
	return e.Compute(prices, metric, params)
}

// Compute derives returns from prices and evaluates the requested metric
func (e *Engine) Compute(prices PriceSeries, metric Metric, params Parameters) (Result, error) {
	if len(prices) == 0 {
		return Result{}, fmt.Errorf("%w: no price data provided", ErrInvalidInput)
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	returns := Returns(prices)
	if len(returns) == 0 {
		return Result{}, fmt.Errorf("%w: not enough data to compute returns", ErrInvalidInput)
	}

	var (
		value float64
		unit  string
		desc  string
	)
	switch metric {
	case MetricVaR:
		value = valueAtRisk(returns, params.ConfidenceLevel)
		unit = UnitPercent
		desc = fmt.Sprintf("Historical simulation VaR at %s%% confidence.", percent(params.ConfidenceLevel))
	case MetricCVaR:
		value = conditionalValueAtRisk(returns, params.ConfidenceLevel)
		unit = UnitPercent
		desc = fmt.Sprintf("Historical simulation CVaR (expected shortfall) at %s%% confidence.", percent(params.ConfidenceLevel))
	case MetricSharpeRatio:
		value = sharpeRatio(returns, params.RiskFreeRate)
		unit = UnitRatio
		desc = fmt.Sprintf("Sharpe Ratio of historical returns (risk-free rate %s).", decimal.NewFromFloat(params.RiskFreeRate).String())
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}

	return Result{
		Metric:      metric,
		Value:       finiteOr(value, 0),
		Unit:        unit,
		Description: desc,
	}, nil
}

// sortedLosses negates the returns and sorts them ascending, so the largest
// losses sit at the end.
func sortedLosses(returns ReturnSeries) []float64 {
	losses := make([]float64, len(returns))
	for i, r := range returns {
		losses[i] = -r
	}
	return sortedAscending(losses)
}

func valueAtRisk(returns ReturnSeries, confidence float64) float64 {
	losses := sortedLosses(returns)
	return losses[quantileIndex(len(losses), confidence)]
}

func conditionalValueAtRisk(returns ReturnSeries, confidence float64) float64 {
	losses := sortedLosses(returns)
	tail := tailFrom(losses, quantileIndex(len(losses), confidence))
	if len(tail) == 0 {
		return 0
	}
	return mean(tail)
}

func sharpeRatio(returns ReturnSeries, riskFreeRate float64) float64 {
	std := sampleStdDev(returns)
	if std == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / std
}

// percent renders a fraction as an exact decimal percentage, 0.95 -> "95"
func percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).String()
}
