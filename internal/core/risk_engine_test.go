package core

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/BpsEason/investment-risk-platform/internal/mock"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to build request records from prices
func createRecords(prices ...float64) []model.PriceRecord {
	records := make([]model.PriceRecord, len(prices))
	for i, p := range prices {
		records[i] = model.PriceRecord{model.PriceField: p}
	}
	return records
}

var samplePrices = PriceSeries{100, 99, 101, 98, 102}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Metric
		wantErr  bool
	}{
		{name: "VaR", input: "VaR", expected: MetricVaR},
		{name: "CVaR", input: "CVaR", expected: MetricCVaR},
		{name: "Sharpe", input: "Sharpe Ratio", expected: MetricSharpeRatio},
		{name: "unknown", input: "Sortino", wantErr: true},
		{name: "case sensitive", input: "var", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMetric(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedMetric))
				assert.Contains(t, err.Error(), tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
			assert.Equal(t, tt.input, m.String())
		})
	}
}

func TestParametersFromMap(t *testing.T) {
	params, err := ParametersFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultParameters(), params)

	params, err = ParametersFromMap(map[string]float64{
		ParamConfidenceLevel: 0.99,
		ParamRiskFreeRate:    0.01,
		"ignored":            42,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.99, params.ConfidenceLevel)
	assert.Equal(t, 0.01, params.RiskFreeRate)

	for _, bad := range []float64{0, -0.5, 1.0000001, 1.5, math.NaN()} {
		_, err := ParametersFromMap(map[string]float64{ParamConfidenceLevel: bad})
		assert.ErrorIs(t, err, ErrInvalidInput, "confidence %v", bad)
	}

	params, err = ParametersFromMap(map[string]float64{ParamConfidenceLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, params.ConfidenceLevel)
}

func TestExtractPrices(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		prices, err := ExtractPrices(createRecords(3, 1, 2))
		require.NoError(t, err)
		assert.Equal(t, PriceSeries{3, 1, 2}, prices)
	})

	t.Run("missing field defaults to zero", func(t *testing.T) {
		records := []model.PriceRecord{{"price": 10}, {"volume": 5}, {"price": 12}}
		prices, err := ExtractPrices(records)
		require.NoError(t, err)
		assert.Equal(t, PriceSeries{10, 0, 12}, prices)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ExtractPrices(nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := ExtractPrices(createRecords(10, -1))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestReturns(t *testing.T) {
	returns := Returns(samplePrices)
	require.Len(t, returns, 4)
	assert.InDelta(t, -0.01, returns[0], 1e-12)
	assert.InDelta(t, 2.0/99.0, returns[1], 1e-12)
	assert.InDelta(t, -3.0/101.0, returns[2], 1e-12)
	assert.InDelta(t, 4.0/98.0, returns[3], 1e-12)

	t.Run("zero prior price dropped", func(t *testing.T) {
		r := Returns(PriceSeries{0, 10, 0, 5})
		// 0->10 dropped, 10->0 kept, 0->5 dropped
		assert.Equal(t, ReturnSeries{-1}, r)
	})

	t.Run("single price", func(t *testing.T) {
		assert.Empty(t, Returns(PriceSeries{100}))
	})
}

func TestReturnsLengthOnGeneratedSeries(t *testing.T) {
	gen := mock.NewPriceSeriesGeneratorWithConfig(mock.GeneratorConfig{
		StartPrice: 100,
		Volatility: 0.02,
		Seed:       7,
	})

	for _, n := range []int{2, 3, 10, 250} {
		prices := gen.Generate(n)
		assert.Len(t, Returns(prices), n-1)
	}
}

func TestComputeVaR(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Compute(samplePrices, MetricVaR, DefaultParameters())
	require.NoError(t, err)

	// index = floor(4 * 0.05) = 0, the smallest loss, i.e. the largest gain
	assert.InDelta(t, -4.0/98.0, result.Value, 1e-12)
	assert.Equal(t, UnitPercent, result.Unit)
	assert.Equal(t, "Historical simulation VaR at 95% confidence.", result.Description)

	result, err = engine.Compute(samplePrices, MetricVaR, Parameters{ConfidenceLevel: 0.5})
	require.NoError(t, err)
	// index = 2
	assert.InDelta(t, 0.01, result.Value, 1e-12)

	result, err = engine.Compute(samplePrices, MetricVaR, Parameters{ConfidenceLevel: 1})
	require.NoError(t, err)
	// index = floor(4 * 0) = 0
	assert.InDelta(t, -4.0/98.0, result.Value, 1e-12)
	assert.Equal(t, "Historical simulation VaR at 100% confidence.", result.Description)
}

func TestComputeCVaRFullConfidenceAveragesAllLosses(t *testing.T) {
	result, err := NewEngine().Compute(samplePrices, MetricCVaR, Parameters{ConfidenceLevel: 1})
	require.NoError(t, err)

	assert.InDelta(t, -mean(Returns(samplePrices)), result.Value, 1e-12)
}

func TestComputeCVaRMatchesTailOfVaRIndex(t *testing.T) {
	engine := NewEngine()
	gen := mock.NewPriceSeriesGeneratorWithConfig(mock.GeneratorConfig{StartPrice: 50, Volatility: 0.03, Seed: 11})
	prices := PriceSeries(gen.Generate(120))

	for _, confidence := range []float64{0.5, 0.9, 0.95, 0.99} {
		params := Parameters{ConfidenceLevel: confidence}

		varResult, err := engine.Compute(prices, MetricVaR, params)
		require.NoError(t, err)
		cvarResult, err := engine.Compute(prices, MetricCVaR, params)
		require.NoError(t, err)

		losses := sortedLosses(Returns(prices))
		idx := quantileIndex(len(losses), confidence)
		assert.Equal(t, losses[idx], varResult.Value)

		sum := 0.0
		for _, l := range losses[idx:] {
			sum += l
		}
		assert.Equal(t, sum/float64(len(losses)-idx), cvarResult.Value)
	}
}

func TestComputeCVaRSample(t *testing.T) {
	result, err := NewEngine().Compute(samplePrices, MetricCVaR, DefaultParameters())
	require.NoError(t, err)

	assert.InDelta(t, -0.0053288, result.Value, 1e-6)
	assert.Equal(t, UnitPercent, result.Unit)
	assert.Contains(t, result.Description, "95%")
}

func TestComputeSharpeRatio(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Compute(samplePrices, MetricSharpeRatio, DefaultParameters())
	require.NoError(t, err)
	// mean 0.0053288, sample sd 0.0313197
	assert.InDelta(t, 0.170143, result.Value, 1e-5)
	assert.Equal(t, UnitRatio, result.Unit)
	assert.Equal(t, "Sharpe Ratio of historical returns (risk-free rate 0).", result.Description)

	result, err = engine.Compute(samplePrices, MetricSharpeRatio, Parameters{ConfidenceLevel: 0.95, RiskFreeRate: 0.001})
	require.NoError(t, err)
	assert.InDelta(t, 0.138215, result.Value, 1e-5)
}

func TestComputeDegenerateFallbacks(t *testing.T) {
	engine := NewEngine()

	t.Run("flat prices give zero sharpe", func(t *testing.T) {
		result, err := engine.Compute(PriceSeries{10, 10, 10, 10}, MetricSharpeRatio, DefaultParameters())
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Value)
	})

	t.Run("single return gives zero sharpe", func(t *testing.T) {
		result, err := engine.Compute(PriceSeries{10, 11}, MetricSharpeRatio, DefaultParameters())
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Value)
	})

	t.Run("tiny confidence clamps to last loss", func(t *testing.T) {
		result, err := engine.Compute(samplePrices, MetricVaR, Parameters{ConfidenceLevel: 1e-18})
		require.NoError(t, err)
		assert.InDelta(t, 3.0/101.0, result.Value, 1e-12)

		result, err = engine.Compute(samplePrices, MetricCVaR, Parameters{ConfidenceLevel: 1e-18})
		require.NoError(t, err)
		assert.InDelta(t, 3.0/101.0, result.Value, 1e-12)
	})
}

func TestComputeInvalidInput(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name    string
		records []model.PriceRecord
		metric  string
		options map[string]float64
		want    error
	}{
		{name: "empty data", records: nil, metric: "VaR", want: ErrInvalidInput},
		{name: "single element", records: createRecords(100), metric: "VaR", want: ErrInvalidInput},
		{name: "only zero priors", records: createRecords(0, 0, 0), metric: "CVaR", want: ErrInvalidInput},
		{name: "unsupported metric", records: createRecords(1, 2, 3), metric: "Sortino", want: ErrUnsupportedMetric},
		{name: "bad confidence", records: createRecords(1, 2, 3), metric: "VaR", options: map[string]float64{"confidence_level": 2}, want: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ComputeRecords(tt.records, tt.metric, tt.options)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := engine.Compute(samplePrices, Metric(99), DefaultParameters())
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestComputeDoesNotMutatePrices(t *testing.T) {
	prices := PriceSeries{100, 99, 101, 98, 102}
	_, err := NewEngine().Compute(prices, MetricCVaR, DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, PriceSeries{100, 99, 101, 98, 102}, prices)
}

func TestComputeConcurrentCallers(t *testing.T) {
	engine := NewEngine()
	expected, err := engine.Compute(samplePrices, MetricSharpeRatio, DefaultParameters())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.Compute(samplePrices, MetricSharpeRatio, DefaultParameters())
			assert.NoError(t, err)
			assert.Equal(t, expected, got)
		}()
	}
	wg.Wait()
}

func TestResultToModel(t *testing.T) {
	r := Result{Metric: MetricSharpeRatio, Value: 1.2, Unit: UnitRatio, Description: "d"}
	assert.Equal(t, model.MetricResult{Metric: "Sharpe Ratio", Value: 1.2, Unit: "ratio", Description: "d"}, r.ToModel())
}
