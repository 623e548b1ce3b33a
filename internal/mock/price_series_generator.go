package mock

import (
	"math/rand"
	"time"

	"github.com/BpsEason/investment-risk-platform/internal/model"
)

// GeneratorConfig holds configuration for the price series generator
type GeneratorConfig struct {
	StartPrice float64
	Volatility float64 // standard deviation of the per-step return
	Drift      float64 // mean of the per-step return
	Seed       int64   // 0 seeds from the clock
}

// DefaultGeneratorConfig returns a sensible default configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		StartPrice: 100.0,
		Volatility: 0.01, // 1% volatility
		Drift:      0.0,
	}
}

// PriceSeriesGenerator produces random-walk price series
type PriceSeriesGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewPriceSeriesGenerator creates a new generator with default config
func NewPriceSeriesGenerator() *PriceSeriesGenerator {
	return NewPriceSeriesGeneratorWithConfig(DefaultGeneratorConfig())
}

// NewPriceSeriesGeneratorWithConfig creates a new generator with custom config
func NewPriceSeriesGeneratorWithConfig(config GeneratorConfig) *PriceSeriesGenerator {
	if config.StartPrice <= 0 {
		config.StartPrice = DefaultGeneratorConfig().StartPrice
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &PriceSeriesGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate returns n chronological prices starting at the configured price
func (g *PriceSeriesGenerator) Generate(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	prices := make([]float64, n)
	prices[0] = g.config.StartPrice
	for i := 1; i < n; i++ {
		prices[i] = g.nextPrice(prices[i-1])
	}
	return prices
}

// GenerateRecords returns n prices in the request record shape
func (g *PriceSeriesGenerator) GenerateRecords(n int) []model.PriceRecord {
	prices := g.Generate(n)
	records := make([]model.PriceRecord, len(prices))
	for i, p := range prices {
		records[i] = model.PriceRecord{model.PriceField: p}
	}
	return records
}

func (g *PriceSeriesGenerator) nextPrice(price float64) float64 {
	// Normal shock around the drift
	ret := g.config.Drift + g.rng.NormFloat64()*g.config.Volatility
	next := price * (1 + ret)

	// Ensure price doesn't go non-positive
	if next <= 0 {
		next = price * 0.99
	}
	return next
}
