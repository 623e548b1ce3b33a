package mock

import (
	"testing"

	"github.com/BpsEason/investment-risk-platform/internal/model"
)

func TestDefaultGeneratorConfig(t *testing.T) {
	config := DefaultGeneratorConfig()

	if config.StartPrice != 100.0 {
		t.Errorf("Expected start price to be 100, got %f", config.StartPrice)
	}
	if config.Volatility != 0.01 {
		t.Errorf("Expected volatility to be 0.01, got %f", config.Volatility)
	}
	if config.Seed != 0 {
		t.Errorf("Expected clock seeding by default, got seed %d", config.Seed)
	}
}

func TestNewPriceSeriesGenerator(t *testing.T) {
	generator := NewPriceSeriesGenerator()

	if generator == nil {
		t.Fatal("Expected generator to be non-nil")
	}
	if generator.rng == nil {
		t.Error("Expected rng to be initialized")
	}
}

func TestNewPriceSeriesGeneratorWithConfigFixesStartPrice(t *testing.T) {
	generator := NewPriceSeriesGeneratorWithConfig(GeneratorConfig{StartPrice: -5, Seed: 1})

	if generator.config.StartPrice != DefaultGeneratorConfig().StartPrice {
		t.Errorf("Expected non-positive start price to be replaced, got %f", generator.config.StartPrice)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{name: "zero", count: 0, want: 0},
		{name: "negative", count: -3, want: 0},
		{name: "single", count: 1, want: 1},
		{name: "many", count: 500, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewPriceSeriesGeneratorWithConfig(GeneratorConfig{StartPrice: 42, Volatility: 0.05, Seed: 3})
			prices := generator.Generate(tt.count)

			if len(prices) != tt.want {
				t.Fatalf("Expected %d prices, got %d", tt.want, len(prices))
			}
			if tt.want > 0 && prices[0] != 42 {
				t.Errorf("Expected first price to be the start price, got %f", prices[0])
			}
			for i, p := range prices {
				if p <= 0 {
					t.Errorf("Expected positive price at %d, got %f", i, p)
				}
			}
		})
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	config := GeneratorConfig{StartPrice: 100, Volatility: 0.02, Seed: 99}
	a := NewPriceSeriesGeneratorWithConfig(config).Generate(50)
	b := NewPriceSeriesGeneratorWithConfig(config).Generate(50)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical series for the same seed, differ at %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestGenerateExtremeVolatilityStaysPositive(t *testing.T) {
	generator := NewPriceSeriesGeneratorWithConfig(GeneratorConfig{StartPrice: 1, Volatility: 2, Seed: 17})

	for i, p := range generator.Generate(100) {
		if p <= 0 {
			t.Fatalf("Expected positive price at %d, got %f", i, p)
		}
	}
}

func TestGenerateRecords(t *testing.T) {
	generator := NewPriceSeriesGeneratorWithConfig(GeneratorConfig{StartPrice: 10, Volatility: 0.01, Seed: 5})
	records := generator.GenerateRecords(5)

	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}
	for i, r := range records {
		if _, ok := r[model.PriceField]; !ok {
			t.Errorf("Expected record %d to carry a price field", i)
		}
	}
}
