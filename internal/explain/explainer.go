package explain

import (
	"context"
	"errors"
	"fmt"

	"github.com/BpsEason/investment-risk-platform/internal/llm"
	"github.com/BpsEason/investment-risk-platform/internal/model"
)

const systemPrompt = "You are a concise financial risk analyst. Answer in a single plain sentence without markdown."

// Explainer turns a computed metric into a one-sentence interpretation
type Explainer struct {
	completer   llm.Completer
	temperature float64
}

// NewExplainer creates an explainer on top of a chat completer
func NewExplainer(completer llm.Completer, temperature float64) *Explainer {
	return &Explainer{
		completer:   completer,
		temperature: temperature,
	}
}

// Explain asks the completer what the metric value means for a portfolio
func (e *Explainer) Explain(ctx context.Context, result model.MetricResult) (string, error) {
	text, err := e.completer.Complete(ctx, systemPrompt, Prompt(result), e.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to explain %s: %w", result.Metric, err)
	}
	if text == "" {
		return "", errors.New("empty explanation")
	}
	return text, nil
}

// Prompt renders the user prompt for a result
func Prompt(result model.MetricResult) string {
	return fmt.Sprintf("Explain in one concise sentence what a portfolio %s value of %.4f (%s) means.",
		result.Metric, result.Value, result.Unit)
}
