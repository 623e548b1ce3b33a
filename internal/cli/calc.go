package cli

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/BpsEason/investment-risk-platform/internal/core"
	"github.com/BpsEason/investment-risk-platform/internal/explain"
	"github.com/BpsEason/investment-risk-platform/internal/llm"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/service"
	"github.com/google/subcommands"
)

type calcCmd struct {
	file       string
	column     string
	metric     string
	confidence float64
	riskFree   float64
	explain    bool

	out io.Writer
}

func (*calcCmd) Name() string     { return "calc" }
func (*calcCmd) Synopsis() string { return "computes a risk metric from a price file" }
func (*calcCmd) Usage() string {
	return `riskctl calc -file <prices.csv|prices.xlsx> [-metric VaR|CVaR|"Sharpe Ratio"] [options]

Reads a price column from a CSV or XLSX file and computes a risk metric by
historical simulation. The result is printed as JSON, exactly as the
/calculate-risk endpoint returns it.

Blank price cells count as a price of 0, the return that follows such a
cell is skipped.
`
}

func (c *calcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV or XLSX file holding the price series")
	f.StringVar(&c.column, "column", model.PriceField, "name of the price column")
	f.StringVar(&c.metric, "metric", core.MetricVaR.String(), "metric to compute: VaR, CVaR or Sharpe Ratio")
	f.Float64Var(&c.confidence, "confidence", core.DefaultConfidenceLevel, "confidence level for VaR and CVaR, in (0,1]")
	f.Float64Var(&c.riskFree, "risk-free", core.DefaultRiskFreeRate, "per-period risk-free rate for the Sharpe Ratio")
	f.BoolVar(&c.explain, "explain", false, "append a natural-language explanation (requires an OpenAI API key)")
}

func (c *calcCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		return fail("-file is required")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}

	fh, err := os.Open(c.file)
	if err != nil {
		return fail("could not open %q: %v", c.file, err)
	}
	defer fh.Close()

	importer := service.NewImportService(service.ImportConfig{
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		PreviewRows:    cfg.Import.PreviewRows,
	}, nil, logger)
	records, err := importer.PriceRecords(ctx, c.file, fh, c.column)
	if err != nil {
		return fail("could not read prices: %v", err)
	}

	opts := []service.Option{service.WithLogger(logger)}
	if c.explain {
		if cfg.OpenAI.APIKey == "" {
			return fail("-explain requires OPENAI_API_KEY")
		}
		client := llm.NewClient(cfg.OpenAI.APIKey, cfg.Explain.Model)
		opts = append(opts, service.WithExplainer(explain.NewExplainer(client, cfg.Explain.Temperature), cfg.Explain.Timeout))
	}
	risk := service.NewRiskService(core.NewEngine(), opts...)

	start := time.Now()
	result, err := risk.Calculate(ctx, model.RiskRequest{
		Data:   records,
		Metric: c.metric,
		Parameters: map[string]float64{
			core.ParamConfidenceLevel: c.confidence,
			core.ParamRiskFreeRate:    c.riskFree,
		},
	})
	if err != nil {
		return fail("%v", err)
	}
	logger.Debug("metric computed", "metric", result.Metric, "records", len(records), "elapsed", time.Since(start))

	return writeJSON(c.output(), result)
}

func (c *calcCmd) output() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func writeJSON(w io.Writer, v any) subcommands.ExitStatus {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail("could not encode output: %v", err)
	}
	return subcommands.ExitSuccess
}
