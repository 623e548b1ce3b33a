package cli

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/service"
	"github.com/google/subcommands"
)

type importCmd struct {
	out io.Writer
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "validates tabular files the way the import endpoint does" }
func (*importCmd) Usage() string {
	return `riskctl import <file...>

Parses each CSV or XLSX file and prints a JSON summary of what was read:
format, columns and number of data rows. Nothing is stored.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return fail("at least one file is required")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	importer := service.NewImportService(service.ImportConfig{
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		PreviewRows:    cfg.Import.PreviewRows,
	}, nil, logger)

	summaries := make([]model.ImportSummary, 0, f.NArg())
	for _, name := range f.Args() {
		summary, err := importFile(ctx, importer, name)
		if err != nil {
			return fail("%s: %v", name, err)
		}
		summaries = append(summaries, summary)
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	return writeJSON(out, summaries)
}

func importFile(ctx context.Context, importer *service.ImportService, name string) (model.ImportSummary, error) {
	fh, err := os.Open(name)
	if err != nil {
		return model.ImportSummary{}, err
	}
	defer fh.Close()
	return importer.Import(ctx, name, fh)
}
