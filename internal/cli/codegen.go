package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BpsEason/investment-risk-platform/internal/codegen"
	"github.com/BpsEason/investment-risk-platform/internal/llm"
	"github.com/google/subcommands"
)

type codegenCmd struct {
	list        bool
	dir         string
	targetsFile string

	out       io.Writer
	completer llm.Completer
}

func (*codegenCmd) Name() string     { return "codegen" }
func (*codegenCmd) Synopsis() string { return "generates project files from prompt files with a language model" }
func (*codegenCmd) Usage() string {
	return `riskctl codegen [-dir <project root>] [-targets <targets.yaml>] <type...>
riskctl codegen -list

For each generation type, reads its prompt file, asks the configured model
for code and writes the answer to the type's output path, wrapped in
markers that must be reviewed and removed before the file is used.

The built-in table covers the Django, FastAPI, React and Flutter parts of
the platform. A YAML file with a top-level "targets" list replaces it:

  targets:
    - name: django_models
      prompt_path: backend/prompts/django_models_prompt.txt
      output_path: backend/django_risk_app/risk_metrics/models.py
      system_message: You are a professional Django engineer.

Requires OPENAI_API_KEY.
`
}

func (c *codegenCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list the supported generation types and exit")
	f.StringVar(&c.dir, "dir", ".", "project root that prompt and output paths are relative to")
	f.StringVar(&c.targetsFile, "targets", "", "YAML targets file, overrides codegen.targets_file")
}

func (c *codegenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}

	targets := codegen.DefaultTargets()
	targetsFile := c.targetsFile
	if targetsFile == "" {
		targetsFile = cfg.Codegen.TargetsFile
	}
	if targetsFile != "" {
		if targets, err = codegen.LoadTargets(targetsFile); err != nil {
			return fail("%v", err)
		}
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	if c.list {
		fmt.Fprintln(out, strings.Join(codegen.Names(targets), "\n"))
		return subcommands.ExitSuccess
	}
	if f.NArg() == 0 {
		return fail("at least one generation type is required, supported types: %s", strings.Join(codegen.Names(targets), ", "))
	}

	completer := c.completer
	if completer == nil {
		if cfg.OpenAI.APIKey == "" {
			return fail("OPENAI_API_KEY is not set")
		}
		completer = llm.NewClient(cfg.OpenAI.APIKey, cfg.Codegen.Model)
	}

	gen := codegen.NewGenerator(completer, targets, c.dir, cfg.Codegen.Temperature, logger)
	status := subcommands.ExitSuccess
	for _, name := range f.Args() {
		path, err := gen.Generate(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(out, "%s: written to %s\n", name, path)
	}
	return status
}
