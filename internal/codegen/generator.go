package codegen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BpsEason/investment-risk-platform/internal/llm"
)

var (
	ErrUnknownTarget  = errors.New("unsupported generation type")
	ErrPromptNotFound = errors.New("prompt file does not exist")
)

// Generator reads a prompt, asks the model for code and writes the result,
// wrapped in markers asking for review before use.
type Generator struct {
	completer   llm.Completer
	targets     map[string]Target
	names       []string
	baseDir     string
	temperature float64
	logger      *slog.Logger
}

// NewGenerator creates a generator. Relative target paths resolve against baseDir.
func NewGenerator(completer llm.Completer, targets []Target, baseDir string, temperature float64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}

	return &Generator{
		completer:   completer,
		targets:     byName,
		names:       Names(targets),
		baseDir:     baseDir,
		temperature: temperature,
		logger:      logger,
	}
}

// Names returns the supported generation types
func (g *Generator) Names() []string {
	return g.names
}

// Generate runs one generation job and returns the written path
func (g *Generator) Generate(ctx context.Context, name string) (string, error) {
	target, ok := g.targets[name]
	if !ok {
		return "", fmt.Errorf("%w %q, supported types: %s", ErrUnknownTarget, name, strings.Join(g.names, ", "))
	}

	promptPath := g.resolve(target.PromptPath)
	prompt, err := os.ReadFile(promptPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, promptPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", promptPath, err)
	}

	outputPath := g.resolve(target.OutputPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	g.logger.Info("requesting generated code",
		"type", name,
		"prompt_path", promptPath)

	code, err := g.completer.Complete(ctx, target.SystemMessage, string(prompt), g.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", name, err)
	}

	if err := os.WriteFile(outputPath, []byte(Wrap(outputPath, code)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	g.logger.Info("generated code written",
		"type", name,
		"output_path", outputPath)
	return outputPath, nil
}

func (g *Generator) resolve(path string) string {
	if filepath.IsAbs(path) || g.baseDir == "" {
		return path
	}
	return filepath.Join(g.baseDir, path)
}

// Wrap surrounds generated code with review markers in the comment syntax
// of the output file.
func Wrap(outputPath, code string) string {
	prefix := commentPrefix(outputPath)
	return fmt.Sprintf("%s AI generated code begins\n%s Review, then remove these markers before use\n%s\n%s AI generated code ends\n",
		prefix, prefix, strings.TrimRight(code, "\n"), prefix)
}

func commentPrefix(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".ts", ".tsx", ".dart", ".go", ".java", ".kt", ".swift", ".c", ".cpp", ".cs":
		return "//"
	default:
		return "#"
	}
}
