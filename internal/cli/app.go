// Package cli implements riskctl, the command line companion of the risk
// platform service.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/BpsEason/investment-risk-platform/internal/config"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&calcCmd{}, "risk")
	c.Register(&importCmd{}, "risk")
	c.Register(&sampleCmd{}, "risk")

	c.Register(&codegenCmd{}, "tools")
}

// riskctl is short lived, global flags are fine.
var (
	configPath = flag.String("config", "", "Path to an optional configuration file (yaml, json or toml)")
	envFile    = flag.String("env-file", ".env", "Path to a dotenv file loaded before the configuration")
)

// loadConfig reads the dotenv file, when present, then the configuration.
// Logs go to stderr so that command output stays machine readable.
func loadConfig() (*config.Config, *slog.Logger, error) {
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Log.NewLoggerTo(os.Stderr), nil
}

// fail reports err on stderr and returns the failure status
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
