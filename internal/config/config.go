package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RISK_SERVER_PORT
const EnvPrefix = "RISK"

// Config is the process configuration. The risk engine itself takes none.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Import  ImportConfig  `mapstructure:"import"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Explain ExplainConfig `mapstructure:"explain"`
	Codegen CodegenConfig `mapstructure:"codegen"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ImportConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	PreviewRows    int   `mapstructure:"preview_rows"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// ExplainConfig controls the optional natural-language explanation of results
type ExplainConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
}

type CodegenConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TargetsFile string  `mapstructure:"targets_file"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("import.max_upload_bytes", 32<<20)
	v.SetDefault("import.preview_rows", 5)

	v.SetDefault("metrics.namespace", "risk_platform")

	v.SetDefault("explain.enabled", false)
	v.SetDefault("explain.model", "gpt-3.5-turbo")
	v.SetDefault("explain.timeout", 5*time.Second)
	v.SetDefault("explain.temperature", 0.7)

	v.SetDefault("codegen.model", "gpt-4")
	v.SetDefault("codegen.temperature", 0.2)
	v.SetDefault("codegen.targets_file", "")

	v.SetDefault("openai.api_key", "")
}

// Load reads defaults, an optional config file and environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind openai key: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field requirements
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	if c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("import.max_upload_bytes must be positive"))
	}
	if c.Import.PreviewRows < 0 {
		errs = append(errs, errors.New("import.preview_rows cannot be negative"))
	}
	if c.Explain.Enabled {
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("explain.enabled requires an OpenAI API key (OPENAI_API_KEY)"))
		}
		if c.Explain.Timeout <= 0 {
			errs = append(errs, errors.New("explain.timeout must be positive"))
		}
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger from the log settings
func (c LogConfig) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to w
func (c LogConfig) NewLoggerTo(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
