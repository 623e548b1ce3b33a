package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BpsEason/investment-risk-platform/internal/data"
	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/BpsEason/investment-risk-platform/internal/observability"
)

// Import limits
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultPreviewRows    = 5
)

var (
	ErrMissingFilename = errors.New("no file name provided")
	ErrUploadTooLarge  = errors.New("uploaded file exceeds the size limit")
)

// ImportConfig holds configuration for the import service
type ImportConfig struct {
	MaxUploadBytes int64
	PreviewRows    int
}

// DefaultImportConfig returns sensible default configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		MaxUploadBytes: DefaultMaxUploadBytes,
		PreviewRows:    DefaultPreviewRows,
	}
}

// ImportService parses uploaded tabular files. Nothing is stored.
type ImportService struct {
	config  ImportConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(config ImportConfig, metrics *observability.Metrics, logger *slog.Logger) *ImportService {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if config.PreviewRows < 0 {
		config.PreviewRows = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ImportService{
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// MaxUploadBytes returns the upload size limit
func (s *ImportService) MaxUploadBytes() int64 {
	return s.config.MaxUploadBytes
}

// Import parses the file and reports its shape
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader) (model.ImportSummary, error) {
	format, table, err := s.read(ctx, filename, r)
	if err != nil {
		return model.ImportSummary{}, err
	}

	s.logger.Info("file imported",
		"filename", filename,
		"format", string(format),
		"rows", table.Len(),
		"columns", table.Columns)
	for i, row := range table.Head(s.config.PreviewRows) {
		s.logger.Debug("import preview",
			"filename", filename,
			"row", i+1,
			"values", strings.Join(row, ", "))
	}

	return model.ImportSummary{
		Filename:      filename,
		Format:        format,
		Columns:       table.Columns,
		RowsProcessed: table.Len(),
		Message:       fmt.Sprintf("File '%s' imported successfully (validated, not stored)", filename),
	}, nil
}

// PriceRecords parses the file and turns column into records for the risk engine
func (s *ImportService) PriceRecords(ctx context.Context, filename string, r io.Reader, column string) ([]model.PriceRecord, error) {
	_, table, err := s.read(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	return table.PriceRecords(column)
}

func (s *ImportService) read(ctx context.Context, filename string, r io.Reader) (model.FileFormat, *data.Table, error) {
	if strings.TrimSpace(filename) == "" {
		s.metrics.ObserveImport("unknown", observability.OutcomeRejected, 0)
		return "", nil, ErrMissingFilename
	}

	format, err := data.DetectFormat(filename)
	if err != nil {
		s.metrics.ObserveImport("unknown", observability.OutcomeRejected, 0)
		return "", nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(r, s.config.MaxUploadBytes+1))
	if err != nil {
		s.metrics.ObserveImport(string(format), observability.OutcomeError, 0)
		return "", nil, fmt.Errorf("failed to read upload %s: %w", filename, err)
	}
	if int64(len(raw)) > s.config.MaxUploadBytes {
		s.metrics.ObserveImport(string(format), observability.OutcomeRejected, 0)
		return "", nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrUploadTooLarge, filename, s.config.MaxUploadBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	table, err := data.ReadTable(format, bytes.NewReader(raw))
	if err != nil {
		s.metrics.ObserveImport(string(format), observability.OutcomeRejected, 0)
		return "", nil, err
	}

	s.metrics.ObserveImport(string(format), observability.OutcomeSuccess, table.Len())
	return format, table, nil
}

// IsImportClientError reports whether err is caused by the uploaded file
func IsImportClientError(err error) bool {
	return errors.Is(err, ErrMissingFilename) ||
		errors.Is(err, data.ErrUnsupportedFormat) ||
		errors.Is(err, data.ErrMalformedFile)
}
