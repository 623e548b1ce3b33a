package model

// PriceRecord is a single observation as received from a client or an
// imported file, e.g. {"price": 101.25}
type PriceRecord map[string]float64

// PriceField is the record field the risk engine reads prices from
const PriceField = "price"

// RiskRequest represents a risk calculation request
type RiskRequest struct {
	Data       []PriceRecord      `json:"data"`
	Metric     string             `json:"metric" binding:"required,riskmetric"`
	Parameters map[string]float64 `json:"parameters"`
}

// MetricResult represents a computed risk metric
type MetricResult struct {
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

// FileFormat identifies a supported tabular file format
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	FormatXLS  FileFormat = "xls"
)

// ImportSummary describes the outcome of a file import
type ImportSummary struct {
	Filename      string     `json:"filename"`
	Format        FileFormat `json:"format"`
	Columns       []string   `json:"columns"`
	RowsProcessed int        `json:"rows_processed"`
	Message       string     `json:"message"`
}
