package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than csv, xls and xlsx
	ErrUnsupportedFormat = errors.New("only CSV or XLSX files are supported")
	// ErrMalformedFile is returned when file content cannot be parsed
	ErrMalformedFile = errors.New("malformed file")
)

const utf8BOM = "\ufeff"

// DetectFormat maps a file name onto a supported format by its extension
func DetectFormat(filename string) (model.FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return model.FormatCSV, nil
	case ".xlsx":
		return model.FormatXLSX, nil
	case ".xls":
		return model.FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Table is a parsed tabular file: a header row and its data rows
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadTable parses r according to format
func ReadTable(format model.FileFormat, r io.Reader) (*Table, error) {
	switch format {
	case model.FormatCSV:
		return readCSV(r)
	case model.FormatXLSX, model.FormatXLS:
		return readSpreadsheet(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read csv: %v", ErrMalformedFile, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return newTable(records), nil
}

func readSpreadsheet(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open spreadsheet: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrMalformedFile, sheets[0], err)
	}
	return newTable(rows), nil
}

// newTable splits off the header and drops blank rows
func newTable(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return &Table{Columns: columns, Rows: rows}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Head returns at most the first n data rows
func (t *Table) Head(n int) [][]string {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Column finds a column by name, ignoring case and surrounding spaces
func (t *Table) Column(name string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(c) == want {
			return i, true
		}
	}
	return -1, false
}

// PriceRecords converts a numeric column into price records. A blank cell
// produces a record without a price.
func (t *Table) PriceRecords(column string) ([]model.PriceRecord, error) {
	idx, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found (columns: %s)", ErrMalformedFile, column, strings.Join(t.Columns, ", "))
	}

	records := make([]model.PriceRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		record := model.PriceRecord{}
		cell := ""
		if idx < len(row) {
			cell = strings.TrimSpace(row[idx])
		}
		if cell != "" {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: data row %d column %q: %q is not a number", ErrMalformedFile, i+1, column, cell)
			}
			record[model.PriceField] = v
		}
		records = append(records, record)
	}
	return records, nil
}
