package data

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BpsEason/investment-risk-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Helper function to build an in-memory xlsx workbook
func createTestWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected model.FileFormat
		wantErr  bool
	}{
		{filename: "prices.csv", expected: model.FormatCSV},
		{filename: "PRICES.CSV", expected: model.FormatCSV},
		{filename: "book.xlsx", expected: model.FormatXLSX},
		{filename: "legacy.xls", expected: model.FormatXLS},
		{filename: "notes.txt", wantErr: true},
		{filename: "noextension", wantErr: true},
		{filename: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			format, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestReadTableCSV(t *testing.T) {
	input := "\ufeffdate, price ,volume\n2024-01-01,100,5\n\n2024-01-02,99\n2024-01-03,101,7\n"

	table, err := ReadTable(model.FormatCSV, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "price", "volume"}, table.Columns)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, [][]string{{"2024-01-01", "100", "5"}}, table.Head(1))
	assert.Len(t, table.Head(10), 3)
	assert.Empty(t, table.Head(-1))
}

func TestReadTableCSVEmpty(t *testing.T) {
	table, err := ReadTable(model.FormatCSV, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Columns)
}

func TestReadTableCSVMalformed(t *testing.T) {
	_, err := ReadTable(model.FormatCSV, strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestReadTableXLSX(t *testing.T) {
	buf := createTestWorkbook(t, [][]interface{}{
		{"date", "price"},
		{"2024-01-01", 100},
		{"2024-01-02", 99.5},
	})

	table, err := ReadTable(model.FormatXLSX, buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "price"}, table.Columns)
	require.Equal(t, 2, table.Len())

	records, err := table.PriceRecords("price")
	require.NoError(t, err)
	assert.Equal(t, []model.PriceRecord{{"price": 100}, {"price": 99.5}}, records)
}

func TestReadTableSpreadsheetMalformed(t *testing.T) {
	_, err := ReadTable(model.FormatXLS, strings.NewReader("definitely not a workbook"))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestReadTableUnsupportedFormat(t *testing.T) {
	_, err := ReadTable(model.FileFormat("parquet"), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTableColumn(t *testing.T) {
	table := &Table{Columns: []string{"Date", "Close Price"}}

	idx, ok := table.Column(" close price ")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = table.Column("volume")
	assert.False(t, ok)
}

func TestTablePriceRecords(t *testing.T) {
	table := &Table{
		Columns: []string{"date", "price"},
		Rows: [][]string{
			{"d1", "100"},
			{"d2", " "},
			{"d3"},
			{"d4", "1e2"},
		},
	}

	records, err := table.PriceRecords("PRICE")
	require.NoError(t, err)
	assert.Equal(t, []model.PriceRecord{{"price": 100}, {}, {}, {"price": 100}}, records)

	t.Run("missing column", func(t *testing.T) {
		_, err := table.PriceRecords("close")
		assert.ErrorIs(t, err, ErrMalformedFile)
	})

	t.Run("non numeric cell", func(t *testing.T) {
		bad := &Table{Columns: []string{"price"}, Rows: [][]string{{"1"}, {"abc"}}}
		_, err := bad.PriceRecords("price")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedFile)
		assert.Contains(t, err.Error(), "data row 2")
	})
}
