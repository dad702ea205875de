// Package ingest parses manifest spreadsheets and loads their rows.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/refurbd/palletflow/internal/model"
)

// RowReader parses a manifest file into ordered rows keyed by the
// header row.
type RowReader interface {
	Read() (headers []string, rows []model.RawRow, err error)
}

// OpenFile picks a reader based on the file extension. csv and xlsx are
// supported.
func OpenFile(path string) (RowReader, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVReader{Path: path}, "csv", nil
	case ".xlsx":
		return &XLSXReader{Path: path}, "xlsx", nil
	default:
		return nil, "", fmt.Errorf("unsupported manifest file type: %s", filepath.Ext(path))
	}
}

// CSVReader parses comma-separated manifests. The first row is the
// header row. A UTF-8 byte order mark on the first header is stripped.
type CSVReader struct {
	Path string
}

// Read parses the whole file. Short rows are padded with empty cells;
// cells beyond the header width are dropped.
func (r *CSVReader) Read() ([]string, []model.RawRow, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(src io.Reader) ([]string, []model.RawRow, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("csv file is empty")
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]model.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, recordToRow(headers, record))
	}
	return headers, rows, nil
}

// XLSXReader parses the first worksheet of an xlsx workbook.
type XLSXReader struct {
	Path string
}

func (r *XLSXReader) Read() ([]string, []model.RawRow, error) {
	book, err := excelize.OpenFile(r.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx workbook has no sheets")
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]model.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, recordToRow(headers, record))
	}
	return headers, rows, nil
}

// recordToRow projects one record onto the header columns. Empty cells
// become nil so downstream JSON stays compact.
func recordToRow(headers, record []string) model.RawRow {
	row := make(model.RawRow, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		var value any
		if i < len(record) {
			if cell := strings.TrimSpace(record[i]); cell != "" {
				value = cell
			}
		}
		row[header] = value
	}
	return row
}
