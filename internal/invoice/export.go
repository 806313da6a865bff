package invoice

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Meta column headers written when ExportOptions.WithStatus is set
const (
	SourceColumn = "source_file"
	StatusColumn = "extraction_status"
)

const xlsxSheet = "Invoices"

// ParseFormat reads a format name as chosen in the UI ("CSV", "Excel", "xlsx")
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// Filename is the download name of an export
func (f Format) Filename() string {
	return "invoice_data." + string(f)
}

// ContentType is the MIME type of an export
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ExportOptions tunes the exported layout
type ExportOptions struct {
	// WithStatus prepends the source file and extraction status of each row
	WithStatus bool
}

// Export renders the table with a header row and one row per document.
// Null values are written as empty cells.
func Export(t *Table, format Format, opts ExportOptions) ([]byte, error) {
	header, rows := exportGrid(t, opts)
	switch format {
	case FormatCSV:
		return writeCSV(header, rows)
	case FormatXLSX:
		return writeXLSX(header, rows)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// exportGrid lays the table out as header plus string rows
func exportGrid(t *Table, opts ExportOptions) ([]string, [][]string) {
	header := make([]string, 0, len(t.Columns)+2)
	if opts.WithStatus {
		header = append(header, SourceColumn, StatusColumn)
	}
	header = append(header, t.Columns...)

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		record := make([]string, 0, len(header))
		if opts.WithStatus {
			record = append(record, r.Source, string(r.Status))
		}
		for _, c := range t.Columns {
			record = append(record, r.Value(c))
		}
		rows = append(rows, record)
	}
	return header, rows
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("writing csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Replace the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, v)
	}

	for i, h := range header {
		if err := write(i+1, 1, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	for r, record := range rows {
		for c, v := range record {
			if v == "" {
				continue
			}
			if err := write(c+1, r+2, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", r+1, err)
			}
		}
	}

	// Widen the columns a little
	if len(header) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return nil, fmt.Errorf("naming last column: %w", err)
		}
		if err := f.SetColWidth(xlsxSheet, "A", last, 18); err != nil {
			return nil, fmt.Errorf("setting column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
