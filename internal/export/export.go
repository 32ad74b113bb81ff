// Package export renders a user's ledger as a downloadable file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// FileBase is the attachment name without extension.
const FileBase = "budget_export"

const sheetName = "Ledger"

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat defaults to CSV when s is empty.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) FileName() string {
	return FileBase + "." + string(f)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Write renders rows in format f and returns the number of data rows written.
func Write(w io.Writer, f Format, rows iter.Seq2[core.ExportRow, error]) (int, error) {
	switch f {
	case CSV:
		return WriteCSV(w, rows)
	case XLSX:
		return WriteXLSX(w, rows)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteCSV writes the header row followed by one record per transaction.
func WriteCSV(w io.Writer, rows iter.Seq2[core.ExportRow, error]) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.ExportHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	n := 0
	for row, err := range rows {
		if err != nil {
			return n, err
		}
		if err := cw.Write(row.Record()); err != nil {
			return n, fmt.Errorf("write csv row: %w", err)
		}
		n++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

// WriteXLSX writes a single-sheet workbook. Amounts are numeric cells so the
// sheet can sum them.
func WriteXLSX(w io.Writer, rows iter.Seq2[core.ExportRow, error]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return 0, fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, len(core.ExportHeader))
	for i, h := range core.ExportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write xlsx header: %w", err)
	}

	n := 0
	for row, err := range rows {
		if err != nil {
			return n, err
		}
		rec := row.Record()
		cells := []any{rec[0], rec[1], rec[2], rec[3], row.Amount.Float64()}

		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return n, fmt.Errorf("write xlsx row: %w", err)
		}
		n++
	}

	if err := sw.Flush(); err != nil {
		return n, fmt.Errorf("flush xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return n, fmt.Errorf("write xlsx: %w", err)
	}
	return n, nil
}
