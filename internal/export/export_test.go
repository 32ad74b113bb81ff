package export

import (
	"bytes"
	"errors"
	"iter"
	"testing"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

func seq(rows []core.ExportRow, tail error) iter.Seq2[core.ExportRow, error] {
	return func(yield func(core.ExportRow, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
		if tail != nil {
			yield(core.ExportRow{}, tail)
		}
	}
}

var sample = []core.ExportRow{
	{Date: core.NewDate(2025, 4, 2), Title: "Groceries, weekly", Category: "Food", Type: core.Expense, Amount: core.Money{Cents: 4599}},
	{Date: core.NewDate(2025, 4, 1), Title: "Salary", Type: core.Income, Amount: core.Money{Cents: 250000}},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, seq(sample, nil))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	want := "Date,Title,Category,Type,Amount\n" +
		"2025-04-02,\"Groceries, weekly\",Food,EXPENSE,45.99\n" +
		"2025-04-01,Salary,None,INCOME,2500.00\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestWriteCSV_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteCSV(&buf, seq(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Date,Title,Category,Type,Amount\n" {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestWrite_PropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	for _, f := range []Format{CSV, XLSX} {
		_, err := Write(&bytes.Buffer{}, f, seq(sample[:1], boom))
		if !errors.Is(err, boom) {
			t.Errorf("%s: expected source error, got %v", f, err)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteXLSX(&buf, seq(sample, nil))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[2][2] != "None" || rows[1][4] != "45.99" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", CSV, false},
		{"csv", CSV, false},
		{"XLSX", XLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if CSV.FileName() != "budget_export.csv" {
		t.Errorf("unexpected file name %q", CSV.FileName())
	}
}
