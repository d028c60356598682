package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- FileLoader Tests ---

func TestParse_CSV(t *testing.T) {
	path := writeCSV(t, "name,age,active\nAlice,30,true\nBob,,false\n")

	tbl, err := New().Parse(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tbl.Columns; len(got) != 3 || got[0] != "name" {
		t.Errorf("unexpected columns: %v", got)
	}
	if tbl.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.RowCount())
	}
	if tbl.Rows[0][1] != float64(30) {
		t.Errorf("numeric text must coerce to float64, got %T %v", tbl.Rows[0][1], tbl.Rows[0][1])
	}
	if tbl.Rows[0][2] != true {
		t.Errorf("boolean text must coerce, got %v", tbl.Rows[0][2])
	}
	if tbl.Rows[1][1] != nil {
		t.Errorf("empty cell must be nil, got %v", tbl.Rows[1][1])
	}
}

func TestParse_CSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2\n1,2,3,4\n")

	tbl, err := New().Parse(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.RowCount())
	}
	// Короткая строка добита, длинная усечена до заголовка
	if tbl.Rows[0][2] != nil {
		t.Errorf("short row must be padded with nil, got %v", tbl.Rows[0][2])
	}
	if len(tbl.Rows[1]) != 3 {
		t.Errorf("long row must be trimmed to header width, got %d cells", len(tbl.Rows[1]))
	}
}

func TestParse_CSVBlankHeaderNames(t *testing.T) {
	path := writeCSV(t, "a,,c\n1,2,3\n")

	tbl, err := New().Parse(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Columns[1] != "column_2" {
		t.Errorf("blank header must get a synthetic name, got %q", tbl.Columns[1])
	}
}

func TestParse_CSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "")

	tbl, err := New().Parse(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.RowCount() != 0 || tbl.ColumnCount() != 0 {
		t.Errorf("expected empty table, got %+v", tbl)
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := New().Parse("/tmp/data.parquet", "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := New().Parse("/no/such/file.csv", ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListSheets_CSVHasNone(t *testing.T) {
	sheets, err := New().ListSheets("/tmp/data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sheets) != 0 {
		t.Errorf("csv has no sheets, got %v", sheets)
	}
}

// --- coerceCell Tests ---

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"   ", nil},
		{"42", float64(42)},
		{"-3.5", float64(-3.5)},
		{"true", true},
		{"FALSE", false},
		{"hello", "hello"},
		{"42abc", "42abc"},
	}
	for _, tt := range tests {
		if got := coerceCell(tt.in); got != tt.want {
			t.Errorf("coerceCell(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
