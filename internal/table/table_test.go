package table

import "testing"

// --- Concat Tests ---

func TestConcat_DisjointColumns(t *testing.T) {
	a := New("a", "b")
	a.AppendRow([]any{"1", "2"})
	a.AppendRow([]any{"3", "4"})
	a.AppendRow([]any{"5", "6"})

	b := New("c", "d")
	b.AppendRow([]any{"x", "y"})
	b.AppendRow([]any{"z", "w"})
	b.AppendRow([]any{"q", "r"})

	result := Concat(a, b)

	if result.RowCount() != 6 {
		t.Errorf("expected 6 rows, got %d", result.RowCount())
	}
	if result.ColumnCount() != 4 {
		t.Errorf("expected 4 columns, got %d", result.ColumnCount())
	}

	// Строки первой таблицы идут первыми, чужие колонки — nil
	if result.Rows[0][0] != "1" {
		t.Errorf("expected first cell '1', got %v", result.Rows[0][0])
	}
	if result.Rows[0][2] != nil {
		t.Errorf("expected nil for missing column, got %v", result.Rows[0][2])
	}
	if result.Rows[3][0] != nil {
		t.Errorf("expected nil for missing column, got %v", result.Rows[3][0])
	}
	if result.Rows[3][2] != "x" {
		t.Errorf("expected 'x', got %v", result.Rows[3][2])
	}
}

func TestConcat_SharedColumns(t *testing.T) {
	a := New("id", "name")
	a.AppendRow([]any{float64(1), "alpha"})

	b := New("id", "amount")
	b.AppendRow([]any{float64(2), float64(10)})

	result := Concat(a, b)

	want := []string{"id", "name", "amount"}
	for i, c := range want {
		if result.Columns[i] != c {
			t.Errorf("column %d: expected %s, got %s", i, c, result.Columns[i])
		}
	}
	if result.Rows[1][0] != float64(2) {
		t.Errorf("shared column must keep position, got %v", result.Rows[1][0])
	}
}

func TestConcat_OrderFollowsArguments(t *testing.T) {
	a := New("v")
	a.AppendRow([]any{"a"})
	b := New("v")
	b.AppendRow([]any{"b"})

	ab := Concat(a, b)
	ba := Concat(b, a)

	if ab.Rows[0][0] != "a" || ba.Rows[0][0] != "b" {
		t.Error("concat order must follow argument order")
	}
}

// --- Copy Tests ---

func TestCopy_NoAliasing(t *testing.T) {
	orig := New("a")
	orig.AppendRow([]any{"x"})

	cp := orig.Copy()
	cp.Rows[0][0] = "mutated"
	cp.Columns[0] = "renamed"

	if orig.Rows[0][0] != "x" {
		t.Error("mutating copy must not affect original rows")
	}
	if orig.Columns[0] != "a" {
		t.Error("mutating copy must not affect original columns")
	}
}

// --- Head Tests ---

func TestHead(t *testing.T) {
	tbl := New("a")
	for i := 0; i < 5; i++ {
		tbl.AppendRow([]any{float64(i)})
	}

	head := tbl.Head(3)
	if head.RowCount() != 3 {
		t.Errorf("expected 3 rows, got %d", head.RowCount())
	}

	head = tbl.Head(100)
	if head.RowCount() != 5 {
		t.Errorf("head beyond size must return all rows, got %d", head.RowCount())
	}
}

// --- Kinds Tests ---

func TestKinds(t *testing.T) {
	tbl := New("num", "text", "mixed", "none")
	tbl.AppendRow([]any{float64(1), "a", float64(1), nil})
	tbl.AppendRow([]any{float64(2), "b", "x", nil})

	kinds := tbl.Kinds()
	if kinds["num"] != "number" {
		t.Errorf("expected number, got %s", kinds["num"])
	}
	if kinds["text"] != "string" {
		t.Errorf("expected string, got %s", kinds["text"])
	}
	if kinds["mixed"] != "string" {
		t.Errorf("mixed kinds must degrade to string, got %s", kinds["mixed"])
	}
	if kinds["none"] != "empty" {
		t.Errorf("expected empty, got %s", kinds["none"])
	}
}

// --- Value helpers ---

func TestAsNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(2.5), 2.5, true},
		{"30", 30, true},
		{" 7 ", 7, true},
		{"abc", 0, false},
		{true, 1, true},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := AsNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("AsNumber(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if NormalizeText("  Hello  World ") != "hello world" {
		t.Error("whitespace and case must be normalized")
	}
}
