package transforms

import (
	"testing"

	"github.com/shaiso/Flowsheet/internal/table"
)

// --- Registry Tests ---

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	want := []string{
		TypeFilterRows, TypeDeleteRows, TypeSortRows, TypeDedupeRows,
		TypeRenameColumns, TypeSelectColumns, TypeRearrangeColumns,
		TypeRemoveColumnsRows, TypeJoinLookup, TypeAppendFiles,
		// Исторические имена блоков
		"remove_column", "remove_duplicates",
	}
	for _, typ := range want {
		if !r.Has(typ) {
			t.Errorf("default registry must contain %s", typ)
		}
	}
	if r.Count() != len(want) {
		t.Errorf("expected %d transforms, got %d", len(want), r.Count())
	}
}

func TestDefaultRegistry_Aliases(t *testing.T) {
	r := DefaultRegistry()

	tr, err := r.Get("remove_duplicates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Type() != TypeDedupeRows {
		t.Errorf("alias must resolve to %s, got %s", TypeDedupeRows, tr.Type())
	}

	tr, err = r.Get("remove_column")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Type() != TypeRemoveColumnsRows {
		t.Errorf("alias must resolve to %s, got %s", TypeRemoveColumnsRows, tr.Type())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("nope")
	if err == nil {
		t.Fatal("expected error for unknown transform")
	}
}

// --- FilterRows Tests ---

func sampleTable() *table.Table {
	tbl := table.New("name", "age", "city")
	tbl.AppendRow([]any{"Alice", float64(30), "Moscow"})
	tbl.AppendRow([]any{"bob ", float64(25), "Berlin"})
	tbl.AppendRow([]any{"Carol", float64(41), ""})
	return tbl
}

func TestFilterRows_Equals_LooseText(t *testing.T) {
	f := NewFilterRows()
	cfg := Config{"column": "name", "operator": "equals", "value": "  BOB"}

	if !f.Validate(sampleTable(), cfg) {
		t.Fatal("config must validate")
	}
	result, err := f.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", result.RowCount())
	}
	if result.Rows[0][0] != "bob " {
		t.Errorf("unexpected row: %v", result.Rows[0])
	}
}

func TestFilterRows_GreaterThan_StringValue(t *testing.T) {
	// Фронтенд присылает "28" строкой — значение приводится к числу
	f := NewFilterRows()
	cfg := Config{"column": "age", "operator": "greater_than", "value": "28"}

	result, err := f.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", result.RowCount())
	}
}

func TestFilterRows_IsBlank(t *testing.T) {
	f := NewFilterRows()
	cfg := Config{"column": "city", "operator": "is_blank"}

	result, _ := f.Execute(sampleTable(), cfg)
	if result.RowCount() != 1 {
		t.Errorf("expected 1 blank row, got %d", result.RowCount())
	}
}

func TestFilterRows_Validate_MissingColumn(t *testing.T) {
	f := NewFilterRows()
	cfg := Config{"column": "salary", "operator": "equals", "value": "x"}

	if f.Validate(sampleTable(), cfg) {
		t.Error("missing column must fail validation")
	}
}

// --- DeleteRows Tests ---

func TestDeleteRows_BlankRows(t *testing.T) {
	tbl := table.New("a", "b")
	tbl.AppendRow([]any{"x", "y"})
	tbl.AppendRow([]any{nil, ""})
	tbl.AppendRow([]any{"", "z"})

	d := NewDeleteRows()
	result, err := d.Execute(tbl, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 2 {
		t.Errorf("expected 2 rows after delete, got %d", result.RowCount())
	}
}

func TestDeleteRows_Duplicates(t *testing.T) {
	tbl := table.New("email", "n")
	tbl.AppendRow([]any{"a@x.io", float64(1)})
	tbl.AppendRow([]any{"a@x.io", float64(2)})
	tbl.AppendRow([]any{"b@x.io", float64(3)})

	d := NewDeleteRows()
	cfg := Config{"condition": "duplicates", "columns": []any{"email"}}
	if !d.Validate(tbl, cfg) {
		t.Fatal("config must validate")
	}
	result, err := d.Execute(tbl, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount())
	}
	// Первое вхождение остаётся
	if result.Rows[0][1] != float64(1) {
		t.Errorf("first occurrence must win: %v", result.Rows[0])
	}
}

func TestDeleteRows_Duplicates_MissingColumn(t *testing.T) {
	d := NewDeleteRows()
	cfg := Config{"condition": "duplicates", "columns": []any{"salary"}}

	if d.Validate(sampleTable(), cfg) {
		t.Error("missing column must fail validation")
	}
}

func TestDeleteRows_UnknownCondition(t *testing.T) {
	d := NewDeleteRows()
	result, err := d.Execute(sampleTable(), Config{"condition": "mystery"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 3 {
		t.Errorf("unknown condition must leave rows intact, got %d", result.RowCount())
	}
}

// --- SortRows Tests ---

func TestSortRows_Numeric(t *testing.T) {
	s := NewSortRows()
	cfg := Config{"columns": []any{"age"}}

	result, err := s.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rows[0][0] != "bob " || result.Rows[2][0] != "Carol" {
		t.Errorf("unexpected order: %v", result.Rows)
	}
}

func TestSortRows_Descending(t *testing.T) {
	s := NewSortRows()
	cfg := Config{"columns": []any{"age"}, "ascending": false}

	result, _ := s.Execute(sampleTable(), cfg)
	if result.Rows[0][0] != "Carol" {
		t.Errorf("unexpected order: %v", result.Rows)
	}
}

// --- DedupeRows Tests ---

func TestDedupeRows_ByColumn(t *testing.T) {
	tbl := table.New("email", "n")
	tbl.AppendRow([]any{"a@x.io", float64(1)})
	tbl.AppendRow([]any{"a@x.io", float64(2)})
	tbl.AppendRow([]any{"b@x.io", float64(3)})

	d := NewDedupeRows()
	result, err := d.Execute(tbl, Config{"columns": []any{"email"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount())
	}
	// Первое вхождение остаётся
	if result.Rows[0][1] != float64(1) {
		t.Errorf("first occurrence must win: %v", result.Rows[0])
	}
}

// --- RenameColumns / SelectColumns Tests ---

func TestRenameColumns(t *testing.T) {
	r := NewRenameColumns()
	cfg := Config{"renames": map[string]any{"name": "full_name", "missing": "x"}}

	result, err := r.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Columns[0] != "full_name" {
		t.Errorf("expected rename, got %s", result.Columns[0])
	}
}

func TestSelectColumns_Order(t *testing.T) {
	s := NewSelectColumns()
	cfg := Config{"columns": []any{"city", "name"}}

	result, err := s.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ColumnCount() != 2 || result.Columns[0] != "city" {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
	if result.Rows[0][1] != "Alice" {
		t.Errorf("unexpected cell: %v", result.Rows[0])
	}
}

// --- RearrangeColumns Tests ---

func TestRearrangeColumns(t *testing.T) {
	r := NewRearrangeColumns()
	cfg := Config{"column_order": []any{"city", "name"}}

	if !r.Validate(sampleTable(), cfg) {
		t.Fatal("config must validate")
	}
	result, err := r.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Неперечисленные колонки идут следом в исходном порядке
	want := []string{"city", "name", "age"}
	for i, c := range want {
		if result.Columns[i] != c {
			t.Fatalf("unexpected columns: %v", result.Columns)
		}
	}
	if result.Rows[0][0] != "Moscow" || result.Rows[0][1] != "Alice" {
		t.Errorf("cells must follow their columns: %v", result.Rows[0])
	}
}

func TestRearrangeColumns_Validate_MissingColumn(t *testing.T) {
	r := NewRearrangeColumns()
	cfg := Config{"column_order": []any{"city", "salary"}}

	if r.Validate(sampleTable(), cfg) {
		t.Error("missing column must fail validation")
	}
	if r.Validate(sampleTable(), Config{}) {
		t.Error("absent column_order must fail validation")
	}
}

// --- RemoveColumnsRows Tests ---

func TestRemoveColumnsRows_ColumnsByNameAndMatch(t *testing.T) {
	tbl := table.New("id", "tmp_a", "tmp_b", "name")
	tbl.AppendRow([]any{float64(1), "x", "y", "Alice"})

	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "columns",
		"columnSelection": map[string]any{
			"names": []any{"id"},
			"match": map[string]any{"operator": "starts_with", "value": "tmp_"},
		},
	}
	if !r.Validate(tbl, cfg) {
		t.Fatal("config must validate")
	}
	result, err := r.Execute(tbl, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ColumnCount() != 1 || result.Columns[0] != "name" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if result.Rows[0][0] != "Alice" {
		t.Errorf("unexpected cell: %v", result.Rows[0])
	}
}

func TestRemoveColumnsRows_ColumnsByIndex(t *testing.T) {
	r := NewRemoveColumnsRows()
	cfg := Config{
		"columnSelection": map[string]any{"indices": []any{float64(1)}},
	}

	result, err := r.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ColumnCount() != 2 || result.Columns[1] != "city" {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
}

func TestRemoveColumnsRows_NothingSelected(t *testing.T) {
	r := NewRemoveColumnsRows()

	result, err := r.Execute(sampleTable(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ColumnCount() != 3 || result.RowCount() != 3 {
		t.Errorf("empty selection must leave the table intact: %v", result.Columns)
	}
}

func TestRemoveColumnsRows_RowsByIndexAndRange(t *testing.T) {
	tbl := table.New("n")
	for i := 0; i < 6; i++ {
		tbl.AppendRow([]any{float64(i)})
	}

	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "rows",
		"rowSelection": map[string]any{
			"indices": []any{float64(0)},
			"range":   map[string]any{"start": float64(3), "end": float64(4)},
		},
	}
	result, err := r.Execute(tbl, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", result.RowCount())
	}
	if result.Rows[0][0] != float64(1) || result.Rows[2][0] != float64(5) {
		t.Errorf("unexpected rows: %v", result.Rows)
	}
}

func TestRemoveColumnsRows_RowsByRules(t *testing.T) {
	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "rows",
		"rowSelection": map[string]any{
			"rules": []any{
				map[string]any{"column": "city", "operator": "is_blank"},
				map[string]any{"column": "age", "operator": "greater_than", "value": "40"},
			},
			"match": "any",
		},
	}
	if !r.Validate(sampleTable(), cfg) {
		t.Fatal("config must validate")
	}
	result, err := r.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Carol подпадает под оба правила, остальные остаются
	if result.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount())
	}
	for _, row := range result.Rows {
		if row[0] == "Carol" {
			t.Errorf("matched row must be removed: %v", row)
		}
	}
}

func TestRemoveColumnsRows_RowsMatchAll(t *testing.T) {
	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "rows",
		"rowSelection": map[string]any{
			"rules": []any{
				map[string]any{"column": "city", "operator": "is_not_blank"},
				map[string]any{"column": "age", "operator": "less_than", "value": float64(28)},
			},
			"match": "all",
		},
	}

	result, _ := r.Execute(sampleTable(), cfg)
	// Только bob моложе 28 и с заполненным городом
	if result.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount())
	}
	if result.Rows[0][0] != "Alice" || result.Rows[1][0] != "Carol" {
		t.Errorf("unexpected rows: %v", result.Rows)
	}
}

func TestRemoveColumnsRows_UnknownRuleOperator(t *testing.T) {
	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "rows",
		"rowSelection": map[string]any{
			"rules": []any{
				map[string]any{"column": "name", "operator": "mystery", "value": "Alice"},
			},
		},
	}

	result, err := r.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 3 {
		t.Errorf("unknown operator must not match rows, got %d", result.RowCount())
	}
}

func TestRemoveColumnsRows_Validate_MissingRuleColumn(t *testing.T) {
	r := NewRemoveColumnsRows()
	cfg := Config{
		"mode": "rows",
		"rowSelection": map[string]any{
			"rules": []any{map[string]any{"column": "salary", "operator": "equals"}},
		},
	}

	if r.Validate(sampleTable(), cfg) {
		t.Error("rule on missing column must fail validation")
	}
}

// --- JoinLookup Tests ---

func TestJoinLookup_Left(t *testing.T) {
	lookup := table.New("name", "tier")
	lookup.AppendRow([]any{"Alice", "gold"})
	lookup.AppendRow([]any{"Carol", "silver"})

	j := NewJoinLookup()
	cfg := Config{"on": "name", ConfigLookupTable: lookup}

	if !j.Validate(sampleTable(), cfg) {
		t.Fatal("config must validate")
	}
	result, err := j.Execute(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount() != 3 {
		t.Fatalf("left join keeps all rows, got %d", result.RowCount())
	}
	tierIdx := result.ColumnIndex("tier")
	if result.Rows[0][tierIdx] != "gold" {
		t.Errorf("expected gold, got %v", result.Rows[0][tierIdx])
	}
	if result.Rows[1][tierIdx] != nil {
		t.Errorf("unmatched row must get nil, got %v", result.Rows[1][tierIdx])
	}
}

func TestJoinLookup_Inner(t *testing.T) {
	lookup := table.New("name", "tier")
	lookup.AppendRow([]any{"Alice", "gold"})

	j := NewJoinLookup()
	cfg := Config{"on": "name", "how": "inner", ConfigLookupTable: lookup}

	result, _ := j.Execute(sampleTable(), cfg)
	if result.RowCount() != 1 {
		t.Errorf("inner join drops unmatched rows, got %d", result.RowCount())
	}
}

func TestJoinLookup_Validate_NoLookup(t *testing.T) {
	j := NewJoinLookup()
	if j.Validate(sampleTable(), Config{"on": "name"}) {
		t.Error("missing lookup table must fail validation")
	}
}

// --- Preview ---

func TestPreview_DoesNotMutateInput(t *testing.T) {
	tbl := sampleTable()
	s := NewSortRows()

	_, err := Preview(s, tbl, Config{"columns": []any{"age"}}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Rows[0][0] != "Alice" {
		t.Error("preview must not mutate the input table")
	}
}
