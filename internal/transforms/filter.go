package transforms

import (
	"strings"

	"github.com/shaiso/Flowsheet/internal/table"
)

const (
	// TypeFilterRows — тип преобразования фильтрации строк.
	TypeFilterRows = "filter_rows"

	// TypeDeleteRows — тип преобразования удаления строк.
	TypeDeleteRows = "delete_rows"
)

// FilterRows — фильтрация строк по колонке, оператору и значению.
//
// Конфигурация:
//
//	{
//	    "column": "status",
//	    "operator": "equals",
//	    "value": "active"
//	}
//
// Операторы: equals, not_equals, contains, not_contains,
// greater_than, less_than, is_blank, is_not_blank.
//
// Текстовые сравнения нестрогие: регистр и лишние пробелы
// не учитываются — значения с фронтенда часто "грязные".
type FilterRows struct{}

// NewFilterRows создаёт новый FilterRows.
func NewFilterRows() *FilterRows {
	return &FilterRows{}
}

// Type возвращает тип преобразования.
func (f *FilterRows) Type() string {
	return TypeFilterRows
}

// Validate проверяет, что колонка и оператор заданы и колонка существует.
func (f *FilterRows) Validate(t *table.Table, cfg Config) bool {
	column, ok := cfg.String("column")
	if !ok || !t.HasColumn(column) {
		return false
	}
	if _, ok := cfg.String("operator"); !ok {
		return false
	}
	return true
}

// Execute возвращает строки, прошедшие фильтр.
func (f *FilterRows) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	column, _ := cfg.String("column")
	operator, _ := cfg.String("operator")
	value := cfg["value"]
	idx := t.ColumnIndex(column)

	result := &table.Table{Columns: t.Columns, Rows: make([][]any, 0)}
	for _, row := range t.Rows {
		var cell any
		if idx < len(row) {
			cell = row[idx]
		}
		if matchFilter(cell, operator, value) {
			result.Rows = append(result.Rows, row)
		}
	}
	return result.Copy(), nil
}

// matchFilter проверяет одно значение против оператора.
// Неизвестный оператор пропускает все строки (фильтр не применяется).
func matchFilter(cell any, operator string, value any) bool {
	switch operator {
	case "equals":
		return equalLoose(cell, value)
	case "not_equals":
		return !equalLoose(cell, value)
	case "contains":
		return containsLoose(cell, value)
	case "not_contains":
		return !containsLoose(cell, value)
	case "greater_than":
		a, okA := table.AsNumber(cell)
		b, okB := table.AsNumber(value)
		return okA && okB && a > b
	case "less_than":
		a, okA := table.AsNumber(cell)
		b, okB := table.AsNumber(value)
		return okA && okB && a < b
	case "is_blank":
		return table.IsBlank(cell)
	case "is_not_blank":
		return !table.IsBlank(cell)
	default:
		return true
	}
}

// equalLoose сравнивает значения: числа — численно,
// остальное — как нормализованный текст.
func equalLoose(cell, value any) bool {
	if a, okA := table.AsNumber(cell); okA {
		if b, okB := table.AsNumber(value); okB {
			return a == b
		}
	}
	return table.NormalizeText(table.AsString(cell)) == table.NormalizeText(table.AsString(value))
}

// containsLoose проверяет вхождение подстроки без учёта регистра.
func containsLoose(cell, value any) bool {
	if table.IsBlank(cell) {
		return false
	}
	return strings.Contains(
		strings.ToLower(table.AsString(cell)),
		strings.ToLower(strings.TrimSpace(table.AsString(value))),
	)
}

// DeleteRows — удаление строк по условию.
//
// Конфигурация:
//
//	{"condition": "blank_rows"}              — строки, пустые целиком
//	{"condition": "blank_in", "column": "x"} — строки с пустым значением колонки
//	{"condition": "duplicates", "columns": ["a", "b"]} — повторы,
//	    остаётся первое вхождение; без columns сравнивается вся строка
//
// Неизвестное условие оставляет таблицу без изменений.
type DeleteRows struct{}

// NewDeleteRows создаёт новый DeleteRows.
func NewDeleteRows() *DeleteRows {
	return &DeleteRows{}
}

// Type возвращает тип преобразования.
func (d *DeleteRows) Type() string {
	return TypeDeleteRows
}

// Validate проверяет, что именованные в условии колонки существуют.
func (d *DeleteRows) Validate(t *table.Table, cfg Config) bool {
	switch cond, _ := cfg.String("condition"); cond {
	case "blank_in":
		column, ok := cfg.String("column")
		return ok && t.HasColumn(column)
	case "duplicates":
		for _, column := range cfg.Strings("columns") {
			if !t.HasColumn(column) {
				return false
			}
		}
	}
	return true
}

// Execute удаляет строки, подходящие под условие.
func (d *DeleteRows) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	cond, _ := cfg.String("condition")
	if cond == "" {
		cond = "blank_rows"
	}

	result := &table.Table{Columns: t.Columns, Rows: make([][]any, 0)}
	switch cond {
	case "blank_in":
		column, _ := cfg.String("column")
		idx := t.ColumnIndex(column)
		for _, row := range t.Rows {
			if idx < len(row) && !table.IsBlank(row[idx]) {
				result.Rows = append(result.Rows, row)
			}
		}
	case "duplicates":
		columns := cfg.Strings("columns")
		indices := make([]int, 0, len(columns))
		for _, c := range columns {
			indices = append(indices, t.ColumnIndex(c))
		}
		seen := make(map[string]bool)
		for _, row := range t.Rows {
			key := dedupeKey(row, indices)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Rows = append(result.Rows, row)
		}
	case "blank_rows":
		// Строка удаляется, только если пусты все ячейки
		for _, row := range t.Rows {
			blank := true
			for _, v := range row {
				if !table.IsBlank(v) {
					blank = false
					break
				}
			}
			if !blank {
				result.Rows = append(result.Rows, row)
			}
		}
	default:
		return t.Copy(), nil
	}
	return result.Copy(), nil
}
