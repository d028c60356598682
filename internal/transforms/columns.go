package transforms

import "github.com/shaiso/Flowsheet/internal/table"

const (
	// TypeRenameColumns — тип преобразования переименования колонок.
	TypeRenameColumns = "rename_columns"

	// TypeSelectColumns — тип преобразования выбора колонок.
	TypeSelectColumns = "select_columns"

	// TypeRearrangeColumns — тип преобразования порядка колонок.
	TypeRearrangeColumns = "rearrange_columns"
)

// RenameColumns — переименование колонок.
//
// Конфигурация:
//
//	{"renames": {"old_name": "new_name"}}
//
// Колонки, которых нет в таблице, игнорируются.
type RenameColumns struct{}

// NewRenameColumns создаёт новый RenameColumns.
func NewRenameColumns() *RenameColumns {
	return &RenameColumns{}
}

// Type возвращает тип преобразования.
func (r *RenameColumns) Type() string {
	return TypeRenameColumns
}

// Validate проверяет, что задано хотя бы одно переименование.
func (r *RenameColumns) Validate(t *table.Table, cfg Config) bool {
	return len(cfg.StringMap("renames")) > 0
}

// Execute возвращает таблицу с переименованными колонками.
func (r *RenameColumns) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	renames := cfg.StringMap("renames")
	result := t.Copy()
	for i, c := range result.Columns {
		if newName, ok := renames[c]; ok && newName != "" {
			result.Columns[i] = newName
		}
	}
	return result, nil
}

// SelectColumns — выбор подмножества колонок в заданном порядке.
//
// Конфигурация:
//
//	{"columns": ["id", "name"]}
type SelectColumns struct{}

// NewSelectColumns создаёт новый SelectColumns.
func NewSelectColumns() *SelectColumns {
	return &SelectColumns{}
}

// Type возвращает тип преобразования.
func (s *SelectColumns) Type() string {
	return TypeSelectColumns
}

// Validate проверяет, что все выбранные колонки существуют.
func (s *SelectColumns) Validate(t *table.Table, cfg Config) bool {
	columns := cfg.Strings("columns")
	if len(columns) == 0 {
		return false
	}
	for _, c := range columns {
		if !t.HasColumn(c) {
			return false
		}
	}
	return true
}

// Execute возвращает таблицу только с выбранными колонками.
func (s *SelectColumns) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	columns := cfg.Strings("columns")
	indices := make([]int, len(columns))
	for i, c := range columns {
		indices[i] = t.ColumnIndex(c)
	}

	result := table.New(columns...)
	for _, row := range t.Rows {
		out := make([]any, len(indices))
		for i, idx := range indices {
			if idx < len(row) {
				out[i] = row[idx]
			}
		}
		result.Rows = append(result.Rows, out)
	}
	return result, nil
}

// RearrangeColumns — порядок колонок.
//
// Конфигурация:
//
//	{"column_order": ["name", "amount"]}
//
// Перечисленные колонки идут первыми в заданном порядке, остальные —
// следом в исходном. Данные не меняются.
type RearrangeColumns struct{}

// NewRearrangeColumns создаёт новый RearrangeColumns.
func NewRearrangeColumns() *RearrangeColumns {
	return &RearrangeColumns{}
}

// Type возвращает тип преобразования.
func (r *RearrangeColumns) Type() string {
	return TypeRearrangeColumns
}

// Validate проверяет, что порядок задан и все колонки существуют.
func (r *RearrangeColumns) Validate(t *table.Table, cfg Config) bool {
	if _, ok := cfg["column_order"].([]any); !ok {
		return false
	}
	for _, c := range cfg.Strings("column_order") {
		if !t.HasColumn(c) {
			return false
		}
	}
	return true
}

// Execute возвращает таблицу с переставленными колонками.
func (r *RearrangeColumns) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	order := cfg.Strings("column_order")

	listed := make(map[string]bool, len(order))
	indices := make([]int, 0, len(t.Columns))
	for _, c := range order {
		listed[c] = true
		indices = append(indices, t.ColumnIndex(c))
	}
	for i, c := range t.Columns {
		if !listed[c] {
			indices = append(indices, i)
		}
	}

	columns := make([]string, len(indices))
	for i, idx := range indices {
		columns[i] = t.Columns[idx]
	}

	result := table.New(columns...)
	for _, row := range t.Rows {
		out := make([]any, len(indices))
		for i, idx := range indices {
			if idx < len(row) {
				out[i] = row[idx]
			}
		}
		result.Rows = append(result.Rows, out)
	}
	return result, nil
}
