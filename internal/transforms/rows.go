package transforms

import (
	"sort"
	"strings"

	"github.com/shaiso/Flowsheet/internal/table"
)

const (
	// TypeSortRows — тип преобразования сортировки строк.
	TypeSortRows = "sort_rows"

	// TypeDedupeRows — тип преобразования удаления дубликатов.
	TypeDedupeRows = "dedupe_rows"
)

// SortRows — сортировка строк по одной или нескольким колонкам.
//
// Конфигурация:
//
//	{
//	    "columns": ["region", "amount"],
//	    "ascending": true
//	}
//
// Числа сравниваются численно, остальное — как текст.
// Сортировка стабильная.
type SortRows struct{}

// NewSortRows создаёт новый SortRows.
func NewSortRows() *SortRows {
	return &SortRows{}
}

// Type возвращает тип преобразования.
func (s *SortRows) Type() string {
	return TypeSortRows
}

// Validate проверяет, что заданы существующие колонки.
func (s *SortRows) Validate(t *table.Table, cfg Config) bool {
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

// Execute возвращает отсортированную копию таблицы.
func (s *SortRows) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	columns := cfg.Strings("columns")
	ascending := cfg.Bool("ascending", true)

	indices := make([]int, 0, len(columns))
	for _, c := range columns {
		indices = append(indices, t.ColumnIndex(c))
	}

	result := t.Copy()
	sort.SliceStable(result.Rows, func(i, j int) bool {
		for _, idx := range indices {
			c := compareCells(result.Rows[i][idx], result.Rows[j][idx])
			if c == 0 {
				continue
			}
			if ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return result, nil
}

// compareCells сравнивает две ячейки: -1, 0 или 1.
// Пустые значения идут последними при любом направлении их сравнения
// между собой; число против числа — численно, иначе — текст.
func compareCells(a, b any) int {
	aBlank, bBlank := table.IsBlank(a), table.IsBlank(b)
	if aBlank && bBlank {
		return 0
	}
	if aBlank {
		return 1
	}
	if bBlank {
		return -1
	}
	if an, okA := table.AsNumber(a); okA {
		if bn, okB := table.AsNumber(b); okB {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(table.AsString(a), table.AsString(b))
}

// DedupeRows — удаление повторяющихся строк.
//
// Конфигурация:
//
//	{"columns": ["email"]}  — ключ дубликата; пустой список = все колонки
//
// Остаётся первое вхождение каждого ключа.
type DedupeRows struct{}

// NewDedupeRows создаёт новый DedupeRows.
func NewDedupeRows() *DedupeRows {
	return &DedupeRows{}
}

// Type возвращает тип преобразования.
func (d *DedupeRows) Type() string {
	return TypeDedupeRows
}

// Validate проверяет, что все перечисленные колонки существуют.
func (d *DedupeRows) Validate(t *table.Table, cfg Config) bool {
	for _, c := range cfg.Strings("columns") {
		if !t.HasColumn(c) {
			return false
		}
	}
	return true
}

// Execute удаляет дубликаты, сохраняя порядок строк.
func (d *DedupeRows) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	columns := cfg.Strings("columns")
	indices := make([]int, 0, len(columns))
	for _, c := range columns {
		indices = append(indices, t.ColumnIndex(c))
	}

	result := &table.Table{Columns: t.Columns, Rows: make([][]any, 0)}
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		key := dedupeKey(row, indices)
		if seen[key] {
			continue
		}
		seen[key] = true
		result.Rows = append(result.Rows, row)
	}
	return result.Copy(), nil
}

// dedupeKey строит ключ дубликата из выбранных колонок (или всей строки).
func dedupeKey(row []any, indices []int) string {
	var b strings.Builder
	if len(indices) == 0 {
		for _, v := range row {
			b.WriteString(table.AsString(v))
			b.WriteByte(0x1f)
		}
		return b.String()
	}
	for _, idx := range indices {
		if idx < len(row) {
			b.WriteString(table.AsString(row[idx]))
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
