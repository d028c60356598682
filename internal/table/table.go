package table

import (
	"strconv"
	"strings"
)

// Table — прямоугольный набор данных.
//
// Ячейки хранятся как any: string, float64, bool или nil (пустая).
// Порядок колонок и строк значим.
type Table struct {
	// Columns — имена колонок в порядке следования.
	Columns []string

	// Rows — строки; len(row) == len(Columns).
	Rows [][]any
}

// New создаёт таблицу с заданными колонками без строк.
func New(columns ...string) *Table {
	return &Table{
		Columns: columns,
		Rows:    make([][]any, 0),
	}
}

// Empty создаёт пустую таблицу без колонок.
func Empty() *Table {
	return &Table{
		Columns: make([]string, 0),
		Rows:    make([][]any, 0),
	}
}

// RowCount возвращает количество строк.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount возвращает количество колонок.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// ColumnIndex возвращает позицию колонки или -1, если её нет.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn проверяет наличие колонки.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendRow добавляет строку, выравнивая её длину по колонкам.
func (t *Table) AppendRow(row []any) {
	aligned := make([]any, len(t.Columns))
	copy(aligned, row)
	t.Rows = append(t.Rows, aligned)
}

// Copy возвращает глубокую копию таблицы.
// Изменения копии не затрагивают оригинал.
func (t *Table) Copy() *Table {
	cp := &Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]any, len(t.Rows)),
	}
	copy(cp.Columns, t.Columns)
	for i, row := range t.Rows {
		r := make([]any, len(row))
		copy(r, row)
		cp.Rows[i] = r
	}
	return cp
}

// Head возвращает новую таблицу с первыми n строками.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	head := &Table{Columns: t.Columns, Rows: t.Rows[:n]}
	return head.Copy()
}

// Kinds возвращает выведенный тип каждой колонки:
// "number", "bool", "string" или "empty".
func (t *Table) Kinds() map[string]string {
	kinds := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		kinds[col] = t.columnKind(i)
	}
	return kinds
}

// columnKind выводит тип колонки по первым непустым значениям.
func (t *Table) columnKind(idx int) string {
	kind := "empty"
	for _, row := range t.Rows {
		if idx >= len(row) || IsBlank(row[idx]) {
			continue
		}
		var k string
		switch row[idx].(type) {
		case float64, int, int64:
			k = "number"
		case bool:
			k = "bool"
		default:
			k = "string"
		}
		if kind == "empty" {
			kind = k
		} else if kind != k {
			// Смешанные типы — считаем строковой колонкой.
			return "string"
		}
	}
	return kind
}

// Concat соединяет таблицы построчно, сохраняя объединение колонок.
//
// Порядок колонок: колонки первой таблицы, затем новые колонки
// последующих в порядке появления. Отсутствующие у источника
// колонки заполняются nil. Порядок строк следует порядку таблиц.
func Concat(tables ...*Table) *Table {
	columns := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	result := New(columns...)
	for _, t := range tables {
		if t == nil {
			continue
		}
		// Карта позиций колонок источника в результате
		pos := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			pos[i] = result.ColumnIndex(c)
		}
		for _, row := range t.Rows {
			out := make([]any, len(columns))
			for i, v := range row {
				if i < len(pos) && pos[i] >= 0 {
					out[pos[i]] = v
				}
			}
			result.Rows = append(result.Rows, out)
		}
	}
	return result
}

// IsBlank сообщает, считается ли значение пустым (nil или "").
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// AsNumber приводит значение к float64, если это возможно.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString приводит значение к строке.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// NormalizeText схлопывает пробелы и приводит строку к нижнему
// регистру. Используется для нестрогого сравнения текста:
// данные из фронтенда часто содержат лишние пробелы и NBSP.
func NormalizeText(s string) string {
	fields := strings.Fields(strings.ReplaceAll(s, " ", " "))
	return strings.ToLower(strings.Join(fields, " "))
}
