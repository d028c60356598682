package transforms

import (
	"regexp"
	"strings"

	"github.com/shaiso/Flowsheet/internal/table"
)

// TypeRemoveColumnsRows — тип преобразования удаления колонок и строк.
const TypeRemoveColumnsRows = "remove_columns_rows"

// RemoveColumnsRows — удаление колонок или строк по набору правил.
//
// Конфигурация (mode по умолчанию "columns"):
//
//	{
//	    "mode": "columns",
//	    "columnSelection": {
//	        "names":   ["debug"],
//	        "indices": [0, "2"],
//	        "match":   {"operator": "starts_with", "value": "tmp_"}
//	    }
//	}
//
//	{
//	    "mode": "rows",
//	    "rowSelection": {
//	        "indices": [0],
//	        "range":   {"start": 5, "end": 9},
//	        "rules":   [{"column": "status", "operator": "equals", "value": "closed"}],
//	        "match":   "any"
//	    }
//	}
//
// Операторы правил строк — как у filter_rows. Операторы match по
// имени колонки: equals, starts_with, ends_with, regex, contains
// (по умолчанию). Неизвестный mode трактуется как "columns".
type RemoveColumnsRows struct{}

// NewRemoveColumnsRows создаёт новый RemoveColumnsRows.
func NewRemoveColumnsRows() *RemoveColumnsRows {
	return &RemoveColumnsRows{}
}

// Type возвращает тип преобразования.
func (r *RemoveColumnsRows) Type() string {
	return TypeRemoveColumnsRows
}

// Validate мягкая: отказывает только при явной ошибке — правило или
// выбор ссылается на колонку, которой нет в таблице.
func (r *RemoveColumnsRows) Validate(t *table.Table, cfg Config) bool {
	mode, _ := cfg.String("mode")
	switch mode {
	case "rows":
		sel := cfg.Map("rowSelection")
		rules, _ := sel["rules"].([]any)
		for _, raw := range rules {
			rule, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if column, ok := Config(rule).String("column"); ok && column != "" && !t.HasColumn(column) {
				return false
			}
		}
	case "columns", "":
		sel := cfg.Map("columnSelection")
		for _, name := range sel.Strings("names") {
			if !t.HasColumn(name) {
				return false
			}
		}
	}
	return true
}

// Execute удаляет выбранные колонки либо строки.
func (r *RemoveColumnsRows) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	if mode, _ := cfg.String("mode"); mode == "rows" {
		return removeRows(t, cfg.Map("rowSelection")), nil
	}
	return removeColumns(t, cfg.Map("columnSelection")), nil
}

// removeRows убирает строки по позициям, диапазону и правилам.
func removeRows(t *table.Table, sel Config) *table.Table {
	drop := make([]bool, len(t.Rows))

	for _, pos := range sel.Ints("indices") {
		if pos >= 0 && pos < len(drop) {
			drop[pos] = true
		}
	}

	if rng := sel.Map("range"); rng != nil {
		start, okStart := intValue(rng["start"])
		end, okEnd := intValue(rng["end"])
		if okStart || okEnd {
			if !okStart {
				start = 0
			}
			if !okEnd {
				end = len(drop) - 1
			}
			for pos := max(start, 0); pos <= end && pos < len(drop); pos++ {
				drop[pos] = true
			}
		}
	}

	rules := rowRules(sel)
	matchAll := false
	if strategy, _ := sel.String("match"); strategy == "all" {
		matchAll = true
	}

	result := &table.Table{Columns: t.Columns, Rows: make([][]any, 0, len(t.Rows))}
	for i, row := range t.Rows {
		if drop[i] || rulesMatch(t, row, rules, matchAll) {
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result.Copy()
}

// rowRules выбирает корректно заданные правила из конфигурации.
func rowRules(sel Config) []Config {
	raw, _ := sel["rules"].([]any)
	rules := make([]Config, 0, len(raw))
	for _, v := range raw {
		if rule, ok := v.(map[string]any); ok {
			rules = append(rules, Config(rule))
		}
	}
	return rules
}

// rulesMatch проверяет строку против правил ("any" либо "all").
func rulesMatch(t *table.Table, row []any, rules []Config, matchAll bool) bool {
	if len(rules) == 0 {
		return false
	}
	for _, rule := range rules {
		matched := ruleMatches(t, row, rule)
		if matchAll && !matched {
			return false
		}
		if !matchAll && matched {
			return true
		}
	}
	return matchAll
}

// rowRuleOperators — операторы, допустимые в правилах строк.
var rowRuleOperators = map[string]bool{
	"equals":       true,
	"not_equals":   true,
	"contains":     true,
	"not_contains": true,
	"greater_than": true,
	"less_than":    true,
	"is_blank":     true,
	"is_not_blank": true,
}

// ruleMatches проверяет одно правило. Неизвестный оператор или
// отсутствующая колонка правило гасят, строка остаётся.
func ruleMatches(t *table.Table, row []any, rule Config) bool {
	column, ok := rule.String("column")
	if !ok || !t.HasColumn(column) {
		return false
	}

	operator, ok := rule.String("operator")
	if !ok {
		operator = "equals"
	}
	if !rowRuleOperators[operator] {
		return false
	}

	var cell any
	if idx := t.ColumnIndex(column); idx < len(row) {
		cell = row[idx]
	}
	return matchFilter(cell, operator, rule["value"])
}

// removeColumns убирает колонки по именам, позициям и правилу match.
func removeColumns(t *table.Table, sel Config) *table.Table {
	drop := make(map[int]bool)

	for _, name := range sel.Strings("names") {
		if idx := t.ColumnIndex(name); idx >= 0 {
			drop[idx] = true
		}
	}

	for _, idx := range sel.Ints("indices") {
		if idx >= 0 && idx < len(t.Columns) {
			drop[idx] = true
		}
	}

	if match := sel.Map("match"); match != nil {
		for idx, name := range t.Columns {
			if columnNameMatches(name, match) {
				drop[idx] = true
			}
		}
	}

	if len(drop) == 0 {
		return t.Copy()
	}

	kept := make([]int, 0, len(t.Columns))
	columns := make([]string, 0, len(t.Columns))
	for idx, name := range t.Columns {
		if !drop[idx] {
			kept = append(kept, idx)
			columns = append(columns, name)
		}
	}

	result := table.New(columns...)
	for _, row := range t.Rows {
		out := make([]any, len(kept))
		for i, idx := range kept {
			if idx < len(row) {
				out[i] = row[idx]
			}
		}
		result.Rows = append(result.Rows, out)
	}
	return result
}

// columnNameMatches проверяет имя колонки против правила match.
// Пустое значение ничему не соответствует.
func columnNameMatches(name string, rule Config) bool {
	raw, ok := rule.String("value")
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}

	operator, ok := rule.String("operator")
	if !ok {
		operator = "contains"
	}

	if operator == "regex" {
		matched, err := regexp.MatchString(raw, name)
		return err == nil && matched
	}

	value := strings.TrimSpace(raw)
	candidate := name
	if !rule.Bool("caseSensitive", false) {
		value = strings.ToLower(value)
		candidate = strings.ToLower(candidate)
	}

	switch operator {
	case "equals":
		return candidate == value
	case "starts_with":
		return strings.HasPrefix(candidate, value)
	case "ends_with":
		return strings.HasSuffix(candidate, value)
	default:
		return strings.Contains(candidate, value)
	}
}
