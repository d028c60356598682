package transforms

import "github.com/shaiso/Flowsheet/internal/table"

// TypeJoinLookup — тип преобразования join/lookup.
const TypeJoinLookup = "join_lookup"

// JoinLookup — обогащение таблицы данными из lookup-таблицы.
//
// Конфигурация:
//
//	{
//	    "on": "customer_id",
//	    "how": "left",               // left (по умолчанию) или inner
//	    "columns": ["rate", "tier"]  // какие колонки lookup включить; пусто = все
//	}
//
// Саму lookup-таблицу движок загружает по config.lookupTarget
// и кладёт в конфигурацию под ключом ConfigLookupTable до вызова.
// При нескольких совпадениях ключа берётся первое.
type JoinLookup struct{}

// NewJoinLookup создаёт новый JoinLookup.
func NewJoinLookup() *JoinLookup {
	return &JoinLookup{}
}

// Type возвращает тип преобразования.
func (j *JoinLookup) Type() string {
	return TypeJoinLookup
}

// Validate проверяет ключ соединения и наличие загруженной lookup-таблицы.
func (j *JoinLookup) Validate(t *table.Table, cfg Config) bool {
	on, ok := cfg.String("on")
	if !ok || !t.HasColumn(on) {
		return false
	}
	lookup, ok := cfg.Table(ConfigLookupTable)
	if !ok || lookup == nil {
		return false
	}
	return lookup.HasColumn(on)
}

// Execute выполняет left/inner join по ключу on.
func (j *JoinLookup) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	on, _ := cfg.String("on")
	how, _ := cfg.String("how")
	lookup, _ := cfg.Table(ConfigLookupTable)

	// Какие колонки lookup попадают в результат
	pick := cfg.Strings("columns")
	if len(pick) == 0 {
		for _, c := range lookup.Columns {
			if c != on {
				pick = append(pick, c)
			}
		}
	} else {
		filtered := pick[:0]
		for _, c := range pick {
			if c != on && lookup.HasColumn(c) {
				filtered = append(filtered, c)
			}
		}
		pick = filtered
	}

	// Индекс lookup по ключу: первое совпадение выигрывает
	onIdx := lookup.ColumnIndex(on)
	byKey := make(map[string][]any, lookup.RowCount())
	for _, row := range lookup.Rows {
		key := table.AsString(row[onIdx])
		if _, exists := byKey[key]; !exists {
			byKey[key] = row
		}
	}

	pickIdx := make([]int, len(pick))
	for i, c := range pick {
		pickIdx[i] = lookup.ColumnIndex(c)
	}

	// Совпадающие имена колонок получают суффикс _lookup
	outColumns := make([]string, 0, len(t.Columns)+len(pick))
	outColumns = append(outColumns, t.Columns...)
	for _, c := range pick {
		name := c
		if t.HasColumn(c) {
			name = c + "_lookup"
		}
		outColumns = append(outColumns, name)
	}

	srcIdx := t.ColumnIndex(on)
	result := table.New(outColumns...)
	for _, row := range t.Rows {
		match, found := byKey[table.AsString(row[srcIdx])]
		if !found && how == "inner" {
			continue
		}
		out := make([]any, 0, len(outColumns))
		out = append(out, row...)
		for _, idx := range pickIdx {
			if found && idx < len(match) {
				out = append(out, match[idx])
			} else {
				out = append(out, nil)
			}
		}
		result.AppendRow(out)
	}
	return result.Copy(), nil
}
