package transforms

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shaiso/Flowsheet/internal/table"
)

// Ошибки преобразований.
var (
	// ErrTransformNotFound — тип преобразования не найден в реестре.
	ErrTransformNotFound = errors.New("transform type not found")

	// ErrExecuteFailed — преобразование упало во время Execute.
	// После пройденной валидации это фатальная ошибка выполнения.
	ErrExecuteFailed = errors.New("transform execute failed")
)

// Transform — интерфейс табличного преобразования.
//
// Validate — ворота перед выполнением: если конфигурация не подходит
// к входной таблице, узел пропускается, Execute не вызывается.
// Execute возвращает новую таблицу и не изменяет входную.
type Transform interface {
	// Type возвращает тип преобразования (ключ в реестре).
	Type() string

	// Validate проверяет конфигурацию против входной таблицы.
	Validate(t *table.Table, cfg Config) bool

	// Execute выполняет преобразование.
	Execute(t *table.Table, cfg Config) (*table.Table, error)
}

// Config — конфигурация преобразования.
//
// Приходит из flow-документа как нетипизированный JSON-объект.
// Ссылочные поля (lookupTable) движок разрешает заранее и кладёт
// сюда уже загруженные таблицы.
type Config map[string]any

// Ключи конфигурации, заполняемые движком.
const (
	// ConfigLookupTable — загруженная lookup-таблица для join_lookup.
	ConfigLookupTable = "lookupTable"

	// ConfigMappingTables — загруженные mapping-таблицы.
	ConfigMappingTables = "mappingTables"
)

// String возвращает строковое значение ключа.
func (c Config) String(key string) (string, bool) {
	v, ok := c[key].(string)
	return v, ok
}

// Bool возвращает булево значение ключа (по умолчанию def).
func (c Config) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// Strings возвращает список строк по ключу.
// Не-строковые элементы пропускаются.
func (c Config) Strings(key string) []string {
	raw, ok := c[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Table возвращает разрешённую движком таблицу по ключу.
func (c Config) Table(key string) (*table.Table, bool) {
	t, ok := c[key].(*table.Table)
	return t, ok
}

// StringMap возвращает отображение строка → строка по ключу.
func (c Config) StringMap(key string) map[string]string {
	raw, ok := c[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Map возвращает вложенный объект конфигурации по ключу.
func (c Config) Map(key string) Config {
	if v, ok := c[key].(map[string]any); ok {
		return Config(v)
	}
	return nil
}

// Ints возвращает список целых по ключу.
// Числа из JSON приходят как float64, индексы из редактора бывают
// строками; булевы и прочие значения пропускаются.
func (c Config) Ints(key string) []int {
	raw, ok := c[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		if n, ok := intValue(v); ok {
			out = append(out, n)
		}
	}
	return out
}

// intValue приводит значение к целому, если это возможно.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case bool:
		return 0, false
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Preview выполняет преобразование на копии таблицы и возвращает
// первые rows строк. Вход не изменяется.
func Preview(tr Transform, t *table.Table, cfg Config, rows int) (*table.Table, error) {
	result, err := tr.Execute(t.Copy(), cfg)
	if err != nil {
		return nil, err
	}
	return result.Head(rows), nil
}
