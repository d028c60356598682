package transforms

import "github.com/shaiso/Flowsheet/internal/table"

// TypeAppendFiles — тип преобразования склейки файлов.
const TypeAppendFiles = "append_files"

// AppendFiles — склейка нескольких таблиц в одну.
//
// Сама склейка выполняется движком, когда несколько source targets
// указывают на один destination (режим N:1). Преобразование —
// тождественное: движок прогоняет через него каждый источник
// отдельно, а затем соединяет результаты table.Concat.
type AppendFiles struct{}

// NewAppendFiles создаёт новый AppendFiles.
func NewAppendFiles() *AppendFiles {
	return &AppendFiles{}
}

// Type возвращает тип преобразования.
func (a *AppendFiles) Type() string {
	return TypeAppendFiles
}

// Validate всегда истинна.
func (a *AppendFiles) Validate(t *table.Table, cfg Config) bool {
	return true
}

// Execute возвращает вход без изменений.
func (a *AppendFiles) Execute(t *table.Table, cfg Config) (*table.Table, error) {
	return t, nil
}
