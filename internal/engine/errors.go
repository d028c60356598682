package engine

import "errors"

// Ошибки выполнения flow.
var (
	// ErrTransformFailed — преобразование упало после пройденной
	// валидации. Карта таблиц в несогласованном состоянии,
	// выполнение нельзя продолжить.
	ErrTransformFailed = errors.New("transform failed after validation")

	// ErrLoadFailed — не удалось загрузить таблицу из файла.
	ErrLoadFailed = errors.New("table load failed")
)

// ExecError — ошибка выполнения с контекстом узла.
type ExecError struct {
	NodeID    string // ID узла, где произошла ошибка
	BlockType string // тип преобразования
	Key       string // ключ таблицы, если применимо
	Err       error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ExecError) Error() string {
	msg := "node " + e.NodeID + " (" + e.BlockType + ")"
	if e.Key != "" {
		msg += " on " + e.Key
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// NewExecError создаёт новую ошибку выполнения.
func NewExecError(nodeID, blockType, key string, err error) *ExecError {
	return &ExecError{
		NodeID:    nodeID,
		BlockType: blockType,
		Key:       key,
		Err:       err,
	}
}
