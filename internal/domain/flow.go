package domain

import "time"

// Flow — сохранённая последовательность преобразований.
//
// Document — нетипизированное JSON-дерево (схема узлов меняется
// от типа блока к типу блока). Движок (internal/engine) разбирает
// его в типизированные записи при каждом обращении.
type Flow struct {
	// ID — уникальный идентификатор flow.
	ID int64 `json:"id"`

	// UserID — владелец flow.
	UserID int64 `json:"user_id"`

	// Name — имя flow, задаётся пользователем.
	Name string `json:"name"`

	// Description — необязательное описание.
	Description string `json:"description,omitempty"`

	// Document — структурное описание flow (JSONB в БД).
	Document map[string]any `json:"flow_data"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
