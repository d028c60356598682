package domain

import "time"

// FileBatch — именованная группа загруженных файлов.
//
// Batch бывает двух видов:
//   - свободный (FlowID == 0) — живёт, пока на его файлы
//     ссылается хотя бы один flow;
//   - привязанный к flow (FlowID != 0) — создан "для" конкретного
//     flow и удаляется вместе с ним безусловно.
type FileBatch struct {
	// ID — уникальный идентификатор batch.
	ID int64 `json:"id"`

	// UserID — владелец batch.
	UserID int64 `json:"user_id"`

	// Name — имя batch.
	Name string `json:"name"`

	// Description — необязательное описание.
	Description string `json:"description,omitempty"`

	// FlowID — flow, которому принадлежит batch (0 — свободный).
	FlowID int64 `json:"flow_id,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
