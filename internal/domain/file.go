package domain

import "time"

// File — метаданные загруженного файла.
//
// Сами байты лежат на диске (internal/storage), запись в БД
// хранит только путь и атрибуты. Файл принадлежит одному
// пользователю и может входить в batch.
type File struct {
	// ID — уникальный идентификатор файла.
	ID int64 `json:"id"`

	// UserID — владелец файла. Все операции проверяют владение.
	UserID int64 `json:"user_id"`

	// Filename — сгенерированное уникальное имя на диске.
	Filename string `json:"filename"`

	// OriginalFilename — имя, под которым файл был загружен.
	OriginalFilename string `json:"original_filename"`

	// Path — полный путь к файлу на диске.
	Path string `json:"file_path"`

	// Size — размер файла в байтах.
	// Вместе с ID образует дешёвый fingerprint содержимого.
	Size int64 `json:"file_size"`

	// MimeType — MIME-тип для отдачи файла клиенту.
	MimeType string `json:"mime_type"`

	// BatchID — batch, в который входит файл (0 — вне batch).
	BatchID int64 `json:"batch_id,omitempty"`

	// CreatedAt — время загрузки.
	CreatedAt time.Time `json:"created_at"`
}
