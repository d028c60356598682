package api

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// maxUploadBytes — предел размера загружаемого файла (64 МиБ).
const maxUploadBytes = 64 << 20

// UploadFile принимает файл и кладёт его на диск и в БД.
// POST /api/v1/files (multipart, поле file; опционально batch_id)
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		BadRequest(w, "invalid multipart body")
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "file field is required")
		return
	}
	defer src.Close()

	var batchID int64
	if raw := r.FormValue("batch_id"); raw != "" {
		b, ok := parseID(raw)
		if !ok {
			BadRequest(w, "invalid batch_id")
			return
		}
		if _, err := h.batchRepo.GetByID(r.Context(), uid, b); HandleRepoError(w, h.logger, err, "batch not found") {
			return
		}
		batchID = b
	}

	filename, path, err := h.storage.Save(uid, header.Filename, src)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	size, err := h.storage.Size(uid, filename)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	file := &domain.File{
		UserID:           uid,
		Filename:         filename,
		OriginalFilename: header.Filename,
		Path:             path,
		Size:             size,
		MimeType:         mimeByExt(header.Filename),
		BatchID:          batchID,
	}
	if err := h.fileRepo.Create(r.Context(), file); err != nil {
		// Запись не встала — байты на диске не оставляем
		if derr := h.storage.Delete(uid, filename); derr != nil {
			h.logger.Warn("orphaned blob after failed insert", "filename", filename, "error", derr)
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, FileFromDomain(*file))
}

// ListFiles возвращает файлы пользователя.
// GET /api/v1/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	files, err := h.fileRepo.ListByUser(r.Context(), uid)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FileResponse, len(files))
	for i, f := range files {
		result[i] = FileFromDomain(f)
	}
	List(w, result, len(result))
}

// GetFile возвращает метаданные файла.
// GET /api/v1/files/{id}
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid file id")
		return
	}

	file, err := h.fileRepo.GetByID(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "file not found") {
		return
	}
	Success(w, FileFromDomain(*file))
}

// FilePreview возвращает содержимое файла: шапку листа по умолчанию
// и список листов книги. Flow при этом не выполняется.
// GET /api/v1/files/{id}/preview
func (h *Handler) FilePreview(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid file id")
		return
	}

	payload, err := h.previewer.PreviewFile(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "file not found") {
		return
	}
	Success(w, payload)
}

// DeleteFile удаляет файл, предварительно вычистив его id из всех
// flows пользователя.
// DELETE /api/v1/files/{id}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid file id")
		return
	}

	report, err := h.collector.DeleteFile(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "file not found") {
		return
	}
	Success(w, report)
}

// OrphanedFiles возвращает файлы пользователя без единой ссылки.
// GET /api/v1/files/orphaned
func (h *Handler) OrphanedFiles(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	orphans, err := h.collector.OrphanedFiles(r.Context(), uid)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]FileResponse, len(orphans))
	for i, f := range orphans {
		result[i] = FileFromDomain(f)
	}
	List(w, result, len(result))
}

func mimeByExt(filename string) string {
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
