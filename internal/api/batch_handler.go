package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// ListBatches возвращает batches пользователя.
// GET /api/v1/batches
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	batches, err := h.batchRepo.ListByUser(r.Context(), uid)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]BatchResponse, len(batches))
	for i, b := range batches {
		result[i] = BatchFromDomain(b)
	}
	List(w, result, len(result))
}

// CreateBatch создаёт batch.
// POST /api/v1/batches
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.FlowID != 0 {
		if _, err := h.flowRepo.GetByID(r.Context(), uid, req.FlowID); HandleRepoError(w, h.logger, err, "flow not found") {
			return
		}
	}

	batch := &domain.FileBatch{
		UserID:      uid,
		Name:        req.Name,
		Description: req.Description,
		FlowID:      req.FlowID,
	}
	if err := h.batchRepo.Create(r.Context(), batch); HandleRepoError(w, h.logger, err, "") {
		return
	}
	Created(w, BatchFromDomain(*batch))
}

// GetBatch возвращает batch вместе с файлами.
// GET /api/v1/batches/{id}
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid batch id")
		return
	}

	batch, err := h.batchRepo.GetByID(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "batch not found") {
		return
	}

	files, err := h.fileRepo.ListByBatch(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	resp := BatchFromDomain(*batch)
	resp.Files = make([]FileResponse, len(files))
	for i, f := range files {
		resp.Files[i] = FileFromDomain(f)
	}
	Success(w, resp)
}

// DeleteBatch удаляет batch вместе с файлами.
// DELETE /api/v1/batches/{id}
func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid batch id")
		return
	}

	report, err := h.collector.DeleteBatch(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "batch not found") {
		return
	}
	Success(w, report)
}
