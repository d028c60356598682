package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Flowsheet/internal/domain"
)

// ListFlows возвращает flows пользователя.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	flows, err := h.flowRepo.ListByUser(r.Context(), uid)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]FlowResponse, len(flows))
	for i, f := range flows {
		result[i] = FlowFromDomain(f)
	}
	List(w, result, len(result))
}

// CreateFlow создаёт новый flow.
// POST /api/v1/flows
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	var req CreateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.Document == nil {
		req.Document = map[string]any{"nodes": []any{}}
	}

	flow := &domain.Flow{
		UserID:      uid,
		Name:        req.Name,
		Description: req.Description,
		Document:    req.Document,
	}
	if err := h.flowRepo.Create(r.Context(), flow); HandleRepoError(w, h.logger, err, "") {
		return
	}

	h.publishPrecompute(r, uid, flow.ID)
	Created(w, FlowFromDomain(*flow))
}

// GetFlow возвращает flow по ID.
// GET /api/v1/flows/{id}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid flow id")
		return
	}

	flow, err := h.flowRepo.GetByID(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}
	Success(w, FlowFromDomain(*flow))
}

// UpdateFlow обновляет flow. Если правка перестала ссылаться на
// какие-то файлы, они вычищаются после записи нового документа.
// PUT /api/v1/flows/{id}
func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid flow id")
		return
	}

	var req UpdateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	flow, err := h.flowRepo.GetByID(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}
	oldDoc := flow.Document

	if req.Name != nil {
		flow.Name = *req.Name
	}
	if req.Description != nil {
		flow.Description = *req.Description
	}
	docChanged := req.Document != nil
	if docChanged {
		flow.Document = req.Document
	}

	if err := h.flowRepo.Update(r.Context(), flow); HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}

	if docChanged {
		deleted, err := h.collector.FlowUpdated(r.Context(), uid, id, oldDoc, flow.Document)
		if err != nil {
			// Документ уже записан: уборку доделает периодический sweep
			h.logger.Error("gc after flow update failed", "flow_id", id, "error", err)
		} else if deleted > 0 {
			h.logger.Info("gc after flow update", "flow_id", id, "files_deleted", deleted)
		}
		h.publishPrecompute(r, uid, id)
	}

	Success(w, FlowFromDomain(*flow))
}

// DeleteFlow удаляет flow с каскадной уборкой файлов и batches.
// DELETE /api/v1/flows/{id}
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		BadRequest(w, "invalid flow id")
		return
	}

	report, err := h.collector.DeleteFlow(r.Context(), uid, id)
	if HandleRepoError(w, h.logger, err, "flow not found") {
		return
	}
	Success(w, report)
}

// publishPrecompute ставит задание на прогрев кэша предпросмотров.
// Сбой публикации не ломает запрос: прогрев — оптимизация.
func (h *Handler) publishPrecompute(r *http.Request, uid, flowID int64) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishPrecompute(r.Context(), uid, flowID); err != nil {
		h.logger.Warn("failed to publish precompute job",
			"flow_id", flowID,
			"error", err,
		)
	}
}
