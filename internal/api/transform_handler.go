package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/service"
)

// ListTransforms возвращает типы зарегистрированных преобразований.
// GET /api/v1/transforms
func (h *Handler) ListTransforms(w http.ResponseWriter, r *http.Request) {
	List(w, h.registry.Types(), h.registry.Count())
}

// ExecuteFlow выполняет документ и возвращает предпросмотр
// запрошенной таблицы.
// POST /api/v1/transform/execute
func (h *Handler) ExecuteFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Document == nil {
		BadRequest(w, "flow_data is required")
		return
	}

	payload, err := h.previewer.Preview(r.Context(), uid, req.FileIDs, req.Document, req.Target)
	if HandleExecError(w, h.logger, err) {
		return
	}
	Success(w, payload)
}

// PreviewStep прогоняет одно преобразование по присланным строкам.
// POST /api/v1/transform/preview-step
func (h *Handler) PreviewStep(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(r); !ok {
		Unauthorized(w)
		return
	}

	var req PreviewStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.BlockType == "" {
		BadRequest(w, "block_type is required")
		return
	}

	payload, err := h.previewer.PreviewStep(h.registry, req.BlockType, req.Config, req.Columns, req.Rows)
	if HandleExecError(w, h.logger, err) {
		return
	}
	Success(w, payload)
}

// ListOutputs перечисляет выходы документа без выполнения.
// POST /api/v1/transform/outputs
func (h *Handler) ListOutputs(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(r); !ok {
		Unauthorized(w)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	outputs := engine.ListOutputs(req.Document)
	result := make([]OutputResponse, len(outputs))
	for i, out := range outputs {
		result[i] = OutputResponse{
			Key:           string(out.Key),
			Descriptor:    out.Descriptor,
			IsFinalOutput: out.IsFinalOutput,
		}
	}
	List(w, result, len(result))
}

// Precompute выполняет документ и прогревает кэш всех его выходов.
// POST /api/v1/transform/precompute
func (h *Handler) Precompute(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Document == nil {
		BadRequest(w, "flow_data is required")
		return
	}

	warmed, err := h.previewer.Precompute(r.Context(), uid, req.FileIDs, req.Document)
	if HandleExecError(w, h.logger, err) {
		return
	}
	Success(w, PrecomputeResponse{Warmed: warmed})
}

// ExportFlow выполняет документ и отдаёт собранные выходные файлы.
// POST /api/v1/transform/export
func (h *Handler) ExportFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		Unauthorized(w)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Document == nil {
		BadRequest(w, "flow_data is required")
		return
	}

	res, err := h.previewer.Export(r.Context(), uid, req.FileIDs, req.Document)
	if errors.Is(err, service.ErrNoOutputs) {
		BadRequest(w, err.Error())
		return
	}
	if HandleExecError(w, h.logger, err) {
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Content)
}
