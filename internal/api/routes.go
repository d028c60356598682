package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Files
	mux.Handle("POST /api/v1/files", chain(http.HandlerFunc(h.UploadFile)))
	mux.Handle("GET /api/v1/files", chain(http.HandlerFunc(h.ListFiles)))
	mux.Handle("GET /api/v1/files/orphaned", chain(http.HandlerFunc(h.OrphanedFiles)))
	mux.Handle("GET /api/v1/files/{id}", chain(http.HandlerFunc(h.GetFile)))
	mux.Handle("GET /api/v1/files/{id}/preview", chain(http.HandlerFunc(h.FilePreview)))
	mux.Handle("DELETE /api/v1/files/{id}", chain(http.HandlerFunc(h.DeleteFile)))

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("POST /api/v1/flows", chain(http.HandlerFunc(h.CreateFlow)))
	mux.Handle("GET /api/v1/flows/{id}", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("PUT /api/v1/flows/{id}", chain(http.HandlerFunc(h.UpdateFlow)))
	mux.Handle("DELETE /api/v1/flows/{id}", chain(http.HandlerFunc(h.DeleteFlow)))

	// Batches
	mux.Handle("GET /api/v1/batches", chain(http.HandlerFunc(h.ListBatches)))
	mux.Handle("POST /api/v1/batches", chain(http.HandlerFunc(h.CreateBatch)))
	mux.Handle("GET /api/v1/batches/{id}", chain(http.HandlerFunc(h.GetBatch)))
	mux.Handle("DELETE /api/v1/batches/{id}", chain(http.HandlerFunc(h.DeleteBatch)))

	// Transform
	mux.Handle("GET /api/v1/transforms", chain(http.HandlerFunc(h.ListTransforms)))
	mux.Handle("POST /api/v1/transform/execute", chain(http.HandlerFunc(h.ExecuteFlow)))
	mux.Handle("POST /api/v1/transform/preview-step", chain(http.HandlerFunc(h.PreviewStep)))
	mux.Handle("POST /api/v1/transform/outputs", chain(http.HandlerFunc(h.ListOutputs)))
	mux.Handle("POST /api/v1/transform/precompute", chain(http.HandlerFunc(h.Precompute)))
	mux.Handle("POST /api/v1/transform/export", chain(http.HandlerFunc(h.ExportFlow)))
}
