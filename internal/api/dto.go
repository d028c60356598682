package api

import (
	"time"

	"github.com/shaiso/Flowsheet/internal/domain"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

// File DTOs

// FileResponse — ответ с метаданными файла.
type FileResponse struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	Size             int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	BatchID          int64     `json:"batch_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// FileFromDomain конвертирует domain.File в FileResponse.
func FileFromDomain(f domain.File) FileResponse {
	return FileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		Size:             f.Size,
		MimeType:         f.MimeType,
		BatchID:          f.BatchID,
		CreatedAt:        f.CreatedAt,
	}
}

// Flow DTOs

// CreateFlowRequest — запрос на создание flow.
type CreateFlowRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data"`
}

// UpdateFlowRequest — запрос на обновление flow.
type UpdateFlowRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data,omitempty"`
}

// FlowResponse — ответ с flow.
type FlowResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FlowFromDomain конвертирует domain.Flow в FlowResponse.
func FlowFromDomain(f domain.Flow) FlowResponse {
	return FlowResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Document:    f.Document,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Batch DTOs

// CreateBatchRequest — запрос на создание batch.
type CreateBatchRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FlowID      int64  `json:"flow_id,omitempty"`
}

// BatchResponse — ответ с batch.
type BatchResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	FlowID      int64          `json:"flow_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Files       []FileResponse `json:"files,omitempty"`
}

// BatchFromDomain конвертирует domain.FileBatch в BatchResponse.
func BatchFromDomain(b domain.FileBatch) BatchResponse {
	return BatchResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		FlowID:      b.FlowID,
		CreatedAt:   b.CreatedAt,
	}
}

// Transform DTOs

// ExecuteRequest — запрос на выполнение flow-документа.
// Документ приходит в запросе, а не из БД: редактор выполняет
// несохранённые правки.
type ExecuteRequest struct {
	FileIDs  []int64        `json:"file_ids"`
	Document map[string]any `json:"flow_data"`
	Target   engine.Target  `json:"preview_target"`
}

// PreviewStepRequest — запрос на предпросмотр одного преобразования.
type PreviewStepRequest struct {
	BlockType string            `json:"block_type"`
	Config    transforms.Config `json:"config"`
	Columns   []string          `json:"columns"`
	Rows      [][]any           `json:"rows"`
}

// OutputResponse — один выход flow-документа.
type OutputResponse struct {
	Key           string `json:"key"`
	Descriptor    string `json:"descriptor"`
	IsFinalOutput bool   `json:"is_final_output"`
}

// PrecomputeResponse — итог прогрева.
type PrecomputeResponse struct {
	Warmed int `json:"warmed"`
}
