package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// FileResponse — файл из API.
type FileResponse struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
	BatchID          int64  `json:"batch_id,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// FlowResponse — flow из API.
type FlowResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// BatchResponse — набор файлов из API.
type BatchResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	FlowID      int64          `json:"flow_id,omitempty"`
	CreatedAt   string         `json:"created_at"`
	Files       []FileResponse `json:"files,omitempty"`
}

// OutputResponse — один выход flow-документа.
type OutputResponse struct {
	Key           string `json:"key"`
	Descriptor    string `json:"descriptor"`
	IsFinalOutput bool   `json:"is_final_output"`
}

// ReportResponse — отчёт сборщика ссылок после удаления.
type ReportResponse struct {
	FilesDeleted   int `json:"files_deleted"`
	BatchesDeleted int `json:"batches_deleted"`
	FlowsUpdated   int `json:"flows_updated"`
}

// --- Request types ---

// UpdateFlowRequest — обновление flow.
type UpdateFlowRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data,omitempty"`
}

// CreateFlowRequest — создание flow.
type CreateFlowRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Document    map[string]any `json:"flow_data,omitempty"`
}

// CreateBatchRequest — создание набора файлов.
type CreateBatchRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FlowID      int64  `json:"flow_id,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Flowsheet API.
type Client struct {
	baseURL    string
	userID     int64
	httpClient *http.Client
}

// NewClient создаёт клиент для API от имени пользователя userID.
func NewClient(baseURL string, userID int64) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Flows ---

// ListFlows возвращает все flows пользователя.
func (c *Client) ListFlows() ([]FlowResponse, error) {
	var flows []FlowResponse
	err := c.list("/api/v1/flows", &flows)
	return flows, err
}

// CreateFlow создаёт новый flow.
func (c *Client) CreateFlow(req CreateFlowRequest) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.post("/api/v1/flows", req, &flow)
	return &flow, err
}

// GetFlow возвращает flow по ID.
func (c *Client) GetFlow(id int64) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.get("/api/v1/flows/"+formatID(id), &flow)
	return &flow, err
}

// UpdateFlow обновляет flow.
func (c *Client) UpdateFlow(id int64, req UpdateFlowRequest) (*FlowResponse, error) {
	var flow FlowResponse
	err := c.put("/api/v1/flows/"+formatID(id), req, &flow)
	return &flow, err
}

// DeleteFlow удаляет flow и возвращает отчёт об уборке ссылок.
func (c *Client) DeleteFlow(id int64) (*ReportResponse, error) {
	var report ReportResponse
	err := c.doData(http.MethodDelete, "/api/v1/flows/"+formatID(id), nil, &report)
	return &report, err
}

// ListOutputs возвращает выходы flow-документа.
func (c *Client) ListOutputs(doc map[string]any) ([]OutputResponse, error) {
	body := map[string]any{"flow_data": doc}
	var outputs []OutputResponse
	err := c.postList("/api/v1/transform/outputs", body, &outputs)
	return outputs, err
}

// ExportFlow выполняет flow и возвращает содержимое выгрузки вместе
// с именем файла из Content-Disposition.
func (c *Client) ExportFlow(fileIDs []int64, doc map[string]any) (string, []byte, error) {
	body := map[string]any{"file_ids": fileIDs, "flow_data": doc}
	resp, err := c.do(http.MethodPost, "/api/v1/transform/export", body)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return "", nil, err
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read export: %w", err)
	}

	filename := "export"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			filename = name
		}
	}
	return filename, content, nil
}

// --- Files ---

// ListFiles возвращает все файлы пользователя.
func (c *Client) ListFiles() ([]FileResponse, error) {
	var files []FileResponse
	err := c.list("/api/v1/files", &files)
	return files, err
}

// GetFile возвращает файл по ID.
func (c *Client) GetFile(id int64) (*FileResponse, error) {
	var file FileResponse
	err := c.get("/api/v1/files/"+formatID(id), &file)
	return &file, err
}

// UploadFile загружает локальный файл. batchID=0 — без набора.
func (c *Client) UploadFile(path string, batchID int64) (*FileResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if batchID > 0 {
		if err := mw.WriteField("batch_id", formatID(batchID)); err != nil {
			return nil, fmt.Errorf("failed to build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/files", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", formatID(c.userID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var file FileResponse
	if err := json.Unmarshal(dr.Data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFile удаляет файл и возвращает отчёт об уборке ссылок.
func (c *Client) DeleteFile(id int64) (*ReportResponse, error) {
	var report ReportResponse
	err := c.doData(http.MethodDelete, "/api/v1/files/"+formatID(id), nil, &report)
	return &report, err
}

// OrphanedFiles возвращает файлы без единой ссылки из flow-документов.
func (c *Client) OrphanedFiles() ([]FileResponse, error) {
	var files []FileResponse
	err := c.list("/api/v1/files/orphaned", &files)
	return files, err
}

// --- Batches ---

// ListBatches возвращает наборы файлов пользователя.
func (c *Client) ListBatches() ([]BatchResponse, error) {
	var batches []BatchResponse
	err := c.list("/api/v1/batches", &batches)
	return batches, err
}

// CreateBatch создаёт набор файлов.
func (c *Client) CreateBatch(req CreateBatchRequest) (*BatchResponse, error) {
	var batch BatchResponse
	err := c.post("/api/v1/batches", req, &batch)
	return &batch, err
}

// GetBatch возвращает набор вместе с файлами.
func (c *Client) GetBatch(id int64) (*BatchResponse, error) {
	var batch BatchResponse
	err := c.get("/api/v1/batches/"+formatID(id), &batch)
	return &batch, err
}

// DeleteBatch удаляет набор и возвращает отчёт об уборке ссылок.
func (c *Client) DeleteBatch(id int64) (*ReportResponse, error) {
	var report ReportResponse
	err := c.doData(http.MethodDelete, "/api/v1/batches/"+formatID(id), nil, &report)
	return &report, err
}

// --- Transforms ---

// ListTransforms возвращает типы преобразований, известные серверу.
func (c *Client) ListTransforms() ([]string, error) {
	var types []string
	err := c.list("/api/v1/transforms", &types)
	return types, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decodeList(resp, result)
}

func (c *Client) postList(path string, body any, result any) error {
	resp, err := c.do(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decodeList(resp, result)
}

func (c *Client) decodeList(resp *http.Response, result any) error {
	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", formatID(c.userID))

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
