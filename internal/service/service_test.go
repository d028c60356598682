package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Flowsheet/internal/cache"
	"github.com/shaiso/Flowsheet/internal/domain"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/table"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

type stubFiles struct {
	files map[int64]*domain.File
}

func (s *stubFiles) GetByID(ctx context.Context, userID, id int64) (*domain.File, error) {
	f, ok := s.files[id]
	if !ok || f.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return f, nil
}

type countingLoader struct {
	tables map[string]*table.Table
	sheets []string
	parses int
}

func (l *countingLoader) Parse(path, sheet string) (*table.Table, error) {
	l.parses++
	tbl, ok := l.tables[path]
	if !ok {
		return nil, errors.New("no such table")
	}
	return tbl.Copy(), nil
}

func (l *countingLoader) ListSheets(path string) ([]string, error) {
	if _, ok := l.tables[path]; !ok {
		return nil, errors.New("no such table")
	}
	return l.sheets, nil
}

func fixture(rows int) (*Previewer, *countingLoader, map[string]any) {
	src := table.New("name", "amount")
	for i := 0; i < rows; i++ {
		src.AppendRow([]any{"r", float64(i)})
	}

	loader := &countingLoader{tables: map[string]*table.Table{"/f/1.csv": src}}
	files := &stubFiles{files: map[int64]*domain.File{
		1: {ID: 1, UserID: 7, Path: "/f/1.csv", Size: 100, OriginalFilename: "ledger.csv"},
	}}

	eng := engine.New(transforms.DefaultRegistry(), loader, nil)
	p := NewPreviewer(eng, cache.New(16, time.Minute), files, loader, nil)

	doc := map[string]any{
		"nodes": []any{
			map[string]any{
				"id": "n1",
				"data": map[string]any{
					"blockType":          "append_files",
					"sourceTargets":      []any{map[string]any{"fileId": float64(1)}},
					"destinationTargets": []any{map[string]any{"virtualId": "out"}},
				},
			},
		},
	}
	return p, loader, doc
}

// --- Preview Tests ---

func TestPreview_ExecutesAndCaches(t *testing.T) {
	p, loader, doc := fixture(3)
	ctx := context.Background()
	target := engine.Target{VirtualID: "out"}

	payload, err := p.Preview(ctx, 7, []int64{1}, doc, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RowCount != 3 || len(payload.PreviewRows) != 3 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Key != string(engine.VirtualKey("out")) {
		t.Errorf("unexpected key: %s", payload.Key)
	}
	if loader.parses != 1 {
		t.Fatalf("expected 1 parse, got %d", loader.parses)
	}

	// Повторный запрос — из кэша, без выполнения
	again, err := p.Preview(ctx, 7, []int64{1}, doc, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.parses != 1 {
		t.Errorf("cache hit must not re-execute, parses=%d", loader.parses)
	}
	if again != payload {
		t.Error("cached payload must be returned as-is")
	}
}

func TestPreview_HeadTruncation(t *testing.T) {
	p, _, doc := fixture(35)

	payload, err := p.Preview(context.Background(), 7, []int64{1}, doc, engine.Target{VirtualID: "out"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RowCount != 35 {
		t.Errorf("row count must reflect the full table, got %d", payload.RowCount)
	}
	if len(payload.PreviewRows) != PreviewHead {
		t.Errorf("preview must be truncated to %d rows, got %d", PreviewHead, len(payload.PreviewRows))
	}
	if payload.Dtypes["amount"] != "number" {
		t.Errorf("unexpected dtypes: %v", payload.Dtypes)
	}
}

func TestPreview_FallsBackToLastKey(t *testing.T) {
	p, _, doc := fixture(2)

	// Пустая цель: отдаётся последняя записанная таблица
	payload, err := p.Preview(context.Background(), 7, []int64{1}, doc, engine.Target{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Key != string(engine.VirtualKey("out")) {
		t.Errorf("expected last written key, got %s", payload.Key)
	}
}

func TestPreview_UnknownFile(t *testing.T) {
	p, _, doc := fixture(1)

	_, err := p.Preview(context.Background(), 7, []int64{99}, doc, engine.Target{})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPreview_FileSizeChangeMissesCache(t *testing.T) {
	p, loader, doc := fixture(2)
	ctx := context.Background()
	target := engine.Target{VirtualID: "out"}

	if _, err := p.Preview(ctx, 7, []int64{1}, doc, target); err != nil {
		t.Fatal(err)
	}

	// Перезаливка файла меняет размер — отпечаток другой
	p.files.(*stubFiles).files[1].Size = 101
	if _, err := p.Preview(ctx, 7, []int64{1}, doc, target); err != nil {
		t.Fatal(err)
	}
	if loader.parses != 2 {
		t.Errorf("changed file size must force a recompute, parses=%d", loader.parses)
	}
}

// --- PreviewFile Tests ---

func TestPreviewFile(t *testing.T) {
	p, loader, _ := fixture(3)
	loader.sheets = []string{"Sheet1", "Q2"}

	payload, err := p.PreviewFile(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.FileID != 1 || payload.Filename != "ledger.csv" {
		t.Errorf("unexpected file meta: %+v", payload)
	}
	if payload.RowCount != 3 || len(payload.PreviewRows) != 3 {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if len(payload.Sheets) != 2 || payload.Sheets[1] != "Q2" {
		t.Errorf("unexpected sheets: %v", payload.Sheets)
	}
	if payload.Dtypes["amount"] != "number" {
		t.Errorf("unexpected dtypes: %v", payload.Dtypes)
	}
}

func TestPreviewFile_UnknownFile(t *testing.T) {
	p, _, _ := fixture(1)

	_, err := p.PreviewFile(context.Background(), 7, 99)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- PreviewStep Tests ---

func TestPreviewStep(t *testing.T) {
	p, _, _ := fixture(0)
	registry := transforms.DefaultRegistry()

	payload, err := p.PreviewStep(registry, "filter_rows",
		transforms.Config{"column": "v", "operator": "equals", "value": "keep"},
		[]string{"v"},
		[][]any{{"keep"}, {"drop"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RowCount != 1 || payload.PreviewRows[0][0] != "keep" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestPreviewStep_InvalidConfigReturnsInput(t *testing.T) {
	p, _, _ := fixture(0)
	registry := transforms.DefaultRegistry()

	payload, err := p.PreviewStep(registry, "filter_rows",
		transforms.Config{"column": "missing", "operator": "equals"},
		[]string{"v"},
		[][]any{{"a"}},
	)
	if err != nil {
		t.Fatalf("invalid config must not fail: %v", err)
	}
	if payload.RowCount != 1 {
		t.Errorf("input must pass through unchanged: %+v", payload)
	}
}

func TestPreviewStep_UnknownTransform(t *testing.T) {
	p, _, _ := fixture(0)

	_, err := p.PreviewStep(transforms.DefaultRegistry(), "nope", nil, []string{"v"}, nil)
	if !errors.Is(err, transforms.ErrTransformNotFound) {
		t.Errorf("expected ErrTransformNotFound, got %v", err)
	}
}

// --- Precompute Tests ---

func TestPrecompute_WarmsDeclaredOutputs(t *testing.T) {
	p, loader, doc := fixture(2)
	ctx := context.Background()

	warmed, err := p.Precompute(ctx, 7, []int64{1}, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmed != 1 {
		t.Errorf("expected 1 warmed entry, got %d", warmed)
	}
	if loader.parses != 1 {
		t.Fatalf("expected 1 parse, got %d", loader.parses)
	}

	// Предпросмотр той же цели обслуживается из прогретого кэша
	target := engine.Target{VirtualID: "out"}
	if _, err := p.Preview(ctx, 7, []int64{1}, doc, target); err != nil {
		t.Fatal(err)
	}
	if loader.parses != 1 {
		t.Errorf("warmed preview must not re-execute, parses=%d", loader.parses)
	}
}

func TestPrecompute_WarmsFinalOutputForPlainPreview(t *testing.T) {
	p, loader, _ := fixture(2)
	ctx := context.Background()

	// Редактор помечает выход финальным; клиентский предпросмотр
	// шлёт цель без пометки. Кэш различает таблицы, а не флаги.
	doc := map[string]any{
		"nodes": []any{
			map[string]any{
				"id": "n1",
				"data": map[string]any{
					"blockType":     "append_files",
					"sourceTargets": []any{map[string]any{"fileId": float64(1)}},
					"destinationTargets": []any{
						map[string]any{"virtualId": "out", "isFinalOutput": true},
					},
				},
			},
		},
	}

	warmed, err := p.Precompute(ctx, 7, []int64{1}, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmed != 1 {
		t.Fatalf("expected 1 warmed entry, got %d", warmed)
	}
	if loader.parses != 1 {
		t.Fatalf("expected 1 parse, got %d", loader.parses)
	}

	if _, err := p.Preview(ctx, 7, []int64{1}, doc, engine.Target{VirtualID: "out"}); err != nil {
		t.Fatal(err)
	}
	if loader.parses != 1 {
		t.Errorf("warmed preview must not re-execute, parses=%d", loader.parses)
	}
}

func TestPrecompute_NoOutputs(t *testing.T) {
	p, loader, _ := fixture(0)

	warmed, err := p.Precompute(context.Background(), 7, nil, map[string]any{})
	if err != nil || warmed != 0 {
		t.Errorf("expected no-op, got %d, %v", warmed, err)
	}
	if loader.parses != 0 {
		t.Error("nothing to warm, nothing to execute")
	}
}

// --- Export Tests ---

func exportDoc() map[string]any {
	return map[string]any{
		"nodes": []any{
			map[string]any{
				"id": "n1",
				"data": map[string]any{
					"blockType":          "append_files",
					"sourceTargets":      []any{map[string]any{"fileId": float64(1)}},
					"destinationTargets": []any{map[string]any{"virtualId": "out"}},
				},
			},
			map[string]any{
				"id": "o1",
				"data": map[string]any{
					"blockType": "output",
					"output": map[string]any{
						"outputs": []any{
							map[string]any{
								"id":       "exp1",
								"fileName": "report.xlsx",
								"sheets": []any{
									map[string]any{
										"sheetName":    "Data",
										"sourceTarget": map[string]any{"virtualId": "out"},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestExport_SingleWorkbook(t *testing.T) {
	p, _, _ := fixture(2)

	res, err := p.Export(context.Background(), 7, []int64{1}, exportDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "report.xlsx" || res.ContentType != xlsxContentType {
		t.Errorf("unexpected result meta: %+v", res)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Content))
	if err != nil {
		t.Fatalf("export must be a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Data")
	if err != nil {
		t.Fatalf("sheet Data must exist: %v", err)
	}
	// Заголовок + 2 строки данных
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "name" || rows[0][1] != "amount" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestExport_NoOutputs(t *testing.T) {
	p, _, doc := fixture(1)

	_, err := p.Export(context.Background(), 7, []int64{1}, doc)
	if !errors.Is(err, ErrNoOutputs) {
		t.Errorf("expected ErrNoOutputs, got %v", err)
	}
}
