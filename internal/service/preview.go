package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Flowsheet/internal/cache"
	"github.com/shaiso/Flowsheet/internal/domain"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/table"
	"github.com/shaiso/Flowsheet/internal/telemetry"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

// PreviewHead — сколько строк уходит в предпросмотр.
const PreviewHead = 20

// FileStore — доступ к метаданным файлов.
type FileStore interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.File, error)
}

// PreviewPayload — результат предпросмотра одной таблицы.
type PreviewPayload struct {
	Key         string            `json:"key"`
	Columns     []string          `json:"columns"`
	RowCount    int               `json:"row_count"`
	PreviewRows [][]any           `json:"preview_rows"`
	Dtypes      map[string]string `json:"dtypes"`
}

// Previewer выполняет flow и отдаёт предпросмотр запрошенной таблицы,
// пряча повторные запросы за кэшем результатов.
type Previewer struct {
	engine *engine.Engine
	cache  *cache.Cache
	files  FileStore
	loader engine.Loader
	logger *slog.Logger
}

// NewPreviewer создаёт сервис предпросмотра.
func NewPreviewer(eng *engine.Engine, c *cache.Cache, files FileStore, ld engine.Loader, logger *slog.Logger) *Previewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Previewer{
		engine: eng,
		cache:  c,
		files:  files,
		loader: ld,
		logger: logger,
	}
}

// Preview выполняет документ и возвращает предпросмотр таблицы
// по цели target. Пустая цель означает "последняя записанная
// таблица"; если и её нет — пустой предпросмотр.
func (p *Previewer) Preview(ctx context.Context, userID int64, fileIDs []int64, doc map[string]any, target engine.Target) (*PreviewPayload, error) {
	paths, stats, err := p.resolveFiles(ctx, userID, fileIDs)
	if err != nil {
		return nil, err
	}

	fp, err := cache.Fingerprint(userID, stats, doc, cacheTarget(target))
	if err != nil {
		return nil, err
	}
	if v, ok := p.cache.Get(fp); ok {
		telemetry.CacheHits.Inc()
		return v.(*PreviewPayload), nil
	}
	telemetry.CacheMisses.Inc()

	result, err := p.execute(ctx, paths, doc)
	if err != nil {
		return nil, err
	}

	key, tbl := pickTable(result, target)
	payload := buildPayload(key, tbl)
	p.cache.Set(fp, payload)
	return payload, nil
}

// FilePreviewPayload — предпросмотр загруженного файла.
type FilePreviewPayload struct {
	FileID      int64             `json:"file_id"`
	Filename    string            `json:"filename"`
	Columns     []string          `json:"columns"`
	RowCount    int               `json:"row_count"`
	PreviewRows [][]any           `json:"preview_rows"`
	Dtypes      map[string]string `json:"dtypes"`
	Sheets      []string          `json:"sheets"`
}

// PreviewFile читает файл напрямую, без выполнения flow: шапка листа
// по умолчанию плюс список листов книги (пустой для CSV).
func (p *Previewer) PreviewFile(ctx context.Context, userID, id int64) (*FilePreviewPayload, error) {
	f, err := p.files.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	sheets, err := p.loader.ListSheets(f.Path)
	if err != nil {
		return nil, fmt.Errorf("list sheets of file %d: %w", id, err)
	}
	tbl, err := p.loader.Parse(f.Path, "")
	if err != nil {
		return nil, fmt.Errorf("parse file %d: %w", id, err)
	}

	head := buildPayload("", tbl)
	return &FilePreviewPayload{
		FileID:      f.ID,
		Filename:    f.OriginalFilename,
		Columns:     head.Columns,
		RowCount:    head.RowCount,
		PreviewRows: head.PreviewRows,
		Dtypes:      head.Dtypes,
		Sheets:      sheets,
	}, nil
}

// PreviewStep прогоняет одно преобразование по присланным строкам,
// не трогая файлы и кэш. Нужен редактору: мгновенный отклик на
// правку конфигурации узла.
func (p *Previewer) PreviewStep(registry *transforms.Registry, blockType string, cfg transforms.Config, columns []string, rows [][]any) (*PreviewPayload, error) {
	tr, err := registry.Get(blockType)
	if err != nil {
		return nil, err
	}

	t := table.New(columns...)
	for _, row := range rows {
		t.AppendRow(row)
	}

	// Невалидная конфигурация — не ошибка: узел был бы пропущен,
	// предпросмотр показывает вход без изменений
	if !tr.Validate(t, cfg) {
		return buildPayload("", t), nil
	}

	out, err := transforms.Preview(tr, t, cfg, PreviewHead)
	if err != nil {
		return nil, err
	}
	return buildPayload("", out), nil
}

func (p *Previewer) execute(ctx context.Context, paths map[int64]string, doc map[string]any) (*engine.Result, error) {
	telemetry.ExecutionsTotal.Inc()
	result, err := p.engine.Execute(ctx, paths, doc)
	if err != nil {
		telemetry.ExecutionErrors.Inc()
		return nil, err
	}
	return result, nil
}

// resolveFiles собирает пути и отпечатки входных файлов.
// Неизвестный id — ошибка вызывающего, ничего не выполняется.
func (p *Previewer) resolveFiles(ctx context.Context, userID int64, fileIDs []int64) (map[int64]string, []cache.FileStat, error) {
	paths := make(map[int64]string, len(fileIDs))
	stats := make([]cache.FileStat, 0, len(fileIDs))
	for _, id := range fileIDs {
		f, err := p.files.GetByID(ctx, userID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve file %d: %w", id, err)
		}
		paths[f.ID] = f.Path
		stats = append(stats, cache.FileStat{ID: f.ID, Size: f.Size})
	}
	return paths, stats, nil
}

// cacheTarget приводит цель к ключу таблицы для отпечатка.
// В отпечатке важна сама таблица, а не способ, которым редактор на
// неё сослался: прогрев по объявленному выходу и предпросмотр той же
// таблицы клиентом должны совпасть.
func cacheTarget(target engine.Target) string {
	if target.IsZero() {
		return ""
	}
	return string(target.Key())
}

// pickTable выбирает таблицу предпросмотра: запрошенная цель,
// иначе последняя записанная, иначе ничего.
func pickTable(result *engine.Result, target engine.Target) (engine.TableKey, *table.Table) {
	if !target.IsZero() {
		key := target.Key()
		if tbl, ok := result.Tables[key]; ok {
			return key, tbl
		}
	}
	if result.LastKey != "" {
		if tbl, ok := result.Tables[result.LastKey]; ok {
			return result.LastKey, tbl
		}
	}
	return "", nil
}

func buildPayload(key engine.TableKey, t *table.Table) *PreviewPayload {
	if t == nil {
		t = table.Empty()
	}
	head := t.Head(PreviewHead)
	rows := make([][]any, len(head.Rows))
	for i, row := range head.Rows {
		rows[i] = append([]any(nil), row...)
	}
	return &PreviewPayload{
		Key:         string(key),
		Columns:     append([]string(nil), t.Columns...),
		RowCount:    t.RowCount(),
		PreviewRows: rows,
		Dtypes:      t.Kinds(),
	}
}
