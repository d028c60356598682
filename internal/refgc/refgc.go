package refgc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Flowsheet/internal/domain"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/storage"
	"github.com/shaiso/Flowsheet/internal/telemetry"
)

// FileStore — записи о файлах.
type FileStore interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.File, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.File, error)
	ListByBatch(ctx context.Context, userID, batchID int64) ([]domain.File, error)
	ListUsers(ctx context.Context) ([]int64, error)
	Delete(ctx context.Context, userID, id int64) error
}

// FlowStore — записи о flows.
type FlowStore interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.Flow, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Flow, error)
	UpdateDocument(ctx context.Context, userID, id int64, document map[string]any) error
	Delete(ctx context.Context, userID, id int64) error
}

// BatchStore — записи о batches.
type BatchStore interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.FileBatch, error)
	ListByFlow(ctx context.Context, userID, flowID int64) ([]domain.FileBatch, error)
	Delete(ctx context.Context, userID, id int64) error
}

// BlobStore — байты файлов на диске.
type BlobStore interface {
	Delete(userID int64, filename string) error
}

// Report — итог каскадного удаления.
// Счётчики позволяют отличить "ничего не сделано" от
// "вычищено частично".
type Report struct {
	FilesDeleted   int `json:"files_deleted"`
	BatchesDeleted int `json:"batches_deleted"`
	FlowsUpdated   int `json:"flows_updated"`
}

// Collector находит и удаляет файлы-сироты.
type Collector struct {
	files   FileStore
	flows   FlowStore
	batches BatchStore
	blobs   BlobStore
	logger  *slog.Logger
}

// New создаёт сборщик.
func New(files FileStore, flows FlowStore, batches BatchStore, blobs BlobStore, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		files:   files,
		flows:   flows,
		batches: batches,
		blobs:   blobs,
		logger:  logger,
	}
}

// IsReferenced сообщает, ссылается ли на файл хоть один flow
// пользователя. excludingFlowID исключает flow из проверки
// (0 — не исключать никого).
func (c *Collector) IsReferenced(ctx context.Context, userID, fileID, excludingFlowID int64) (bool, error) {
	flows, err := c.flows.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list flows: %w", err)
	}
	for i := range flows {
		if flows[i].ID == excludingFlowID {
			continue
		}
		if _, ok := engine.ExtractFileIDs(flows[i].Document)[fileID]; ok {
			return true, nil
		}
	}
	return false, nil
}

// OrphanedFiles возвращает файлы пользователя, на которые не
// ссылается ни один его flow.
func (c *Collector) OrphanedFiles(ctx context.Context, userID int64) ([]domain.File, error) {
	flows, err := c.flows.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	referenced := make(map[int64]bool)
	for i := range flows {
		for id := range engine.ExtractFileIDs(flows[i].Document) {
			referenced[id] = true
		}
	}

	files, err := c.files.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var orphans []domain.File
	for _, f := range files {
		if !referenced[f.ID] {
			orphans = append(orphans, f)
		}
	}
	return orphans, nil
}

// FlowUpdated вычищает файлы, которые правка flow перестала
// упоминать. Вызывается после записи нового документа; сам flow
// исключается из проверки ссылок, потому что в нём уже новый
// документ. Возвращает число удалённых файлов.
func (c *Collector) FlowUpdated(ctx context.Context, userID, flowID int64, oldDoc, newDoc map[string]any) (int, error) {
	oldIDs := engine.ExtractFileIDs(oldDoc)
	newIDs := engine.ExtractFileIDs(newDoc)

	deleted := 0
	for id := range oldIDs {
		if _, kept := newIDs[id]; kept {
			continue
		}
		used, err := c.IsReferenced(ctx, userID, id, flowID)
		if err != nil {
			return deleted, err
		}
		if used {
			continue
		}
		if err := c.deleteFileByID(ctx, userID, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteFlow удаляет flow и каскадно вычищает его файлы и batches.
//
// Порядок важен: сначала снимается строка flow, потом перепроверяются
// ссылки — удаляемый flow не должен сам "держать" свои файлы живыми.
// Batches с flow_id этого flow удаляются безусловно; остальные
// затронутые batches — только если все их файлы остались без ссылок.
func (c *Collector) DeleteFlow(ctx context.Context, userID, flowID int64) (*Report, error) {
	flow, err := c.flows.GetByID(ctx, userID, flowID)
	if err != nil {
		return nil, err
	}

	// Снимок ссылок и затронутых batches до удаления строки flow
	fileIDs := engine.ExtractFileIDs(flow.Document)
	captured := make([]*domain.File, 0, len(fileIDs))
	touchedBatches := make(map[int64]bool)
	for id := range fileIDs {
		f, err := c.files.GetByID(ctx, userID, id)
		if errors.Is(err, repo.ErrNotFound) {
			// Документ может ссылаться на уже удалённый файл
			continue
		}
		if err != nil {
			return nil, err
		}
		captured = append(captured, f)
		if f.BatchID != 0 {
			touchedBatches[f.BatchID] = true
		}
	}

	owned, err := c.batches.ListByFlow(ctx, userID, flowID)
	if err != nil {
		return nil, err
	}

	if err := c.flows.Delete(ctx, userID, flowID); err != nil {
		return nil, err
	}

	report := &Report{}

	// Flow-owned batches уходят вместе с flow, даже если их файлы
	// ещё нужны кому-то: удаляется только запись о группе
	for _, b := range owned {
		delete(touchedBatches, b.ID)
		if err := c.deleteBatchRecord(ctx, userID, b.ID, report); err != nil {
			return report, err
		}
	}

	for batchID := range touchedBatches {
		stillUsed, err := c.batchStillReferenced(ctx, userID, batchID)
		if err != nil {
			return report, err
		}
		if stillUsed {
			continue
		}
		if err := c.deleteBatchRecord(ctx, userID, batchID, report); err != nil {
			return report, err
		}
	}

	for _, f := range captured {
		used, err := c.IsReferenced(ctx, userID, f.ID, 0)
		if err != nil {
			return report, err
		}
		if used {
			continue
		}
		if err := c.deleteFile(ctx, f); err != nil {
			return report, err
		}
		report.FilesDeleted++
	}

	return report, nil
}

// DeleteFile удаляет файл явно: сначала вычищает его id из всех
// flows пользователя, затем убирает байты и запись.
func (c *Collector) DeleteFile(ctx context.Context, userID, fileID int64) (*Report, error) {
	f, err := c.files.GetByID(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if err := c.stripFromFlows(ctx, userID, fileID, report); err != nil {
		return report, err
	}

	if err := c.deleteFile(ctx, f); err != nil {
		return report, err
	}
	report.FilesDeleted++
	return report, nil
}

// DeleteBatch удаляет batch вместе с файлами. Удаление файлов —
// по одному и до конца: ожидаемый сбой на одном файле не
// останавливает остальные.
func (c *Collector) DeleteBatch(ctx context.Context, userID, batchID int64) (*Report, error) {
	if _, err := c.batches.GetByID(ctx, userID, batchID); err != nil {
		return nil, err
	}

	files, err := c.files.ListByBatch(ctx, userID, batchID)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for i := range files {
		f := &files[i]
		if err := c.stripFromFlows(ctx, userID, f.ID, report); err != nil {
			return report, err
		}
		if err := c.deleteFile(ctx, f); err != nil {
			if !expected(err) {
				return report, err
			}
			c.logger.Warn("skipping file during batch delete",
				"file_id", f.ID,
				"error", err,
			)
			continue
		}
		report.FilesDeleted++
	}

	if err := c.deleteBatchRecord(ctx, userID, batchID, report); err != nil {
		return report, err
	}
	return report, nil
}

// Sweep проходит по всем пользователям и удаляет файлы-сироты.
// Идемпотентен: уже исчезнувший файл — успех, не ошибка.
func (c *Collector) Sweep(ctx context.Context) (int, error) {
	users, err := c.files.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	swept := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		orphans, err := c.OrphanedFiles(ctx, userID)
		if err != nil {
			return swept, err
		}
		for i := range orphans {
			if err := c.deleteFile(ctx, &orphans[i]); err != nil {
				if !expected(err) {
					return swept, err
				}
				continue
			}
			swept++
			telemetry.SweptFiles.Inc()
		}
	}
	return swept, nil
}

// stripFromFlows вычищает id файла из документов всех flows
// пользователя.
func (c *Collector) stripFromFlows(ctx context.Context, userID, fileID int64, report *Report) error {
	flows, err := c.flows.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list flows: %w", err)
	}
	for i := range flows {
		newDoc, changed := engine.RemoveFileID(flows[i].Document, fileID)
		if !changed {
			continue
		}
		if err := c.flows.UpdateDocument(ctx, userID, flows[i].ID, newDoc); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// Flow удалили параллельно — вычищать больше нечего
				continue
			}
			return err
		}
		report.FlowsUpdated++
	}
	return nil
}

// batchStillReferenced сообщает, ссылается ли хоть один оставшийся
// flow на хоть один файл batch.
func (c *Collector) batchStillReferenced(ctx context.Context, userID, batchID int64) (bool, error) {
	files, err := c.files.ListByBatch(ctx, userID, batchID)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		used, err := c.IsReferenced(ctx, userID, f.ID, 0)
		if err != nil {
			return false, err
		}
		if used {
			return true, nil
		}
	}
	return false, nil
}

func (c *Collector) deleteBatchRecord(ctx context.Context, userID, batchID int64, report *Report) error {
	if err := c.batches.Delete(ctx, userID, batchID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	report.BatchesDeleted++
	return nil
}

func (c *Collector) deleteFileByID(ctx context.Context, userID, id int64) error {
	f, err := c.files.GetByID(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.deleteFile(ctx, f)
}

// deleteFile убирает байты с диска и запись из БД.
// Уже пропавшие байты — ожидаемый исход, не ошибка.
func (c *Collector) deleteFile(ctx context.Context, f *domain.File) error {
	if err := c.blobs.Delete(f.UserID, f.Filename); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete blob %s: %w", f.Filename, err)
		}
		c.logger.Warn("blob already gone", "file_id", f.ID, "filename", f.Filename)
	}
	if err := c.files.Delete(ctx, f.UserID, f.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete file record %d: %w", f.ID, err)
	}
	return nil
}

// expected отличает нормальные исходы каскада от сбоев.
func expected(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, storage.ErrNotFound)
}
