package service

import (
	"context"

	"github.com/shaiso/Flowsheet/internal/cache"
	"github.com/shaiso/Flowsheet/internal/engine"
)

// Precompute выполняет flow один раз и прогревает кэш для каждого
// объявленного выхода. Возвращает число прогретых записей.
//
// Прогрев запускается после сохранения flow: первый предпросмотр
// после правки попадает в кэш, а не ждёт выполнения.
func (p *Previewer) Precompute(ctx context.Context, userID int64, fileIDs []int64, doc map[string]any) (int, error) {
	paths, stats, err := p.resolveFiles(ctx, userID, fileIDs)
	if err != nil {
		return 0, err
	}

	outputs := engine.ListOutputs(doc)
	if len(outputs) == 0 {
		return 0, nil
	}

	result, err := p.execute(ctx, paths, doc)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, out := range outputs {
		tbl, ok := result.Tables[out.Key]
		if !ok {
			// Выход объявлен, но ни один узел в него не записал
			continue
		}

		fp, err := cache.Fingerprint(userID, stats, doc, string(out.Key))
		if err != nil {
			return warmed, err
		}
		p.cache.Set(fp, buildPayload(out.Key, tbl))
		warmed++
	}

	p.logger.Info("precompute finished",
		"user_id", userID,
		"outputs", len(outputs),
		"warmed", warmed,
	)
	return warmed, nil
}
