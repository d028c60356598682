package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shaiso/Flowsheet/internal/domain"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/mq"
	"github.com/shaiso/Flowsheet/internal/repo"
)

const defaultPrefetch = 5

// Precomputer — прогрев кэша предпросмотров (internal/service).
type Precomputer interface {
	Precompute(ctx context.Context, userID int64, fileIDs []int64, doc map[string]any) (int, error)
}

// FlowStore — доступ к flows.
type FlowStore interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.Flow, error)
}

// Worker потребляет задания на прогрев и выполняет их.
type Worker struct {
	previewer Precomputer
	flows     FlowStore
	conn      *mq.Connection
	consumer  *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Previewer Precomputer
	Flows     FlowStore
	Conn      *mq.Connection
	Logger    *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		previewer: cfg.Previewer,
		flows:     cfg.Flows,
		conn:      cfg.Conn,
		logger:    logger,
	}
}

// Start запускает потребление заданий.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueuePreviewsPending),
		Handler:  w.handlePrecompute,
		Prefetch: defaultPrefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("precompute consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// handlePrecompute обрабатывает одно задание на прогрев.
func (w *Worker) handlePrecompute(ctx context.Context, d *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.PrecomputePayload](&d.Message)
	if err != nil {
		return fmt.Errorf("parse precompute payload: %w", err)
	}

	flow, err := w.flows.GetByID(ctx, payload.UserID, payload.FlowID)
	if errors.Is(err, repo.ErrNotFound) {
		// Flow удалили раньше, чем дошли руки — прогревать нечего
		w.logger.Info("flow gone before precompute",
			"user_id", payload.UserID,
			"flow_id", payload.FlowID,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load flow %d: %w", payload.FlowID, err)
	}

	fileIDs := sortedFileIDs(flow.Document)
	warmed, err := w.previewer.Precompute(ctx, payload.UserID, fileIDs, flow.Document)
	if err != nil {
		return fmt.Errorf("precompute flow %d: %w", payload.FlowID, err)
	}

	w.logger.Info("precompute done",
		"user_id", payload.UserID,
		"flow_id", payload.FlowID,
		"warmed", warmed,
	)
	return nil
}

func sortedFileIDs(doc map[string]any) []int64 {
	set := engine.ExtractFileIDs(doc)
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
