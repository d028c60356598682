package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCronExpr — расписание уборки по умолчанию: каждые шесть часов.
const DefaultCronExpr = "0 */6 * * *"

// Sweeper — уборка файлов-сирот (internal/refgc).
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler по расписанию запускает уборку.
type Scheduler struct {
	sweeper  Sweeper
	cronExpr string
	logger   *slog.Logger

	// now подменяется в тестах.
	now func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Sweeper  Sweeper
	CronExpr string // cron-выражение (default: DefaultCronExpr)
	Logger   *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) (*Scheduler, error) {
	cronExpr := cfg.CronExpr
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}
	if err := ValidateCronExpr(cronExpr); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		sweeper:  cfg.Sweeper,
		cronExpr: cronExpr,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run крутит цикл до отмены контекста: ждёт следующего срабатывания
// cron-выражения и выполняет Tick. Ошибка одного тика не
// останавливает цикл.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("sweep scheduler started", "cron", s.cronExpr)

	for {
		next, err := NextAfter(s.cronExpr, s.now())
		if err != nil {
			return err
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweep scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.Tick(ctx); err != nil {
			s.logger.Error("sweep tick failed", "error", err)
		}
	}
}

// Tick выполняет одну уборку.
func (s *Scheduler) Tick(ctx context.Context) error {
	started := s.now()
	swept, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	s.logger.Info("sweep completed",
		"swept", swept,
		"took", time.Since(started),
	)
	return nil
}
