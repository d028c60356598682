// Flowsheet Sweeper — периодическая уборка файлов-сирот.
//
// Sweeper по cron-расписанию обходит всех пользователей и удаляет
// файлы, на которые не ссылается ни один flow-документ. Лидерство
// обеспечивается advisory-lock в Postgres: при нескольких экземплярах
// уборку выполняет один.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Flowsheet/internal/refgc"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/scheduler"
	"github.com/shaiso/Flowsheet/internal/storage"
	"github.com/shaiso/Flowsheet/internal/telemetry"
)

const sweepLockKey int64 = 515151

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowsheet-sweeper")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Локальное хранилище загруженных файлов
	storageRoot := os.Getenv("STORAGE_DIR")
	if storageRoot == "" {
		storageRoot = "./uploads"
	}
	blobs, err := storage.NewLocal(storageRoot)
	if err != nil {
		logger.Error("failed to init storage", "error", err, "root", storageRoot)
		os.Exit(1)
	}

	// Сборщик файловых ссылок
	collector := refgc.New(
		repo.NewFileRepo(pool),
		repo.NewFlowRepo(pool),
		repo.NewBatchRepo(pool),
		blobs,
		logger,
	)

	sched, err := scheduler.New(scheduler.Config{
		Sweeper:  collector,
		CronExpr: os.Getenv("SWEEP_CRON"),
		Logger:   logger,
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SWEEP_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// sweep loop: сначала становимся лидером, потом крутим расписание
	go func() {
		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", sweepLockKey)
			}
		}()

		tk := time.NewTicker(5 * time.Second)
		defer tk.Stop()

		for !hasLock {
			select {
			case <-tk.C:
				if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", sweepLockKey).Scan(&hasLock); err != nil {
					logger.Warn("advisory lock attempt failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
		logger.Info("acquired sweep leadership")

		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler stopped", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("flowsheet-sweeper stopped")
}
