// Flowsheet Worker — фоновый прогрев кэша результатов.
//
// Worker:
//   - Получает задания preview.precompute из RabbitMQ
//   - Перечитывает flow из БД и выполняет документ
//   - Кладёт результаты выходов в кэш API через общий отпечаток
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Flowsheet/internal/cache"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/loader"
	"github.com/shaiso/Flowsheet/internal/mq"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/service"
	"github.com/shaiso/Flowsheet/internal/telemetry"
	"github.com/shaiso/Flowsheet/internal/transforms"
	"github.com/shaiso/Flowsheet/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowsheet-worker")

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

	// Создаём репозитории
	fileRepo := repo.NewFileRepo(pool)
	flowRepo := repo.NewFlowRepo(pool)

	// RabbitMQ обязателен: без очереди worker бесполезен.
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию
	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Движок и previewer с собственным кэшем процесса
	registry := transforms.DefaultRegistry()
	files := loader.New()
	eng := engine.New(registry, files, logger)
	previewer := service.NewPreviewer(eng, cache.New(cache.DefaultMaxEntries, cache.DefaultTTL), fileRepo, files, logger)

	// Создаём worker
	w := worker.New(worker.Config{
		Previewer: previewer,
		Flows:     flowRepo,
		Conn:      mqConn,
		Logger:    logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("flowsheet-worker stopped")
}
