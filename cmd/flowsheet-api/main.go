package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Flowsheet/internal/api"
	"github.com/shaiso/Flowsheet/internal/cache"
	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/loader"
	"github.com/shaiso/Flowsheet/internal/mq"
	"github.com/shaiso/Flowsheet/internal/refgc"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/service"
	"github.com/shaiso/Flowsheet/internal/storage"
	"github.com/shaiso/Flowsheet/internal/telemetry"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_api_http_requests_total",
		Help: "Total HTTP requests handled by flowsheet_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowsheet-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	fileRepo := repo.NewFileRepo(pool)
	flowRepo := repo.NewFlowRepo(pool)
	batchRepo := repo.NewBatchRepo(pool)

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

	// Движок выполнения и кэш результатов
	registry := transforms.DefaultRegistry()
	files := loader.New()
	eng := engine.New(registry, files, logger)
	previewer := service.NewPreviewer(eng, cache.New(cacheMax(), cacheTTL()), fileRepo, files, logger)

	// Сборщик файловых ссылок
	collector := refgc.New(fileRepo, flowRepo, batchRepo, blobs, logger)

	// RabbitMQ опционален: без него прогрев после сохранения flow
	// просто не публикуется.
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, precompute disabled", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(context.Background(), mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
		logger.Info("RabbitMQ connected")
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		FileRepo:  fileRepo,
		FlowRepo:  flowRepo,
		BatchRepo: batchRepo,
		Storage:   blobs,
		Previewer: previewer,
		Collector: collector,
		Registry:  registry,
		Publisher: publisher,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

func cacheMax() int {
	if v := os.Getenv("CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return cache.DefaultMaxEntries
}

func cacheTTL() time.Duration {
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return cache.DefaultTTL
}
