package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shaiso/Flowsheet/internal/mq"
	"github.com/shaiso/Flowsheet/internal/refgc"
	"github.com/shaiso/Flowsheet/internal/repo"
	"github.com/shaiso/Flowsheet/internal/service"
	"github.com/shaiso/Flowsheet/internal/storage"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	fileRepo  *repo.FileRepo
	flowRepo  *repo.FlowRepo
	batchRepo *repo.BatchRepo
	storage   *storage.Local
	previewer *service.Previewer
	collector *refgc.Collector
	registry  *transforms.Registry
	publisher *mq.Publisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	FileRepo  *repo.FileRepo
	FlowRepo  *repo.FlowRepo
	BatchRepo *repo.BatchRepo
	Storage   *storage.Local
	Previewer *service.Previewer
	Collector *refgc.Collector
	Registry  *transforms.Registry

	// Publisher опционален: без него прогрев после сохранения flow
	// просто не публикуется.
	Publisher *mq.Publisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	registry := cfg.Registry
	if registry == nil {
		registry = transforms.DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		fileRepo:  cfg.FileRepo,
		flowRepo:  cfg.FlowRepo,
		batchRepo: cfg.BatchRepo,
		storage:   cfg.Storage,
		previewer: cfg.Previewer,
		collector: cfg.Collector,
		registry:  registry,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// userID извлекает пользователя из заголовка X-User-ID.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pathID разбирает числовой параметр пути.
func pathID(r *http.Request, name string) (int64, bool) {
	return parseID(r.PathValue(name))
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
