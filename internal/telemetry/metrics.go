package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики выполнения flows и кэша превью.
var (
	// ExecutionsTotal — количество выполненных flows.
	ExecutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_executions_total",
		Help: "Total flow executions",
	})

	// ExecutionErrors — количество выполнений, завершившихся ошибкой.
	ExecutionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_execution_errors_total",
		Help: "Total flow executions that failed",
	})

	// CacheHits — попадания в кэш превью.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_preview_cache_hits_total",
		Help: "Preview cache hits",
	})

	// CacheMisses — промахи кэша превью.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_preview_cache_misses_total",
		Help: "Preview cache misses",
	})

	// SweptFiles — количество файлов, удалённых фоновой очисткой.
	SweptFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsheet_swept_files_total",
		Help: "Orphaned files deleted by the background sweeper",
	})
)
