package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ScansProcessed обработанные сканы по источнику и исходу
	ScansProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_processed_total",
			Help: "Total number of processed scans",
		},
		[]string{"source", "outcome"},
	)

	// AnomalousPoints точки выше порога тревоги
	AnomalousPoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anomalous_points_total",
			Help: "Total number of smoothed points above the alarm threshold",
		},
	)

	// BackgroundLevel фон последнего скана
	BackgroundLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_background_level",
			Help: "Background level of the most recent scan",
		},
	)

	// AlarmThreshold порог последнего скана
	AlarmThreshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_alarm_threshold",
			Help: "Alarm threshold of the most recent scan",
		},
	)

	// AnalysisLatency задержка анализа
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Detection latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// QueueSize размер очереди обработки
	QueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "processing_queue_size",
			Help: "Current size of the batch processing queue",
		},
	)

	// ScansDropped сканы, не попавшие в очередь или не обработанные до остановки
	ScansDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scans_dropped_total",
			Help: "Total number of batch scans dropped: queue full, too large or left unprocessed at shutdown",
		},
	)

	// RedisOperations операции с Redis
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)
)

// ObserveScan обновляет метрики по результату одного скана
func ObserveScan(source string, background, threshold float64, anomalies int, seconds float64) {
	outcome := "clean"
	if anomalies > 0 {
		outcome = "anomaly"
	}

	ScansProcessed.WithLabelValues(source, outcome).Inc()
	AnomalousPoints.Add(float64(anomalies))
	BackgroundLevel.Set(background)
	AlarmThreshold.Set(threshold)
	AnalysisLatency.Observe(seconds)
}

// ObserveScanError учитывает скан, отклоненный детектором
func ObserveScanError(source string) {
	ScansProcessed.WithLabelValues(source, "error").Inc()
}

// RedisStatus метка статуса операции с Redis
func RedisStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
