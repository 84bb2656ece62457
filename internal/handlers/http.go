package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"weaksource/internal/analytics"
	"weaksource/internal/cache"
	"weaksource/internal/metrics"
	"weaksource/internal/models"
	"weaksource/internal/signal"
)

// Источники сканов, метка source в метриках
const (
	SourceDirect   = "direct"
	SourceSimulate = "simulate"
	SourceBatch    = "batch"
)

const (
	defaultAnomalyLimit = 10
	maxAnomalyLimit     = 1000
	storeTimeout        = 5 * time.Second
)

// ScanStore хранилище результатов сканов
type ScanStore interface {
	StoreScan(ctx context.Context, result models.ScanResult) error
	GetScan(ctx context.Context, scanID string) (*models.ScanResult, error)
	GetRecentAnomalies(ctx context.Context, limit int) ([]string, error)
	Ping(ctx context.Context) error
	GetStats() map[string]interface{}
}

// Options параметры по умолчанию для запросов
type Options struct {
	Detector        analytics.Detector
	Generator       signal.Params
	GeneratorLength int
	// MaxSamples ограничение длины последовательности в одном запросе
	MaxSamples int
}

// Handler обработчик HTTP запросов
type Handler struct {
	analyzer *analytics.Analyzer
	store    ScanStore
	opts     Options
	logger   *slog.Logger
	pending  sync.WaitGroup
	newID    func() string
}

// NewHandler создает новый обработчик
func NewHandler(analyzer *analytics.Analyzer, store ScanStore, opts Options, logger *slog.Logger) *Handler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 1_000_000
	}
	return &Handler{
		analyzer: analyzer,
		store:    store,
		opts:     opts,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// NewRouter регистрирует маршруты API
func NewRouter(h *Handler, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/scans", h.SubmitScan).Methods(http.MethodPost)
	r.HandleFunc("/scans/simulate", h.SimulateScan).Methods(http.MethodPost)
	r.HandleFunc("/scans/batch", h.BatchSubmitScans).Methods(http.MethodPost)
	r.HandleFunc("/scans/{id}", h.GetScan).Methods(http.MethodGet)
	r.HandleFunc("/anomalies", h.GetAnomalies).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	if metricsHandler != nil {
		r.Path("/metrics").Handler(metricsHandler)
	}

	return r
}

// Wait ждет завершения фоновых записей в хранилище
func (h *Handler) Wait() {
	h.pending.Wait()
}

// SubmitScan обрабатывает POST /scans
func (h *Handler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if len(req.Samples) > h.opts.MaxSamples {
		http.Error(w, "too many samples", http.StatusRequestEntityTooLarge)
		return
	}

	detector := h.detectorFor(req.WindowSize, req.ThresholdFactor)
	h.detectAndRespond(w, r, SourceDirect, 0, req.Samples, detector)
}

// SimulateScan обрабатывает POST /scans/simulate
func (h *Handler) SimulateScan(w http.ResponseWriter, r *http.Request) {
	var req models.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	length := req.Length
	if length == 0 {
		length = h.opts.GeneratorLength
	}
	if length < 0 || length > h.opts.MaxSamples {
		http.Error(w, "length out of range", http.StatusBadRequest)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	data := h.opts.Generator.Generate(rand.New(rand.NewSource(seed)), length)
	detector := h.detectorFor(req.WindowSize, req.ThresholdFactor)
	h.detectAndRespond(w, r, SourceSimulate, seed, data, detector)
}

// BatchSubmitScans обрабатывает POST /scans/batch
func (h *Handler) BatchSubmitScans(w http.ResponseWriter, r *http.Request) {
	var batch []models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	now := time.Now()
	scanIDs := make([]string, 0, len(batch))

	for _, req := range batch {
		if len(req.Samples) > h.opts.MaxSamples {
			metrics.ScansDropped.Inc()
			h.logger.WarnContext(r.Context(), "batch scan too large", "samples", len(req.Samples), "max_samples", h.opts.MaxSamples)
			continue
		}

		detector := h.detectorFor(req.WindowSize, req.ThresholdFactor)
		job := analytics.ScanJob{
			ScanID:          h.newID(),
			Source:          SourceBatch,
			Samples:         req.Samples,
			WindowSize:      detector.WindowSize,
			ThresholdFactor: detector.ThresholdFactor,
			SubmittedAt:     now,
		}

		if !h.analyzer.Submit(job) {
			metrics.ScansDropped.Inc()
			continue
		}
		scanIDs = append(scanIDs, job.ScanID)
	}

	metrics.QueueSize.Set(float64(h.analyzer.QueueSize()))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"total":    len(batch),
		"accepted": len(scanIDs),
		"scan_ids": scanIDs,
	})
}

// GetScan обрабатывает GET /scans/{id}
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["id"]

	result, err := h.store.GetScan(r.Context(), scanID)
	if errors.Is(err, cache.ErrNotFound) {
		metrics.RedisOperations.WithLabelValues("get_scan", "miss").Inc()
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}
	metrics.RedisOperations.WithLabelValues("get_scan", metrics.RedisStatus(err)).Inc()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get scan failed", "scan_id", scanID, "error", err)
		http.Error(w, "Failed to retrieve scan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetAnomalies обрабатывает GET /anomalies
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	limit := defaultAnomalyLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxAnomalyLimit {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ids, err := h.store.GetRecentAnomalies(r.Context(), limit)
	metrics.RedisOperations.WithLabelValues("get_anomalies", metrics.RedisStatus(err)).Inc()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get anomalies failed", "error", err)
		http.Error(w, "Failed to retrieve anomalies", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"anomaly_count": len(ids),
		"scan_ids":      ids,
	})
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	redisOK := h.store.Ping(r.Context()) == nil

	status := "healthy"
	httpStatus := http.StatusOK

	if !redisOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"redis":     redisOK,
		"timestamp": time.Now(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyzer":  h.analyzer.GetStats(),
		"redis":     h.store.GetStats(),
		"timestamp": time.Now(),
	})
}

// ProcessResults сохраняет результаты пакетного анализа, пока канал открыт
func (h *Handler) ProcessResults(results <-chan analytics.AnalysisResult) {
	for res := range results {
		metrics.QueueSize.Set(float64(h.analyzer.QueueSize()))

		if res.Err != nil {
			metrics.ObserveScanError(res.Source)
			h.logger.Warn("batch scan rejected", "scan_id", res.ScanID, "error", res.Err)
			continue
		}

		result := models.NewScanResult(res.ScanID, res.Source, res.Timestamp, res.Samples, &res.Detector, res.Detection)
		result.Smoothed = nil

		metrics.ObserveScan(res.Source, result.BackgroundLevel, result.AlarmThreshold, len(result.Indices), res.Duration.Seconds())
		h.logDetection(context.Background(), result)
		h.storeResult(context.Background(), result)
	}
}

func (h *Handler) detectAndRespond(w http.ResponseWriter, r *http.Request, source string, seed int64, data []int, detector *analytics.Detector) {
	start := time.Now()

	detection, err := detector.Detect(data)
	if err != nil {
		metrics.ObserveScanError(source)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.ObserveScan(source, detection.BackgroundLevel, detection.AlarmThreshold, len(detection.Indices), time.Since(start).Seconds())

	result := models.NewScanResult(h.newID(), source, start, len(data), detector, detection)
	result.Seed = seed

	stored := result
	stored.Smoothed = nil
	h.logDetection(r.Context(), stored)
	h.storeAsync(stored)

	if r.URL.Query().Get("smoothed") != "true" {
		result.Smoothed = nil
	}

	writeJSON(w, http.StatusOK, result)
}

// storeAsync сохраняет результат, не блокируя ответ
func (h *Handler) storeAsync(result models.ScanResult) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.storeResult(context.Background(), result)
	}()
}

func (h *Handler) storeResult(ctx context.Context, result models.ScanResult) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err := h.store.StoreScan(ctx, result)
	metrics.RedisOperations.WithLabelValues("store_scan", metrics.RedisStatus(err)).Inc()
	if err != nil {
		h.logger.Warn("store scan failed", "scan_id", result.ScanID, "error", err)
	}
}

func (h *Handler) logDetection(ctx context.Context, result models.ScanResult) {
	if !result.IsAnomaly {
		h.logger.DebugContext(ctx, "scan clean", "scan_id", result.ScanID, "source", result.Source)
		return
	}
	h.logger.InfoContext(ctx, "anomaly detected",
		"scan_id", result.ScanID,
		"source", result.Source,
		"points", len(result.Indices),
		"bands", len(result.Bands),
		"background", result.BackgroundLevel,
		"threshold", result.AlarmThreshold,
	)
}

// detectorFor детектор с параметрами запроса поверх значений по умолчанию
func (h *Handler) detectorFor(windowSize int, factor float64) *analytics.Detector {
	d := h.opts.Detector
	if windowSize != 0 {
		d.WindowSize = windowSize
	}
	if factor != 0 {
		d.ThresholdFactor = factor
	}
	return &d
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
