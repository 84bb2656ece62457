package analytics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ScanJob задание на анализ одной последовательности
type ScanJob struct {
	ScanID          string
	Source          string
	Samples         []int
	WindowSize      int
	ThresholdFactor float64
	SubmittedAt     time.Time
}

// AnalysisResult результат анализа задания
type AnalysisResult struct {
	ScanID    string
	Source    string
	Timestamp time.Time
	Samples   int
	Detector  Detector
	Detection *DetectionResult
	Err       error
	Duration  time.Duration
}

// Analyzer пул воркеров, прогоняющих детектор по заданиям из очереди
type Analyzer struct {
	backgroundSamples int
	jobsChan          chan ScanJob
	resultsChan       chan AnalysisResult
	stopChan          chan struct{}
	wg                sync.WaitGroup
	stopOnce          sync.Once

	processed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewAnalyzer создает анализатор с очередью заданной длины
func NewAnalyzer(backgroundSamples, queueSize int) *Analyzer {
	if backgroundSamples < 1 {
		backgroundSamples = DefaultBackgroundSamples
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Analyzer{
		backgroundSamples: backgroundSamples,
		jobsChan:          make(chan ScanJob, queueSize),
		resultsChan:       make(chan AnalysisResult, queueSize),
		stopChan:          make(chan struct{}),
	}
}

// Start запускает обработчики в goroutines
func (a *Analyzer) Start(workers int) {
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.processJobs()
	}
}

// Stop останавливает анализатор и закрывает канал результатов.
// Воркеры дообрабатывают очередь; задания, которые некому обработать,
// учитываются как отброшенные.
func (a *Analyzer) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.wg.Wait()
		a.dropped.Add(int64(a.discardQueued()))
		close(a.resultsChan)
	})
}

// discardQueued опустошает очередь и возвращает число выброшенных заданий
func (a *Analyzer) discardQueued() int {
	n := 0
	for {
		select {
		case <-a.jobsChan:
			n++
		default:
			return n
		}
	}
}

// Submit ставит задание в очередь. false, если очередь переполнена
// или анализатор остановлен.
func (a *Analyzer) Submit(job ScanJob) bool {
	select {
	case <-a.stopChan:
		a.dropped.Add(1)
		return false
	default:
	}

	select {
	case a.jobsChan <- job:
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// GetResultsChan возвращает канал с результатами
func (a *Analyzer) GetResultsChan() <-chan AnalysisResult {
	return a.resultsChan
}

// QueueSize текущая длина очереди
func (a *Analyzer) QueueSize() int {
	return len(a.jobsChan)
}

// processJobs обрабатывает задания из канала
func (a *Analyzer) processJobs() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopChan:
			a.drain()
			return
		case job := <-a.jobsChan:
			a.resultsChan <- a.Analyze(job)
		}
	}
}

// drain обрабатывает задания, оставшиеся в очереди после остановки
func (a *Analyzer) drain() {
	for {
		select {
		case job := <-a.jobsChan:
			a.resultsChan <- a.Analyze(job)
		default:
			return
		}
	}
}

// Analyze синхронно прогоняет детектор по заданию
func (a *Analyzer) Analyze(job ScanJob) AnalysisResult {
	start := time.Now()

	detector := Detector{
		WindowSize:        job.WindowSize,
		ThresholdFactor:   job.ThresholdFactor,
		BackgroundSamples: a.backgroundSamples,
	}
	detection, err := detector.Detect(job.Samples)

	a.processed.Add(1)
	if err != nil {
		a.failed.Add(1)
	}

	ts := job.SubmittedAt
	if ts.IsZero() {
		ts = start
	}

	return AnalysisResult{
		ScanID:    job.ScanID,
		Source:    job.Source,
		Timestamp: ts,
		Samples:   len(job.Samples),
		Detector:  detector,
		Detection: detection,
		Err:       err,
		Duration:  time.Since(start),
	}
}

// calculateAverage вычисляет среднее значение
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// GetStats возвращает статистику анализатора
func (a *Analyzer) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"background_samples": a.backgroundSamples,
		"queue_size":         len(a.jobsChan),
		"queue_capacity":     cap(a.jobsChan),
		"processed":          a.processed.Load(),
		"failed":             a.failed.Load(),
		"dropped":            a.dropped.Load(),
	}
}
