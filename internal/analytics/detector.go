package analytics

import (
	"errors"
	"fmt"
	"math"
)

// Параметры детектора по умолчанию
const (
	DefaultWindowSize        = 15
	DefaultThresholdFactor   = 1.6
	DefaultBackgroundSamples = 50
)

var (
	// ErrInvalidParameter некорректный размер окна или коэффициент порога
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientData последовательность короче фонового окна
	ErrInsufficientData = errors.New("insufficient data")
)

// Detector поиск слабого источника: скользящее среднее + статический порог
type Detector struct {
	WindowSize        int
	ThresholdFactor   float64
	BackgroundSamples int
}

// DetectionResult результат одного прогона детектора
type DetectionResult struct {
	Smoothed        []float64
	BackgroundLevel float64
	AlarmThreshold  float64
	Indices         []int
	// BackgroundCoverage число заполненных сглаживанием точек в фоновом окне
	BackgroundCoverage int
}

// NewDetector создает детектор с фоновым окном по умолчанию
func NewDetector(windowSize int, thresholdFactor float64) *Detector {
	return &Detector{
		WindowSize:        windowSize,
		ThresholdFactor:   thresholdFactor,
		BackgroundSamples: DefaultBackgroundSamples,
	}
}

// Detect возвращает индексы, где сглаженный сигнал строго выше порога
func Detect(data []int, windowSize int, thresholdFactor float64) ([]int, error) {
	result, err := NewDetector(windowSize, thresholdFactor).Detect(data)
	if err != nil {
		return nil, err
	}
	return result.Indices, nil
}

// Validate проверяет параметры до запуска
func (d *Detector) Validate(n int) error {
	if d.WindowSize < 1 || d.WindowSize > n {
		return fmt.Errorf("%w: window_size %d outside [1, %d]", ErrInvalidParameter, d.WindowSize, n)
	}
	if math.IsNaN(d.ThresholdFactor) || math.IsInf(d.ThresholdFactor, 0) || d.ThresholdFactor <= 0 {
		return fmt.Errorf("%w: threshold_factor %v must be a positive finite number", ErrInvalidParameter, d.ThresholdFactor)
	}
	if d.BackgroundSamples < 1 {
		return fmt.Errorf("%w: background_samples %d must be positive", ErrInvalidParameter, d.BackgroundSamples)
	}
	if n < d.BackgroundSamples {
		return fmt.Errorf("%w: %d samples, background window needs %d", ErrInsufficientData, n, d.BackgroundSamples)
	}
	return nil
}

// Detect выполняет сглаживание, калибровку фона и поиск по порогу
func (d *Detector) Detect(data []int) (*DetectionResult, error) {
	if err := d.Validate(len(data)); err != nil {
		return nil, err
	}

	smoothed := Smooth(data, d.WindowSize)

	background := calculateAverage(smoothed[:d.BackgroundSamples])
	threshold := background * d.ThresholdFactor

	return &DetectionResult{
		Smoothed:           smoothed,
		BackgroundLevel:    background,
		AlarmThreshold:     threshold,
		Indices:            FindAbove(smoothed, threshold),
		BackgroundCoverage: populatedIn(len(data), d.WindowSize, d.BackgroundSamples),
	}, nil
}

// FindAbove собирает индексы со значением строго больше порога, по возрастанию
func FindAbove(values []float64, threshold float64) []int {
	indices := []int{}
	for k, v := range values {
		if v > threshold {
			indices = append(indices, k)
		}
	}
	return indices
}

// PopulatedRange полуинтервал [from, to) индексов, заполняемых сглаживанием
func PopulatedRange(n, windowSize int) (from, to int) {
	if windowSize < 1 || windowSize > n {
		return 0, 0
	}
	from = windowSize / 2
	return from, from + n - windowSize + 1
}

func populatedIn(n, windowSize, limit int) int {
	from, to := PopulatedRange(n, windowSize)
	if to > limit {
		to = limit
	}
	if to <= from {
		return 0
	}
	return to - from
}
