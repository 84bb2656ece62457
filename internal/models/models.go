package models

import (
	"time"

	"weaksource/internal/analytics"
)

// ScanRequest последовательность отсчетов для анализа
type ScanRequest struct {
	Samples []int `json:"samples"`
	// WindowSize и ThresholdFactor необязательны, по умолчанию из конфигурации
	WindowSize      int     `json:"window_size,omitempty"`
	ThresholdFactor float64 `json:"threshold_factor,omitempty"`
}

// SimulateRequest запрос на генерацию синтетического сигнала
type SimulateRequest struct {
	Seed            int64   `json:"seed"`
	Length          int     `json:"length,omitempty"`
	WindowSize      int     `json:"window_size,omitempty"`
	ThresholdFactor float64 `json:"threshold_factor,omitempty"`
}

// ScanResult результат обнаружения
type ScanResult struct {
	ScanID          string           `json:"scan_id" yaml:"scan_id"`
	Source          string           `json:"source" yaml:"source"`
	Timestamp       time.Time        `json:"timestamp" yaml:"timestamp"`
	Seed            int64            `json:"seed,omitempty" yaml:"seed,omitempty"`
	Samples         int              `json:"samples" yaml:"samples"`
	WindowSize      int              `json:"window_size" yaml:"window_size"`
	ThresholdFactor float64          `json:"threshold_factor" yaml:"threshold_factor"`
	BackgroundLevel float64          `json:"background_level" yaml:"background_level"`
	AlarmThreshold  float64          `json:"alarm_threshold" yaml:"alarm_threshold"`
	IsAnomaly       bool             `json:"is_anomaly" yaml:"is_anomaly"`
	Indices         []int            `json:"indices" yaml:"indices,flow"`
	Bands           []analytics.Band `json:"bands" yaml:"bands"`
	Smoothed        []float64        `json:"smoothed,omitempty" yaml:"smoothed,omitempty,flow"`
}

// NewScanResult собирает ScanResult из результата детектора
func NewScanResult(scanID, source string, ts time.Time, samples int, d *analytics.Detector, res *analytics.DetectionResult) ScanResult {
	return ScanResult{
		ScanID:          scanID,
		Source:          source,
		Timestamp:       ts,
		Samples:         samples,
		WindowSize:      d.WindowSize,
		ThresholdFactor: d.ThresholdFactor,
		BackgroundLevel: res.BackgroundLevel,
		AlarmThreshold:  res.AlarmThreshold,
		IsAnomaly:       len(res.Indices) > 0,
		Indices:         res.Indices,
		Bands:           analytics.Bands(res.Indices),
		Smoothed:        res.Smoothed,
	}
}
