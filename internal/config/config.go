package config

import (
	"errors"
	"fmt"
	"time"
)

// Config конфигурация приложения. Теги mapstructure для viper.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Log       LogConfig       `mapstructure:"log"`
}

// GeneratorConfig параметры синтетического сигнала
type GeneratorConfig struct {
	Length     int     `mapstructure:"length"`
	Center     int     `mapstructure:"center"`
	PeakHeight float64 `mapstructure:"peak_height"`
	Width      float64 `mapstructure:"width"`
	NoiseMin   int     `mapstructure:"noise_min"`
	NoiseMax   int     `mapstructure:"noise_max"`
	// Seed 0 означает seed от текущего времени
	Seed int64 `mapstructure:"seed"`
}

// DetectorConfig параметры детектора
type DetectorConfig struct {
	WindowSize        int     `mapstructure:"window_size"`
	ThresholdFactor   float64 `mapstructure:"threshold_factor"`
	BackgroundSamples int     `mapstructure:"background_samples"`
}

// ServerConfig параметры HTTP сервера
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig подключение к Redis
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Retention time.Duration `mapstructure:"retention"`
}

// AnalyzerConfig пул воркеров сервиса
type AnalyzerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// LogConfig параметры логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Ошибки валидации конфигурации
var (
	ErrInvalidLength            = errors.New("generator.length must be positive")
	ErrInvalidWidth             = errors.New("generator.width must be positive")
	ErrInvalidNoiseRange        = errors.New("generator.noise_min must not exceed generator.noise_max")
	ErrInvalidBackgroundSamples = errors.New("detector.background_samples must be positive")
	ErrInvalidWorkers           = errors.New("analyzer.workers must be positive")
	ErrInvalidQueueSize         = errors.New("analyzer.queue_size must be positive")
	ErrInvalidRetention         = errors.New("redis.retention must be positive")
	ErrInvalidLogLevel          = errors.New("log.level must be one of debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("log.format must be text or json")
)

// Validate проверяет значения, при которых приложение не сможет работать.
// Параметры детектора проверяет сам детектор.
func (c *Config) Validate() error {
	var errs []error

	if c.Generator.Length <= 0 {
		errs = append(errs, ErrInvalidLength)
	}
	if c.Generator.Width <= 0 {
		errs = append(errs, ErrInvalidWidth)
	}
	if c.Generator.NoiseMin > c.Generator.NoiseMax {
		errs = append(errs, ErrInvalidNoiseRange)
	}
	if c.Detector.BackgroundSamples <= 0 {
		errs = append(errs, ErrInvalidBackgroundSamples)
	}
	if c.Analyzer.Workers <= 0 {
		errs = append(errs, ErrInvalidWorkers)
	}
	if c.Analyzer.QueueSize <= 0 {
		errs = append(errs, ErrInvalidQueueSize)
	}
	if c.Redis.Retention <= 0 {
		errs = append(errs, ErrInvalidRetention)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format))
	}

	return errors.Join(errs...)
}
