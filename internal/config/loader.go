package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"weaksource/internal/analytics"
	"weaksource/internal/signal"
)

const (
	configName = ".weaksource"
	configType = "yaml"
	envPrefix  = "WEAKSOURCE"
)

// Значения по умолчанию, не относящиеся к генератору и детектору
const (
	DefaultServerPort      = "8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisRetention  = time.Hour
	DefaultAnalyzerWorkers = 4
	DefaultQueueSize       = 1000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Load загружает конфигурацию: значения по умолчанию, файл, переменные окружения.
// Пустой configPath означает поиск .weaksource.yaml в текущем каталоге и $HOME;
// отсутствие файла не ошибка.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default возвращает конфигурацию по умолчанию без чтения файла и окружения
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Length:     signal.DefaultLength,
			Center:     signal.DefaultCenter,
			PeakHeight: signal.DefaultPeakHeight,
			Width:      signal.DefaultWidth,
			NoiseMin:   signal.DefaultNoiseMin,
			NoiseMax:   signal.DefaultNoiseMax,
		},
		Detector: DetectorConfig{
			WindowSize:        analytics.DefaultWindowSize,
			ThresholdFactor:   analytics.DefaultThresholdFactor,
			BackgroundSamples: analytics.DefaultBackgroundSamples,
		},
		Server: ServerConfig{
			Port:         DefaultServerPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Redis: RedisConfig{
			Addr:      DefaultRedisAddr,
			Retention: DefaultRedisRetention,
		},
		Analyzer: AnalyzerConfig{
			Workers:   DefaultAnalyzerWorkers,
			QueueSize: DefaultQueueSize,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func applyDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("generator.length", d.Generator.Length)
	v.SetDefault("generator.center", d.Generator.Center)
	v.SetDefault("generator.peak_height", d.Generator.PeakHeight)
	v.SetDefault("generator.width", d.Generator.Width)
	v.SetDefault("generator.noise_min", d.Generator.NoiseMin)
	v.SetDefault("generator.noise_max", d.Generator.NoiseMax)
	v.SetDefault("generator.seed", d.Generator.Seed)

	v.SetDefault("detector.window_size", d.Detector.WindowSize)
	v.SetDefault("detector.threshold_factor", d.Detector.ThresholdFactor)
	v.SetDefault("detector.background_samples", d.Detector.BackgroundSamples)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.retention", d.Redis.Retention)

	v.SetDefault("analyzer.workers", d.Analyzer.Workers)
	v.SetDefault("analyzer.queue_size", d.Analyzer.QueueSize)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// GeneratorParams параметры для signal.Params
func (c *Config) GeneratorParams() signal.Params {
	return signal.Params{
		Center:     c.Generator.Center,
		PeakHeight: c.Generator.PeakHeight,
		Width:      c.Generator.Width,
		NoiseMin:   c.Generator.NoiseMin,
		NoiseMax:   c.Generator.NoiseMax,
	}
}

// NewDetector детектор с параметрами из конфигурации
func (c *Config) NewDetector() *analytics.Detector {
	return &analytics.Detector{
		WindowSize:        c.Detector.WindowSize,
		ThresholdFactor:   c.Detector.ThresholdFactor,
		BackgroundSamples: c.Detector.BackgroundSamples,
	}
}
