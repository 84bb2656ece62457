package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"weaksource/internal/models"
)

// ErrNotFound скан не найден в Redis
var ErrNotFound = errors.New("scan not found")

// anomalyIndexKey sorted set сканов с аномалиями, score = unix time
const anomalyIndexKey = "anomaly_scans"

// anomalyTTLMultiplier аномальные сканы хранятся дольше обычных
const anomalyTTLMultiplier = 24

// RedisCache обертка для Redis клиента
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создает новый Redis кэш и проверяет подключение
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient оборачивает готовый клиент
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// ScanKey ключ результата скана
func ScanKey(scanID string) string {
	return "scan:" + scanID
}

// StoreScan сохраняет результат скана. Сканы с аномалиями дополнительно
// попадают в индекс anomaly_scans.
func (r *RedisCache) StoreScan(ctx context.Context, result models.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}

	key := ScanKey(result.ScanID)

	if !result.IsAnomaly {
		return r.client.Set(ctx, key, data, r.ttl).Err()
	}

	anomalyTTL := r.ttl * anomalyTTLMultiplier

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, anomalyTTL)
	pipe.ZAdd(ctx, anomalyIndexKey, redis.Z{Score: float64(result.Timestamp.Unix()), Member: result.ScanID})
	pipe.Expire(ctx, anomalyIndexKey, anomalyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store anomalous scan: %w", err)
	}
	return nil
}

// GetScan получает результат скана по идентификатору
func (r *RedisCache) GetScan(ctx context.Context, scanID string) (*models.ScanResult, error) {
	val, err := r.client.Get(ctx, ScanKey(scanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	var result models.ScanResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan: %w", err)
	}
	return &result, nil
}

// GetRecentAnomalies идентификаторы последних сканов с аномалиями, новые первыми
func (r *RedisCache) GetRecentAnomalies(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	results, err := r.client.ZRevRange(ctx, anomalyIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get anomalies: %w", err)
	}
	return results, nil
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats возвращает статистику пула соединений
func (r *RedisCache) GetStats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
