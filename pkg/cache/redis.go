package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache implementa un cache distribuito usando Redis
type RedisCache struct {
	client *redis.Client

	mu    sync.Mutex
	stats CacheStats
}

// NewRedisCache crea un nuovo cache Redis e verifica la connessione
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().
		Str("addr", addr).
		Int("db", db).
		Msg("Redis cache initialized")

	return &RedisCache{client: client}, nil
}

// Get recupera un valore da Redis
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.count(func(s *CacheStats) { s.Misses++ })
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	r.count(func(s *CacheStats) { s.Hits++ })
	return val, nil
}

// Set salva un valore in Redis
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return err
	}

	r.count(func(s *CacheStats) {
		s.Sets++
		s.Size += int64(len(value))
	})
	return nil
}

// Delete rimuove un valore da Redis
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return err
	}

	r.count(func(s *CacheStats) { s.Deletes++ })
	return nil
}

// Clear svuota il database Redis
func (r *RedisCache) Clear(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}

// Stats restituisce le statistiche
func (r *RedisCache) Stats() CacheStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Ping verifica la connessione a Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close chiude la connessione Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) count(fn func(*CacheStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}
