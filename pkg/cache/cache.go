package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss viene restituito quando la chiave non è presente nel cache
	ErrCacheMiss = errors.New("cache: key not found")
)

// Cache è l'interfaccia base per tutti i layer di cache
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats() CacheStats
	Close() error
}

// CacheStats contiene statistiche sul cache
type CacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Size      int64
	Evictions int64
}

// HitRate calcola il tasso di hit del cache
func (s *CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ResponseKey costruisce la chiave di cache per una completion.
// Identical prompts against the same provider/model share an entry.
func ResponseKey(provider, model, message string) string {
	sum := sha256.Sum256([]byte(provider + ":" + model + ":" + message))
	return fmt.Sprintf("resp:%s", hex.EncodeToString(sum[:]))
}

// Noop è un cache disabilitato: ogni Get è un miss, ogni Set un no-op.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrCacheMiss }
func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (Noop) Delete(ctx context.Context, key string) error { return nil }
func (Noop) Clear(ctx context.Context) error              { return nil }
func (Noop) Stats() CacheStats                            { return CacheStats{} }
func (Noop) Close() error                                 { return nil }
