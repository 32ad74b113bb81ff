// Package cache holds small in-process TTL stores. The HTTP server uses it to
// remember revoked session ids when no Redis is configured.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store whose entries expire.
type Cache[T any] interface {
	Get(key string) (T, bool)

	// SetFor stores data until ttl elapses.
	SetFor(key string, data T, ttl time.Duration)

	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries eagerly.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches until its context ends.
type Janitor struct {
	caches []Cleaner
	logger *slog.Logger
	done   chan struct{}
}

func NewJanitor(logger *slog.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{caches: caches, logger: logger, done: make(chan struct{})}
}

// Run blocks, sweeping every interval, and returns when ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				j.logger.DebugContext(ctx, "Expired cache entries removed", "count", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once Run has returned.
func (j *Janitor) Done() <-chan struct{} {
	return j.done
}
