package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window in-process (una sola réplica o dev).
type MemoryLimiter struct {
	c      *gocache.Cache
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		prefix: prefix,
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	k, start := windowKey(l.prefix, key, now, l.window)
	ttl := start.Add(l.window).Sub(now)

	var hits int64 = 1
	if err := l.c.Add(k, int64(1), ttl); err != nil {
		n, ierr := l.c.IncrementInt64(k, 1)
		if ierr != nil {
			// expiró entre Add e Increment
			l.c.Set(k, int64(1), ttl)
			n = 1
		}
		hits = n
	}
	return result(hits, l.max, ttl, l.window), nil
}
