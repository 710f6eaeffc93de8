package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes the outcome of one rate-limit check. The caller is
// responsible for turning it into X-RateLimit-* headers.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a fixed-window request budget per API key.
type Limiter interface {
	Check(ctx context.Context, keyID string) (Result, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps window counters in-process. Suitable for a single
// gateway instance; use the redis backend when running more than one.
type MemoryLimiter struct {
	limit      int
	windowSize time.Duration

	mu      sync.Mutex
	windows map[string]*window
	stopCh  chan struct{}
}

func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:      limit,
		windowSize: windowSize,
		windows:    make(map[string]*window),
		stopCh:     make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, w := range l.windows {
				if now.Sub(w.start) > 2*l.windowSize {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func (l *MemoryLimiter) Stop() {
	close(l.stopCh)
}

func (l *MemoryLimiter) Check(_ context.Context, keyID string) (Result, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[keyID]
	if !ok || !now.Before(w.start.Add(l.windowSize)) {
		// First request of a fresh window. The window starts now and resets
		// exactly at start+windowSize.
		w = &window{start: now}
		l.windows[keyID] = w
	}

	resetAt := w.start.Add(l.windowSize)

	if w.count >= l.limit {
		return Result{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	w.count++

	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - w.count,
		ResetAt:   resetAt,
	}, nil
}
