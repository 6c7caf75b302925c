package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles credential exchanges per client IP. Entries
// idle for two cleanup intervals are evicted by a background loop.
type loginLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

const limiterCleanupInterval = 5 * time.Minute

func newLoginLimiter(cfg LoginConfig) *loginLimiter {
	l := &loginLimiter{
		limit:    rate.Limit(float64(cfg.RatePerMinute) / 60.0),
		burst:    cfg.Burst,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow reports whether one more login attempt from ip is within budget.
func (l *loginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()

	return entry.limiter.Allow()
}

func (l *loginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *loginLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *loginLimiter) cleanup() {
	ttl := 2 * limiterCleanupInterval
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(l.limiters, ip)
		}
	}
}
