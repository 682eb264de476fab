// Package ratelimit throttles public lead submissions per client IP.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfterIntervals controls eviction: an IP unseen for this many
// intervals is dropped by the periodic sweep, bounding memory.
const staleAfterIntervals = 10

// Limiter enforces a minimum interval between allowed requests from the
// same IP. A throttled request does not refresh the window, so a client
// gets through as soon as one interval has passed since its last allowed
// request.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	visitors map[string]time.Time
	now      func() time.Time
	stop     chan struct{}
}

// New creates a limiter and starts its eviction sweep.
func New(interval time.Duration) *Limiter {
	l := &Limiter{
		interval: interval,
		visitors: make(map[string]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow reports whether a request from ip may proceed and, if so, records
// the attempt time.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.visitors[ip]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.visitors[ip] = now
	return true
}

// Size returns the number of tracked IPs.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop ends the eviction sweep.
func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.interval * staleAfterIntervals)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Sweep drops entries idle for staleAfterIntervals intervals.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.interval * staleAfterIntervals)
	for ip, last := range l.visitors {
		if last.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}
