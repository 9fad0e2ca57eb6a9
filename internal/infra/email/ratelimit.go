package email

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter enforces a per-IP send budget (default: 5 sends/hour).
// Limiters for idle IPs are pruned so the map can't grow unbounded.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	limit    rate.Limit
	burst    int
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter creates a limiter allowing sendsPerHour requests per IP,
// with the full budget available as burst.
func NewIPLimiter(sendsPerHour int) *IPLimiter {
	l := &IPLimiter{
		limiters: make(map[string]*ipEntry),
		limit:    rate.Every(time.Hour / time.Duration(sendsPerHour)),
		burst:    sendsPerHour,
	}
	go l.prune()
	return l
}

// Allow reports whether ip may send now, consuming one token if so.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// prune drops limiters not seen for 2 hours.
func (l *IPLimiter) prune() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * time.Hour)
		l.mu.Lock()
		for ip, e := range l.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}
