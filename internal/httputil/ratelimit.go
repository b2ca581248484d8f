package httputil

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than the idle TTL are dropped on the next sweep.
type IPRateLimiter struct {
	mu      sync.Mutex
	ips     map[string]*ipLimiter
	r       rate.Limit
	b       int
	idleTTL time.Duration
	now     func() time.Time
	sweep   time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a limiter allowing r events per second with
// burst b for every client.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:     make(map[string]*ipLimiter),
		r:       r,
		b:       b,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.sweep) > l.idleTTL {
		for k, v := range l.ips {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.ips, k)
			}
		}
		l.sweep = now
	}

	entry, ok := l.ips[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Len returns the number of tracked clients.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// Limit wraps next so that each client IP is held to the limiter's rate.
// Rejected requests get 429 with a Retry-After hint.
func (l *IPRateLimiter) Limit(trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := l.GetLimiter(ClientIP(r, trustProxy))

		res := lim.Reserve()
		if !res.OK() {
			writeTooManyRequests(w, time.Second)
			return
		}
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			writeTooManyRequests(w, delay)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
}
