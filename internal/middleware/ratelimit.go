package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"pet-clinic-appointments/internal/platform/respond"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	limiterSweepMin = 1024
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter es un token bucket por caller (subject si hay claims, IP si no).
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= limiterSweepMin {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) sweep(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, k)
		}
	}
}

// Middleware responde 429 cuando el caller agotó su bucket.
// Tiene que ir después de AuthContext para poder usar el subject.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(visitorKey(r)) {
			w.Header().Set("Retry-After", "1")
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func visitorKey(r *http.Request) string {
	if c := Caller(r.Context()); c != nil && c.Subject != "" {
		return "sub:" + c.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
