package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter holds rate limiters for each client IP
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter allowing perMinute requests per IP.
// Call Stop to release the cleanup goroutine.
func NewIPRateLimiter(perMinute int, burst int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idleTTL:  5 * time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go limiter.cleanupRoutine(time.Minute)

	return limiter
}

// Allow reports whether ip may proceed now
func (i *IPRateLimiter) Allow(ip string) bool {
	i.mu.Lock()
	v, exists := i.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.rps, i.burst)}
		i.visitors[ip] = v
	}
	v.lastSeen = i.now()
	i.mu.Unlock()

	return v.limiter.Allow()
}

// Stop завершает фоновую очистку
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

func (i *IPRateLimiter) cleanupRoutine(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-i.stop:
			return
		case <-ticker.C:
			i.evictIdle()
		}
	}
}

// evictIdle removes limiters not used within idleTTL
func (i *IPRateLimiter) evictIdle() {
	cutoff := i.now().Add(-i.idleTTL)

	i.mu.Lock()
	defer i.mu.Unlock()
	for ip, v := range i.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(i.visitors, ip)
		}
	}
}

func (i *IPRateLimiter) size() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}

// RateLimit middleware limits requests per client IP
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter.rps)))
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP or the remote host
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(rps rate.Limit) int {
	if rps <= 0 {
		return 60
	}
	seconds := int(math.Round(1 / float64(rps)))
	if seconds < 1 {
		return 1
	}
	return seconds
}
