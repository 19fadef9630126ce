package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultMaxTrackedIPs = 10000

type attemptWindow struct {
	count      int
	windowEnds time.Time
}

type LoginRateLimiter struct {
	inner *ipRateLimiter
}

type IPRateLimiter struct {
	inner *ipRateLimiter
}

// ipRateLimiter is a fixed-window counter per client IP. It tracks at most
// maxEntries addresses; when full, expired windows are dropped first and then
// the window closest to expiry.
type ipRateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	attempts   map[string]attemptWindow
	now        func() time.Time
}

func NewLoginRateLimiter(limit int, window time.Duration, maxEntries int) *LoginRateLimiter {
	return &LoginRateLimiter{inner: newIPRateLimiter(limit, window, maxEntries)}
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return NewIPRateLimiterWithMaxEntries(limit, window, defaultMaxTrackedIPs)
}

func NewIPRateLimiterWithMaxEntries(limit int, window time.Duration, maxEntries int) *IPRateLimiter {
	return &IPRateLimiter{inner: newIPRateLimiter(limit, window, maxEntries)}
}

func newIPRateLimiter(limit int, window time.Duration, maxEntries int) *ipRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxTrackedIPs
	}
	return &ipRateLimiter{
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
		attempts:   map[string]attemptWindow{},
		now:        time.Now,
	}
}

func (rl *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return rl.inner.middleware("Too many login attempts", next)
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return rl.inner.middleware(message, next)
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.attempts[ip]
	if !ok && len(rl.attempts) >= rl.maxEntries {
		rl.evictLocked(now)
	}
	if entry.windowEnds.Before(now) {
		entry = attemptWindow{windowEnds: now.Add(rl.window)}
	}
	entry.count++
	rl.attempts[ip] = entry
	return entry.count <= rl.limit
}

func (rl *ipRateLimiter) evictLocked(now time.Time) {
	for ip, entry := range rl.attempts {
		if entry.windowEnds.Before(now) {
			delete(rl.attempts, ip)
		}
	}
	if len(rl.attempts) < rl.maxEntries {
		return
	}
	var oldestIP string
	var oldest time.Time
	for ip, entry := range rl.attempts {
		if oldestIP == "" || entry.windowEnds.Before(oldest) {
			oldestIP, oldest = ip, entry.windowEnds
		}
	}
	delete(rl.attempts, oldestIP)
}

func (rl *ipRateLimiter) middleware(message string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r.RemoteAddr)
		if ip == "" {
			ip = "unknown"
		}
		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window/time.Second)))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
