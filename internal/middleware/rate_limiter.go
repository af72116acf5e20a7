package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mroshb/friends_api/internal/metrics"
	"github.com/mroshb/friends_api/pkg/logger"
	"golang.org/x/time/rate"
)

// KeyedLimiter holds one token bucket per key. Each key may spend max
// requests per window, refilled evenly.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedEntry
	limit    rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(max int, window time.Duration) *KeyedLimiter {
	if max < 1 {
		max = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*keyedEntry),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
		now:      time.Now,
	}
}

// Allow spends one request for key and reports whether it was within limit
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, exists := l.limiters[key]
	if !exists {
		entry = &keyedEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// Remaining returns how many requests key may still make right now
func (l *KeyedLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.limiters[key]
	if !exists {
		return l.burst
	}

	tokens := int(entry.limiter.TokensAt(l.now()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Sweep drops keys idle for longer than a window; a fresh bucket is full anyway.
func (l *KeyedLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *KeyedLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimiter limits requests per client IP and per authenticated user
type RateLimiter struct {
	users *KeyedLimiter
	ips   *KeyedLimiter
	stop  chan struct{}
	once  sync.Once
}

// NewRateLimiter creates a new rate limiter and starts its sweeper
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		users: NewKeyedLimiter(userMaxRequests, window),
		ips:   NewKeyedLimiter(ipMaxRequests, window),
		stop:  make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID uint) bool {
	return rl.users.Allow(strconv.FormatUint(uint64(userID), 10))
}

// CheckIPLimit checks if IP has exceeded rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	return rl.ips.Allow(ip)
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID uint) int {
	return rl.users.Remaining(strconv.FormatUint(uint64(userID), 10))
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	return rl.ips.Remaining(ip)
}

// LimitIP rejects requests from clients over the per-IP limit with 429
func (rl *RateLimiter) LimitIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed := rl.CheckIPLimit(ip)
		setRemaining(w, rl.GetIPRemaining(ip))
		if !allowed {
			metrics.RateLimited.WithLabelValues("ip").Inc()
			tooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitUser rejects authenticated users over the per-user limit with 429.
// It must run after Authenticate.
func (rl *RateLimiter) LimitUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		allowed := rl.CheckUserLimit(userID)
		setRemaining(w, rl.GetUserRemaining(userID))
		if !allowed {
			metrics.RateLimited.WithLabelValues("user").Inc()
			logger.With("user_id", userID, "email", EmailFromContext(r.Context())).
				Infow("User rate limited", "path", r.URL.Path)
			tooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stop ends the sweeper goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.users.Sweep()
			rl.ips.Sweep()
		case <-rl.stop:
			return
		}
	}
}

// clientIP expects chi's RealIP to have already rewritten RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setRemaining(w http.ResponseWriter, remaining int) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded"}`))
}
