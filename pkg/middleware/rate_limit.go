package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"

	"golang.org/x/time/rate"
)

type KeyExtractor func(r *http.Request) string

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller: requests tokens refill
// over window, with burst headroom.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewRateLimiter(requests int, window time.Duration, burst int, extractor KeyExtractor, log *logger.Logger) *RateLimiter {
	if extractor == nil {
		extractor = ActorOrIPKey
	}
	limiter := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		every:     rate.Every(window / time.Duration(max(requests, 1))),
		burst:     max(burst, 1),
		idleTTL:   max(window, time.Minute) * 2,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > rl.idleTTL {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	return rl.limiterFor(key).Allow()
}

func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)

			if !limiter.Allow(key) {
				rejectRateLimited(w, limiter, r, key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, limiter *RateLimiter, r *http.Request, key string) {
	limiter.log.Warn("Rate limit exceeded",
		"request_id", RequestIDFromContext(r.Context()),
		"key", key,
		"path", r.URL.Path,
	)

	retryAfter := time.Duration(float64(time.Second) / float64(limiter.every))
	w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retryAfter.Seconds()))))
	_ = httputil.WriteError(w, apperrors.RateLimited("Rate limit exceeded"))
}

// ActorOrIPKey buckets authenticated callers by actor id and everyone
// else by client address.
func ActorOrIPKey(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + actor.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
