package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"campusbook/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	ReplayedHeader           = "Idempotent-Replayed"

	sweepEvery = time.Hour
)

// IdempotencyStore keeps replayable responses. Lookups treat any storage
// failure as a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

// InMemoryIdempotencyStore serves a single replica. Expired entries are
// dropped on read and by an hourly sweep.
type InMemoryIdempotencyStore struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]*CachedResponse

	done     chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		ttl:     ttl,
		entries: map[string]*CachedResponse{},
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *InMemoryIdempotencyStore) expired(resp *CachedResponse, now time.Time) bool {
	return now.Sub(resp.CreatedAt) > s.ttl
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.RLock()
	resp, ok := s.entries[key]
	s.mu.RUnlock()

	switch {
	case !ok:
		return nil, false
	case s.expired(resp, time.Now()):
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	default:
		return resp, true
	}
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()

	s.mu.Lock()
	s.entries[key] = response
	s.mu.Unlock()
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, resp := range s.entries {
				if s.expired(resp, now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// RedisIdempotencyStore shares replayable responses between replicas.
// Redis expiry replaces the sweep loop.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl, prefix: "idempotency:", log: log}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("idempotency lookup failed", "error", err)
		return nil, false
	}

	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.log.Warn("discarding unreadable idempotency record", "error", err)
		return nil, false
	}
	return &resp, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()

	raw, err := json.Marshal(response)
	if err == nil {
		err = s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
	}
	if err != nil {
		s.log.Warn("idempotency record not stored", "error", err)
	}
}

func (s *RedisIdempotencyStore) Stop() {}

// teeRecorder passes the response through while keeping a copy of the body.
type teeRecorder struct {
	*statusRecorder
	body bytes.Buffer
}

func (t *teeRecorder) Write(b []byte) (int, error) {
	n, err := t.statusRecorder.Write(b)
	t.body.Write(b[:n])
	return n, err
}

// Idempotency replays the stored 2xx response of a write request carrying
// a key already seen. Keys are scoped to the actor, method and path so one
// caller cannot replay another's response.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scopedKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := store.Get(r.Context(), key); ok {
				replay(w, cached)
				return
			}

			tee := &teeRecorder{statusRecorder: record(w)}
			next.ServeHTTP(tee, r)

			status := tee.Status()
			if status < 200 || status > 299 {
				return
			}
			store.Set(context.WithoutCancel(r.Context()), key, &CachedResponse{
				StatusCode: status,
				Headers:    w.Header().Clone(),
				Body:       tee.body.Bytes(),
			})
		})
	}
}

// scopedKey is empty for reads and for requests without a key.
func scopedKey(r *http.Request, headerName string) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return ""
	}

	key := strings.TrimSpace(r.Header.Get(headerName))
	if key == "" {
		return ""
	}

	scope := "anonymous"
	if actor, ok := ActorFromContext(r.Context()); ok {
		scope = actor.ID
	}
	return strings.Join([]string{scope, r.Method, r.URL.Path, key}, "|")
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	h := w.Header()
	for name, values := range cached.Headers {
		if name == RequestIDHeader {
			continue
		}
		h[name] = append([]string(nil), values...)
	}
	h.Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
