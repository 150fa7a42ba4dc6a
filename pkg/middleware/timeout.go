package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
)

// bufferedResponse holds a handler's output until it is known whether the
// deadline was met. Writes after the deadline fail with ErrHandlerTimeout.
type bufferedResponse struct {
	mu       sync.Mutex
	header   http.Header
	body     bytes.Buffer
	status   int
	timedOut bool
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == 0 && !b.timedOut {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// RequestTimeout bounds handler run time. A handler still running at the
// deadline has its context cancelled and the caller gets a 504; panics are
// re-raised on the serving goroutine so Recovery sees them.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			buf := &bufferedResponse{header: make(http.Header)}
			finished := make(chan any, 1)

			go func() {
				defer func() { finished <- recover() }()
				next.ServeHTTP(buf, r.WithContext(ctx))
			}()

			select {
			case p := <-finished:
				if p != nil {
					panic(p)
				}
				// A handler that gave up because of the deadline still timed out.
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					buf.flushTo(w)
					return
				}
			case <-ctx.Done():
			}

			buf.mu.Lock()
			buf.timedOut = true
			buf.mu.Unlock()
			_ = httputil.WriteError(w, apperrors.Timeout("request timed out"))
		})
	}
}
