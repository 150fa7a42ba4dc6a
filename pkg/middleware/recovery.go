package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"
)

// Recovery turns a handler panic into a 500. http.ErrAbortHandler is
// re-raised so net/http can drop the connection as it intends.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				log.Error("panic in handler",
					"request_id", RequestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(p),
					"stack", string(debug.Stack()),
				)
				_ = httputil.WriteError(w, apperrors.Internal("internal server error", nil))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
