package health

import (
	"context"
	"net/http"
	"time"

	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

const readyTimeout = 2 * time.Second

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type HealthHandler struct {
	checks map[string]Check
	log    *logger.Logger
}

func NewHealthHandler(log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: make(map[string]Check),
		log:    log,
	}
}

func (h *HealthHandler) AddCheck(name string, check Check) *HealthHandler {
	h.checks[name] = check
	return h
}

func MongoCheck(client *mongo.Client) Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}

func RedisCheck(client *redis.Client) Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	response := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.checks))}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", name,
				"error", err,
				"path", r.URL.Path,
			)
			response.Dependencies[name] = "error"
			status = http.StatusServiceUnavailable
			response.Status = "unavailable"
			continue
		}
		response.Dependencies[name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, response); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
