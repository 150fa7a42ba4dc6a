package handler

import (
	"encoding/json"
	"net/http"

	"campusbook/internal/resources/service"
	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"
	"campusbook/pkg/middleware"
	"campusbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ResourceHandler struct {
	service service.ResourceService
	log     *logger.Logger
}

func NewResourceHandler(service service.ResourceService, log *logger.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		log:     log,
	}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var res model.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), actor, &res); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, res); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.ResourceFilter{
		Kind:   query.Get("kind"),
		Status: model.ResourceStatus(query.Get("status")),
	}

	resources, totalCount, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, resources, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.ResourceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	res, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	var update model.ResourceStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "SetStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	res, err := h.service.SetStatus(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ResourceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/resources", h.Create)
	router.GET("/api/v1/resources", h.GetAll)
	router.GET("/api/v1/resources/id/:id", h.GetByID)
	router.PATCH("/api/v1/resources/id/:id", h.Update)
	router.PUT("/api/v1/resources/id/:id/status", h.SetStatus)
	router.DELETE("/api/v1/resources/id/:id", h.Delete)
}

func (h *ResourceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
