package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"campusbook/internal/reservations/service"
	"campusbook/internal/reservations/validator"
	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"
	"campusbook/pkg/middleware"
	"campusbook/pkg/model"
	"campusbook/pkg/timeofday"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service   service.ReservationService
	validator *validator.ReservationValidator
	loc       *time.Location
	log       *logger.Logger
}

// NewReservationHandler resolves wire dates and clocks in loc, the campus
// time zone.
func NewReservationHandler(service service.ReservationService, validator *validator.ReservationValidator, loc *time.Location, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:   service,
		validator: validator,
		loc:       loc,
		log:       log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}
	if err := h.validator.ValidateRequest(&req); err != nil {
		h.writeError(w, "Create", validationFailed(err))
		return
	}

	start, end, err := h.resolveTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	reservation, err := h.service.Create(r.Context(), actor, &model.NewReservation{
		ResourceID: ps.ByName("id"),
		StartTime:  start,
		EndTime:    end,
		Purpose:    req.Purpose,
		Attendees:  req.Attendees,
	})
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) Check(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.RequireQuery(r, "date")
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}
	startClock, err := httputil.RequireQuery(r, "start")
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}
	endClock, err := httputil.RequireQuery(r, "end")
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	start, end, err := h.resolveTimes(date, startClock, endClock)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	verdict, err := h.service.CheckAvailability(r.Context(), ps.ByName("id"), start, end, r.URL.Query().Get("exclude_id"))
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	if err := httputil.WriteSuccess(w, verdict); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dateStr, err := httputil.RequireQuery(r, "date")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	date, err := timeofday.ParseDate(dateStr, h.loc)
	if err != nil {
		h.writeError(w, "Availability", apperrors.InvalidInput(err.Error()))
		return
	}

	window, err := h.service.GetAvailability(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, window); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	reservations, totalCount, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var req model.ReservationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}
	if err := h.validator.ValidateUpdateRequest(&req); err != nil {
		h.writeError(w, "Update", validationFailed(err))
		return
	}

	update := &model.ReservationUpdate{
		Purpose:   req.Purpose,
		Attendees: req.Attendees,
	}
	if req.StartTime != "" {
		start, err := h.resolveClock(req.Date, req.StartTime)
		if err != nil {
			h.writeError(w, "Update", err)
			return
		}
		update.StartTime = &start
	}
	if req.EndTime != "" {
		end, err := h.resolveClock(req.Date, req.EndTime)
		if err != nil {
			h.writeError(w, "Update", err)
			return
		}
		update.EndTime = &end
	}

	reservation, err := h.service.Update(r.Context(), actor, ps.ByName("id"), update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Decide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Decide", err)
		return
	}

	var decision model.Decision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		h.writeError(w, "Decide", apperrors.InvalidInput("Invalid request body"))
		return
	}

	reservation, err := h.service.Decide(r.Context(), actor, ps.ByName("id"), &decision)
	if err != nil {
		h.writeError(w, "Decide", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Decide", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := middleware.RequireActor(r)
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	reservation, err := h.service.Complete(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Statuses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, model.AllReservationStatuses()); err != nil {
		h.log.Error("failed to write success response", "handler", "Statuses", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/resources/id/:id/reservations", h.Create)
	router.GET("/api/v1/resources/id/:id/availability", h.Availability)
	router.GET("/api/v1/resources/id/:id/check", h.Check)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/statuses", h.Statuses)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Update)
	router.PUT("/api/v1/reservations/id/:id/decision", h.Decide)
	router.PUT("/api/v1/reservations/id/:id/complete", h.Complete)
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) resolveTimes(date, startClock, endClock string) (time.Time, time.Time, error) {
	start, err := h.resolveClock(date, startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := h.resolveClock(date, endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (h *ReservationHandler) resolveClock(date, clock string) (time.Time, error) {
	t, err := timeofday.Combine(date, clock, h.loc)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(err.Error())
	}
	return t, nil
}

// parseFilter reads the listing filters. from and to are dates; to covers
// its whole day.
func (h *ReservationHandler) parseFilter(r *http.Request) (model.ReservationFilter, error) {
	query := r.URL.Query()
	filter := model.ReservationFilter{
		ResourceID:  query.Get("resource_id"),
		RequesterID: query.Get("requester_id"),
		Status:      model.ReservationStatus(query.Get("status")),
	}

	if s := query.Get("from"); s != "" {
		from, err := timeofday.ParseDate(s, h.loc)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid from parameter: " + s)
		}
		filter.From = &from
	}
	if s := query.Get("to"); s != "" {
		to, err := timeofday.ParseDate(s, h.loc)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid to parameter: " + s)
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	return filter, nil
}

func validationFailed(err error) error {
	return apperrors.Validation("Reservation validation failed", map[string]any{
		"errors": err,
	})
}
