package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusbook/internal/reservations/validator"
	apperrors "campusbook/pkg/errors"
	httputil "campusbook/pkg/http"
	"campusbook/pkg/logger"
	"campusbook/pkg/middleware"
	"campusbook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourceID = "65f0000000000000000000a1"

var campus = time.FixedZone("campus", 2*60*60)

// Mock service for testing
type mockReservationService struct {
	checkFunc        func(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (*model.Verdict, error)
	createFunc       func(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error)
	decideFunc       func(ctx context.Context, actor model.Actor, id string, decision *model.Decision) (*model.Reservation, error)
	updateFunc       func(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error)
	completeFunc     func(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	listFunc         func(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	availabilityFunc func(ctx context.Context, resourceID string, date time.Time) (*model.AvailabilityWindow, error)
}

func (m *mockReservationService) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (*model.Verdict, error) {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, resourceID, start, end, excludeID)
	}
	return &model.Verdict{Available: true, Conflicts: []model.ConflictSummary{}}, nil
}

func (m *mockReservationService) Create(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, req)
	}
	return &model.Reservation{ID: "r1"}, nil
}

func (m *mockReservationService) Decide(ctx context.Context, actor model.Actor, id string, decision *model.Decision) (*model.Reservation, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, actor, id, decision)
	}
	return &model.Reservation{ID: id}, nil
}

func (m *mockReservationService) Update(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, actor, id, update)
	}
	return &model.Reservation{ID: id}, nil
}

func (m *mockReservationService) Complete(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, actor, id)
	}
	return &model.Reservation{ID: id, Status: model.ReservationStatusCompleted}, nil
}

func (m *mockReservationService) CompleteExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return nil, apperrors.NotFoundWithID("Reservation", id)
}

func (m *mockReservationService) List(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, limit, offset)
	}
	return []*model.Reservation{}, 0, nil
}

func (m *mockReservationService) GetAvailability(ctx context.Context, resourceID string, date time.Time) (*model.AvailabilityWindow, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, resourceID, date)
	}
	return &model.AvailabilityWindow{ResourceID: resourceID}, nil
}

func newTestRouter(svc *mockReservationService) *httprouter.Router {
	log := logger.Discard()
	h := NewReservationHandler(svc, validator.NewReservationValidator(log), campus, log)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string, actor *model.Actor) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

var student = &model.Actor{ID: "stu-1", Role: model.RoleStudent}

func TestCreate_ResolvesCampusTimes(t *testing.T) {
	var received *model.NewReservation
	var receivedActor model.Actor
	router := newTestRouter(&mockReservationService{
		createFunc: func(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error) {
			received, receivedActor = req, actor
			return &model.Reservation{ID: "r1", Status: model.ReservationStatusPending}, nil
		},
	})

	w := serve(router, http.MethodPost, "/api/v1/resources/id/"+resourceID+"/reservations",
		`{"date":"2025-03-14","start_time":"10:00","end_time":"11:30","purpose":"Thesis lab work"}`, student)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, received)
	assert.Equal(t, resourceID, received.ResourceID)
	assert.Equal(t, "stu-1", receivedActor.ID)
	assert.True(t, received.StartTime.Equal(time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)), "start = %v", received.StartTime)
	assert.True(t, received.EndTime.Equal(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)), "end = %v", received.EndTime)
}

func TestCreate_RejectsBeforeService(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		actor      *model.Actor
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing identity",
			body:       `{"date":"2025-03-14","start_time":"10:00","end_time":"11:00","purpose":"x"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperrors.CodeUnauthorized,
		},
		{
			name:       "malformed body",
			body:       `{"date":`,
			actor:      student,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "bad clock",
			body:       `{"date":"2025-03-14","start_time":"25:00","end_time":"11:00","purpose":"x"}`,
			actor:      student,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeValidation,
		},
		{
			name:       "missing purpose",
			body:       `{"date":"2025-03-14","start_time":"10:00","end_time":"11:00"}`,
			actor:      student,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			router := newTestRouter(&mockReservationService{
				createFunc: func(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error) {
					called = true
					return &model.Reservation{}, nil
				},
			})

			w := serve(router, http.MethodPost, "/api/v1/resources/id/"+resourceID+"/reservations", tt.body, tt.actor)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
			assert.False(t, called, "service must not be reached")
		})
	}
}

func TestCreate_ConflictCarriesSummaries(t *testing.T) {
	router := newTestRouter(&mockReservationService{
		createFunc: func(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error) {
			return nil, apperrors.Conflict("Time slot overlaps existing reservations").WithDetails(map[string]any{
				"conflicts": []model.ConflictSummary{{ID: "r0", RequesterID: "stu-2", Status: model.ReservationStatusApproved}},
			})
		},
	})

	w := serve(router, http.MethodPost, "/api/v1/resources/id/"+resourceID+"/reservations",
		`{"date":"2025-03-14","start_time":"10:00","end_time":"11:00","purpose":"x"}`, student)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"requester_id":"stu-2"`)
}

func TestCheck(t *testing.T) {
	var excluded string
	router := newTestRouter(&mockReservationService{
		checkFunc: func(ctx context.Context, id string, start, end time.Time, excludeID string) (*model.Verdict, error) {
			excluded = excludeID
			return &model.Verdict{Available: false, Reason: "overlaps existing reservations", Conflicts: []model.ConflictSummary{}}, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/resources/id/"+resourceID+"/check?date=2025-03-14&start=10:00&end=11:00&exclude_id=r9", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r9", excluded)
	assert.Contains(t, w.Body.String(), `"available":false`)

	w = serve(router, http.MethodGet, "/api/v1/resources/id/"+resourceID+"/check?date=2025-03-14&start=10:00", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/resources/id/"+resourceID+"/check?date=14-03-2025&start=10:00&end=11:00", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailability(t *testing.T) {
	var receivedDate time.Time
	router := newTestRouter(&mockReservationService{
		availabilityFunc: func(ctx context.Context, id string, date time.Time) (*model.AvailabilityWindow, error) {
			receivedDate = date
			return &model.AvailabilityWindow{ResourceID: id, Date: "2025-03-14"}, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/resources/id/"+resourceID+"/availability?date=2025-03-14", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, receivedDate.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, campus)))

	w = serve(router, http.MethodGet, "/api/v1/resources/id/"+resourceID+"/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAll_Filters(t *testing.T) {
	var received model.ReservationFilter
	var receivedLimit int
	router := newTestRouter(&mockReservationService{
		listFunc: func(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
			received, receivedLimit = filter, limit
			return []*model.Reservation{{ID: "r1"}}, 1, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/reservations?resource_id="+resourceID+"&status=pending&from=2025-03-14&to=2025-03-14&limit=5", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resourceID, received.ResourceID)
	assert.Equal(t, model.ReservationStatusPending, received.Status)
	assert.Equal(t, 5, receivedLimit)
	require.NotNil(t, received.From)
	require.NotNil(t, received.To)
	assert.Equal(t, 24*time.Hour, received.To.Sub(*received.From), "to covers its whole day")
	assert.Contains(t, w.Body.String(), `"total_count":1`)

	w = serve(router, http.MethodGet, "/api/v1/reservations?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/reservations?from=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate(t *testing.T) {
	var received *model.ReservationUpdate
	router := newTestRouter(&mockReservationService{
		updateFunc: func(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error) {
			received = update
			return &model.Reservation{ID: id}, nil
		},
	})

	w := serve(router, http.MethodPatch, "/api/v1/reservations/id/r1", `{"purpose":"Group study"}`, student)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, received)
	assert.Nil(t, received.StartTime)
	assert.Nil(t, received.EndTime)
	require.NotNil(t, received.Purpose)
	assert.Equal(t, "Group study", *received.Purpose)

	w = serve(router, http.MethodPatch, "/api/v1/reservations/id/r1", `{"date":"2025-03-15","start_time":"13:00","end_time":"14:00"}`, student)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, received.StartTime)
	assert.True(t, received.StartTime.Equal(time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)))

	w = serve(router, http.MethodPatch, "/api/v1/reservations/id/r1", `{"date":"2025-03-15","end_time":"15:00"}`, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, received.StartTime)
	require.NotNil(t, received.EndTime)
	assert.True(t, received.EndTime.Equal(time.Date(2025, 3, 15, 13, 0, 0, 0, time.UTC)))

	received = nil
	w = serve(router, http.MethodPatch, "/api/v1/reservations/id/r1", `{"start_time":"13:00"}`, student)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, received)
}

func TestDecide(t *testing.T) {
	staff := &model.Actor{ID: "staff-1", Role: model.RoleStaff}
	router := newTestRouter(&mockReservationService{
		decideFunc: func(ctx context.Context, actor model.Actor, id string, decision *model.Decision) (*model.Reservation, error) {
			if !actor.Privileged() {
				return nil, apperrors.Forbidden("Only staff or admins may decide reservations")
			}
			return &model.Reservation{ID: id, Status: model.ReservationStatusApproved, DecidedBy: actor.ID}, nil
		},
	})

	w := serve(router, http.MethodPut, "/api/v1/reservations/id/r1/decision", `{"action":"approve"}`, staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"decided_by":"staff-1"`)

	w = serve(router, http.MethodPut, "/api/v1/reservations/id/r1/decision", `{"action":"approve"}`, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(router, http.MethodPut, "/api/v1/reservations/id/r1/decision", `{"action":"approve"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComplete(t *testing.T) {
	router := newTestRouter(&mockReservationService{})

	w := serve(router, http.MethodPut, "/api/v1/reservations/id/r1/complete", "", &model.Actor{ID: "adm-1", Role: model.RoleAdmin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestGetByID_NotFound(t *testing.T) {
	router := newTestRouter(&mockReservationService{})

	w := serve(router, http.MethodGet, "/api/v1/reservations/id/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(t, w))
}

func TestStatuses(t *testing.T) {
	router := newTestRouter(&mockReservationService{})

	w := serve(router, http.MethodGet, "/api/v1/reservations/statuses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"pending", "approved", "rejected", "completed"}, body.Data)
}
