package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"
	"campusbook/internal/reservations/events"
	"campusbook/internal/reservations/metrics"
	"campusbook/internal/reservations/repository"
	"campusbook/internal/reservations/validator"
	resourceserrors "campusbook/internal/resources/errors"
	"campusbook/pkg/config"
	mongotx "campusbook/pkg/db/mongo"
	apperrors "campusbook/pkg/errors"
	"campusbook/pkg/model"
	"campusbook/pkg/sanitizer"
	"campusbook/pkg/timeofday"
)

const completionBatchSize = 100

type ReservationService interface {
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (*model.Verdict, error)
	Create(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error)
	Decide(ctx context.Context, actor model.Actor, id string, decision *model.Decision) (*model.Reservation, error)
	Update(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error)
	Complete(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error)
	CompleteExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error)
	Get(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	GetAvailability(ctx context.Context, resourceID string, date time.Time) (*model.AvailabilityWindow, error)
}

// ResourceRegistry is the read-only view of resources the engine needs.
type ResourceRegistry interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	resources ResourceRegistry
	locker    repository.ReservationLocker
	validator *validator.ReservationValidator
	publisher events.Publisher
	cfg       *config.Config
	window    timeofday.Window
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	resources ResourceRegistry,
	locker repository.ReservationLocker,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	window, err := cfg.OperatingWindow()
	if err != nil {
		cfg.Log.Error("Invalid operating window, falling back to defaults",
			"start", cfg.OperatingDayStart,
			"end", cfg.OperatingDayEnd,
			"error", err,
		)
		window, _ = timeofday.NewWindow(config.DefaultOperatingDayStart, config.DefaultOperatingDayEnd)
	}
	if publisher == nil {
		publisher = events.NopPublisher()
	}

	return &reservationService{
		repo:      repo,
		resources: resources,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		window:    window,
		now:       time.Now,
	}
}

func (s *reservationService) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (*model.Verdict, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	start, end = normalizeTime(start), normalizeTime(end)
	if !start.Before(end) {
		return nil, apperrors.Validation("End time must be after start time", map[string]any{
			"start_time": start,
			"end_time":   end,
		})
	}

	verdict, err := s.evaluate(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return nil, s.translateError("check", resourceID, err)
	}
	return verdict, nil
}

func (s *reservationService) Create(ctx context.Context, actor model.Actor, req *model.NewReservation) (*model.Reservation, error) {
	const operation = "create"

	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Actor identity is required")
	}

	req.Purpose = sanitizer.NormalizePurpose(req.Purpose)
	req.StartTime, req.EndTime = normalizeTime(req.StartTime), normalizeTime(req.EndTime)

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"resource_id", req.ResourceID,
			"requester_id", actor.ID,
			"error", err,
		)
		metrics.IncRequest(operation, "invalid")
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{
			"errors": err,
		})
	}

	res, err := s.resources.FindByID(ctx, req.ResourceID)
	if err != nil {
		metrics.IncRequest(operation, outcomeOf(err))
		return nil, s.translateError(operation, req.ResourceID, err)
	}
	if err := checkAttendees(res, req.Attendees); err != nil {
		metrics.IncRequest(operation, "invalid")
		return nil, err
	}

	reservation := &model.Reservation{
		ResourceID:  req.ResourceID,
		RequesterID: actor.ID,
		Purpose:     req.Purpose,
		Status:      model.ReservationStatusPending,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Attendees:   req.Attendees,
		CreatedAt:   s.now().UTC(),
	}

	err = s.checkAndWrite(ctx, operation, req.ResourceID, func(ctx context.Context) error {
		verdict, err := s.evaluate(ctx, req.ResourceID, req.StartTime, req.EndTime, "")
		if err != nil {
			return err
		}
		if !verdict.Available {
			return verdictError(verdict)
		}
		return s.repo.Insert(ctx, reservation)
	})
	if err != nil {
		metrics.IncRequest(operation, outcomeOf(err))
		return nil, s.translateError(operation, req.ResourceID, err)
	}

	metrics.IncRequest(operation, "success")
	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"resource_id", reservation.ResourceID,
		"requester_id", reservation.RequesterID,
		"start_time", reservation.StartTime,
		"end_time", reservation.EndTime,
	)
	s.publisher.Publish(ctx, events.ReservationCreated, reservation, actor.ID)
	return reservation, nil
}

func (s *reservationService) Decide(ctx context.Context, actor model.Actor, id string, decision *model.Decision) (*model.Reservation, error) {
	if !actor.Privileged() {
		return nil, apperrors.Forbidden("Only staff or admins may decide reservations")
	}

	decision.Reason = sanitizer.NormalizePurpose(decision.Reason)
	if err := s.validator.ValidateDecision(decision); err != nil {
		s.cfg.Log.Warn("Decision validation failed",
			"id", id,
			"action", decision.Action,
			"error", err,
		)
		return nil, apperrors.Validation("Decision validation failed", map[string]any{
			"errors": err,
		})
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError("decide", id, err)
	}

	target := decisionTarget(decision.Action)
	if err := checkTransition(current.Status, target); err != nil {
		s.cfg.Log.Warn("Rejected reservation decision",
			"id", id,
			"status", current.Status,
			"action", decision.Action,
		)
		return nil, err
	}

	change := repository.StatusChange{
		From:      current.Status,
		To:        target,
		DecidedBy: actor.ID,
		At:        s.now().UTC(),
	}
	if target == model.ReservationStatusRejected {
		change.RejectionReason = decision.Reason
	}

	updated, err := s.repo.UpdateStatus(ctx, id, change)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrStatusChanged) {
			return nil, s.lostRace(ctx, id, target)
		}
		return nil, s.translateError("decide", id, err)
	}

	metrics.IncDecision(decision.Action)
	s.cfg.Log.Info("Reservation decided",
		"id", id,
		"status", updated.Status,
		"decided_by", actor.ID,
	)

	eventType := events.ReservationApproved
	if target == model.ReservationStatusRejected {
		eventType = events.ReservationRejected
	}
	s.publisher.Publish(ctx, eventType, updated, actor.ID)
	return updated, nil
}

func (s *reservationService) Update(ctx context.Context, actor model.Actor, id string, update *model.ReservationUpdate) (*model.Reservation, error) {
	const operation = "update"

	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Actor identity is required")
	}

	if update.Purpose != nil {
		purpose := sanitizer.NormalizePurpose(*update.Purpose)
		update.Purpose = &purpose
	}
	if update.StartTime != nil {
		start := normalizeTime(*update.StartTime)
		update.StartTime = &start
	}
	if update.EndTime != nil {
		end := normalizeTime(*update.EndTime)
		update.EndTime = &end
	}

	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed",
			"id", id,
			"error", err,
		)
		metrics.IncRequest(operation, "invalid")
		return nil, apperrors.Validation("Reservation update validation failed", map[string]any{
			"errors": err,
		})
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		metrics.IncRequest(operation, outcomeOf(err))
		return nil, s.translateError(operation, id, err)
	}
	if current.RequesterID != actor.ID && !actor.Privileged() {
		return nil, apperrors.Forbidden("Only the requester or staff may update this reservation")
	}
	if !current.Status.Active() {
		metrics.IncRequest(operation, "invalid_state")
		return nil, apperrors.InvalidState(
			fmt.Sprintf("A %s reservation cannot be updated", current.Status),
			string(current.Status),
			string(current.Status),
		)
	}

	patch := repository.FieldPatch{Purpose: update.Purpose}
	if update.Attendees != nil {
		res, err := s.resources.FindByID(ctx, current.ResourceID)
		if err != nil {
			metrics.IncRequest(operation, outcomeOf(err))
			return nil, s.translateError(operation, current.ResourceID, err)
		}
		if err := checkAttendees(res, *update.Attendees); err != nil {
			metrics.IncRequest(operation, "invalid")
			return nil, err
		}
		patch.Attendees = update.Attendees
	}

	at := s.now().UTC()
	var updated *model.Reservation
	if update.ChangesTime() {
		// Times are only ever written here, from a read taken under the lock.
		err = s.checkAndWrite(ctx, operation, current.ResourceID, func(ctx context.Context) error {
			latest, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !latest.Status.Active() {
				return fmt.Errorf("%w: %s", reservationserrors.ErrStatusChanged, id)
			}

			start, end := latest.StartTime, latest.EndTime
			if update.StartTime != nil {
				start = *update.StartTime
			}
			if update.EndTime != nil {
				end = *update.EndTime
			}
			if !start.Before(end) {
				return apperrors.Validation("Reservation update validation failed", map[string]any{
					"errors": validator.ValidationErrors{{Field: "EndTime", Message: "end time must be after start time"}},
				})
			}

			verdict, err := s.evaluate(ctx, latest.ResourceID, start, end, id)
			if err != nil {
				return err
			}
			if !verdict.Available {
				return verdictError(verdict)
			}

			patch.StartTime, patch.EndTime = &start, &end
			updated, err = s.repo.UpdateFields(ctx, id, patch, at)
			return err
		})
	} else {
		updated, err = s.repo.UpdateFields(ctx, id, patch, at)
	}
	if err != nil {
		metrics.IncRequest(operation, outcomeOf(err))
		if errors.Is(err, reservationserrors.ErrStatusChanged) {
			return nil, s.lostRace(ctx, id, current.Status)
		}
		return nil, s.translateError(operation, current.ResourceID, err)
	}

	metrics.IncRequest(operation, "success")
	s.cfg.Log.Info("Reservation updated successfully",
		"id", id,
		"resource_id", updated.ResourceID,
		"time_changed", update.ChangesTime(),
		"actor_id", actor.ID,
	)
	s.publisher.Publish(ctx, events.ReservationUpdated, updated, actor.ID)
	return updated, nil
}

func (s *reservationService) Complete(ctx context.Context, actor model.Actor, id string) (*model.Reservation, error) {
	if !actor.Privileged() {
		return nil, apperrors.Forbidden("Only staff or admins may complete reservations")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError("complete", id, err)
	}
	if err := checkTransition(current.Status, model.ReservationStatusCompleted); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, repository.StatusChange{
		From: model.ReservationStatusApproved,
		To:   model.ReservationStatusCompleted,
		At:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, reservationserrors.ErrStatusChanged) {
			return nil, s.lostRace(ctx, id, model.ReservationStatusCompleted)
		}
		return nil, s.translateError("complete", id, err)
	}

	metrics.AddCompleted("manual", 1)
	s.cfg.Log.Info("Reservation completed", "id", id, "actor_id", actor.ID)
	s.publisher.Publish(ctx, events.ReservationCompleted, updated, actor.ID)
	return updated, nil
}

// CompleteExpired moves every approved reservation that ended at or before
// now to completed. Reservations changed concurrently are skipped.
func (s *reservationService) CompleteExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	completed := []*model.Reservation{}
	now = now.UTC()

	for {
		ended, err := s.repo.ListEnded(ctx, now, completionBatchSize)
		if err != nil {
			metrics.AddCompleted("sweep", len(completed))
			return completed, fmt.Errorf("failed to list ended reservations: %w", err)
		}

		progressed := false
		for _, r := range ended {
			updated, err := s.repo.UpdateStatus(ctx, r.ID, repository.StatusChange{
				From: model.ReservationStatusApproved,
				To:   model.ReservationStatusCompleted,
				At:   now,
			})
			if err != nil {
				if errors.Is(err, reservationserrors.ErrStatusChanged) || errors.Is(err, reservationserrors.ErrNotFound) {
					continue
				}
				metrics.AddCompleted("sweep", len(completed))
				return completed, fmt.Errorf("failed to complete reservation %s: %w", r.ID, err)
			}
			progressed = true
			completed = append(completed, updated)
			s.publisher.Publish(ctx, events.ReservationCompleted, updated, "")
		}

		if len(ended) < completionBatchSize || !progressed {
			break
		}
	}

	metrics.AddCompleted("sweep", len(completed))
	return completed, nil
}

func (s *reservationService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError("get", id, err)
	}
	return r, nil
}

func (s *reservationService) List(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown reservation status: %s", filter.Status))
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, apperrors.InvalidInput("from must be before to")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", err)
			errCount = apperrors.Internal("Failed to count reservations", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		reservations, err = s.repo.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list reservations",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve reservations", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return reservations, count, nil
}

func (s *reservationService) GetAvailability(ctx context.Context, resourceID string, date time.Time) (*model.AvailabilityWindow, error) {
	if resourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	started := time.Now()
	defer func() { metrics.ObserveAvailability(time.Since(started)) }()

	res, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		return nil, s.translateError("availability", resourceID, err)
	}

	loc := s.cfg.Location()
	day := date.In(loc)
	open, close := s.window.Bounds(day, loc)

	active, err := s.repo.ListActive(ctx, resourceID, "", &model.Interval{Start: open.UTC(), End: close.UTC()})
	if err != nil {
		return nil, s.translateError("availability", resourceID, err)
	}

	busy, free := Partition(active, open, close)
	return &model.AvailabilityWindow{
		ResourceID:     resourceID,
		Date:           timeofday.FormatDate(day),
		Open:           s.window.Open.String(),
		Close:          s.window.Close.String(),
		ResourceStatus: res.Status,
		Busy:           toTimeRanges(busy, loc),
		Free:           toTimeRanges(free, loc),
	}, nil
}

// evaluate reads the resource and its active reservations and applies the
// conflict rules. Errors are returned untranslated.
func (s *reservationService) evaluate(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (*model.Verdict, error) {
	res, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if res.Status == model.ResourceStatusMaintenance {
		return Evaluate(res, nil, start, end, excludeID), nil
	}

	active, err := s.repo.ListActive(ctx, resourceID, excludeID, &model.Interval{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return Evaluate(res, active, start, end, excludeID), nil
}

// lostRace reports a conditional update that matched nothing because the
// reservation left its expected status.
func (s *reservationService) lostRace(ctx context.Context, id string, target model.ReservationStatus) error {
	status := "unknown"
	if latest, err := s.repo.FindByID(ctx, id); err == nil {
		status = string(latest.Status)
	}
	s.cfg.Log.Warn("Reservation changed concurrently", "id", id, "status", status)
	return apperrors.InvalidState("Reservation was changed by another request", status, string(target))
}

func (s *reservationService) translateError(operation, id string, err error) error {
	switch {
	case apperrors.IsAppError(err):
		return apperrors.AsAppError(err)
	case errors.Is(err, resourceserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Resource", id)
	case errors.Is(err, resourceserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid resource ID: %s", id))
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid reservation ID: %s", id))
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Reservation storage did not respond in time")
	case mongotx.IsTransient(err):
		s.cfg.Log.Error("Reservation write kept failing with transient errors",
			"operation", operation,
			"id", id,
			"error", err,
		)
		return apperrors.Unavailable("Reservation storage")
	default:
		s.cfg.Log.Error("Reservation operation failed",
			"operation", operation,
			"id", id,
			"error", err,
		)
		return apperrors.Internal(fmt.Sprintf("Failed to %s reservation", operation), err)
	}
}

func verdictError(v *model.Verdict) error {
	if v.Reason == ReasonMaintenance {
		return apperrors.Maintenance("Resource is under maintenance")
	}
	return apperrors.Conflict("Requested time overlaps existing reservations").WithDetails(map[string]any{
		"conflicts": v.Conflicts,
	})
}

func checkAttendees(res *model.Resource, attendees int) error {
	if attendees == 0 {
		return nil
	}
	if res.Kind != model.ResourceKindRoom {
		return apperrors.Validation("Attendees apply to room reservations only", map[string]any{
			"errors": validator.ValidationErrors{{Field: "Attendees", Message: "attendees apply to rooms only"}},
		})
	}
	if res.Capacity > 0 && attendees > res.Capacity {
		return apperrors.Validation(fmt.Sprintf("Attendees exceed room capacity of %d", res.Capacity), map[string]any{
			"errors": validator.ValidationErrors{{Field: "Attendees", Message: fmt.Sprintf("must be at most %d", res.Capacity)}},
		})
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeConflict):
		return "conflict"
	case apperrors.HasCode(err, apperrors.CodeMaintenance):
		return "maintenance"
	case apperrors.HasCode(err, apperrors.CodeUnavailable):
		return "busy"
	case apperrors.HasCode(err, apperrors.CodeValidation):
		return "invalid"
	case errors.Is(err, resourceserrors.ErrNotFound), errors.Is(err, reservationserrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, reservationserrors.ErrStatusChanged):
		return "invalid_state"
	default:
		return "error"
	}
}

func normalizeTime(t time.Time) time.Time {
	return timeofday.Truncate(t).UTC()
}
