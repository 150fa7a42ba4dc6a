package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	resourceserrors "campusbook/internal/resources/errors"
	"campusbook/internal/resources/repository"
	"campusbook/internal/resources/validator"
	"campusbook/pkg/config"
	apperrors "campusbook/pkg/errors"
	"campusbook/pkg/model"
	"campusbook/pkg/sanitizer"
)

type ResourceService interface {
	Create(ctx context.Context, actor model.Actor, res *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	GetAll(ctx context.Context, filter model.ResourceFilter, limit int, offset int64) ([]*model.Resource, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, updates *model.ResourceUpdate) (*model.Resource, error)
	SetStatus(ctx context.Context, actor model.Actor, id string, update *model.ResourceStatusUpdate) (*model.Resource, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

// ActiveReservationCounter guards deletion of resources that still hold
// pending or approved reservations.
type ActiveReservationCounter interface {
	CountActive(ctx context.Context, resourceID string) (int64, error)
}

type resourceService struct {
	repo         repository.ResourceRepository
	reservations ActiveReservationCounter
	validator    *validator.ResourceValidator
	cfg          *config.Config
}

func NewResourceService(
	repo repository.ResourceRepository,
	reservations ActiveReservationCounter,
	validator *validator.ResourceValidator,
	cfg *config.Config,
) ResourceService {
	return &resourceService{
		repo:         repo,
		reservations: reservations,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, actor model.Actor, res *model.Resource) error {
	if !actor.Privileged() {
		return apperrors.Forbidden("Only staff or admins may register resources")
	}

	s.sanitize(res)
	if res.Status == "" {
		res.Status = model.ResourceStatusAvailable
	}

	if err := s.validator.Validate(res); err != nil {
		s.cfg.Log.Warn("Resource validation failed",
			"name", res.Name,
			"kind", res.Kind,
			"error", err,
		)
		return apperrors.Validation("Resource validation failed", map[string]any{
			"errors": err,
		})
	}

	if err := s.repo.Create(ctx, res); err != nil {
		s.cfg.Log.Error("Failed to create resource",
			"name", res.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully",
		"id", res.ID,
		"kind", res.Kind,
		"name", res.Name,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupError(id, err)
	}
	return res, nil
}

func (s *resourceService) GetAll(ctx context.Context, filter model.ResourceFilter, limit int, offset int64) ([]*model.Resource, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown resource status: %s", filter.Status))
	}

	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count resources", "error", err)
			errCount = apperrors.Internal("Failed to count resources", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		resources, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list resources",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve resources", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return resources, count, nil
}

func (s *resourceService) Update(ctx context.Context, actor model.Actor, id string, updates *model.ResourceUpdate) (*model.Resource, error) {
	if !actor.Privileged() {
		return nil, apperrors.Forbidden("Only staff or admins may modify resources")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Resource validation failed", map[string]any{"errors": err})
	}

	merged := mergeResourceUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Resource validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Resource validation failed", map[string]any{"errors": err})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to update resource",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update resource", err)
	}

	s.cfg.Log.Info("Resource updated successfully",
		"id", id,
		"actor_id", actor.ID,
	)
	return merged, nil
}

func (s *resourceService) SetStatus(ctx context.Context, actor model.Actor, id string, update *model.ResourceStatusUpdate) (*model.Resource, error) {
	if !actor.Privileged() {
		return nil, apperrors.Forbidden("Only staff or admins may change resource status")
	}
	if err := s.validator.ValidateStatus(update); err != nil {
		return nil, apperrors.Validation("Resource status validation failed", map[string]any{"errors": err})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, update.Status); err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to update resource status",
			"id", id,
			"status", update.Status,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update resource status", err)
	}

	s.cfg.Log.Info("Resource status changed",
		"id", id,
		"from", existing.Status,
		"to", update.Status,
		"actor_id", actor.ID,
	)
	existing.Status = update.Status
	return existing, nil
}

func (s *resourceService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.Privileged() {
		return apperrors.Forbidden("Only staff or admins may remove resources")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	active, err := s.reservations.CountActive(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to count active reservations",
			"resource_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to check resource reservations", err)
	}
	if active > 0 {
		return apperrors.Conflict(fmt.Sprintf("Resource still has %d active reservation(s)", active)).
			WithDetails(map[string]any{"active_reservations": active})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to delete resource",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete resource", err)
	}

	s.cfg.Log.Info("Resource deleted successfully", "id", id, "actor_id", actor.ID)
	return nil
}

func (s *resourceService) translateLookupError(id string, err error) error {
	if errors.Is(err, resourceserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Resource", id)
	}
	if errors.Is(err, resourceserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid resource ID format")
	}
	s.cfg.Log.Error("Failed to get resource by ID",
		"id", id,
		"error", err,
	)
	return apperrors.Internal("Failed to retrieve resource", err)
}

func (s *resourceService) sanitize(res *model.Resource) {
	res.Name = sanitizer.NormalizeName(res.Name)
	res.Description = sanitizer.CollapseSpace(res.Description)
	res.Location = sanitizer.CollapseSpace(res.Location)
	res.Category = sanitizer.NormalizeCategory(res.Category)
	if res.Facilities != nil {
		res.Facilities = sanitizer.NormalizeFacilities(res.Facilities)
	}
	res.Kind = sanitizer.Key(res.Kind)
}

func (s *resourceService) sanitizeUpdate(updates *model.ResourceUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Description != nil {
		v := sanitizer.CollapseSpace(*updates.Description)
		updates.Description = &v
	}
	if updates.Location != nil {
		v := sanitizer.CollapseSpace(*updates.Location)
		updates.Location = &v
	}
	if updates.Category != nil {
		v := sanitizer.NormalizeCategory(*updates.Category)
		updates.Category = &v
	}
	if updates.Facilities != nil {
		v := sanitizer.NormalizeFacilities(*updates.Facilities)
		updates.Facilities = &v
	}
}

func mergeResourceUpdates(existing *model.Resource, updates *model.ResourceUpdate) *model.Resource {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Facilities != nil {
		merged.Facilities = *updates.Facilities
	}

	return &merged
}
