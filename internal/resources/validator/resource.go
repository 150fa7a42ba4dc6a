package validator

import (
	"campusbook/pkg/logger"
	"campusbook/pkg/model"
	"campusbook/pkg/validation"
)

type (
	ValidationError  = validation.FieldError
	ValidationErrors = validation.Errors
)

type ResourceValidator struct {
	tags   *validation.Validator
	logger *logger.Logger
}

func NewResourceValidator(log *logger.Logger) *ResourceValidator {
	return &ResourceValidator{tags: validation.New(), logger: log}
}

// Validate checks a full resource. Capacity and facilities describe rooms;
// equipment must leave them empty.
func (v *ResourceValidator) Validate(res *model.Resource) error {
	if err := v.tags.Struct(res); err != nil {
		return err
	}
	if res.Kind != model.ResourceKindEquipment {
		return nil
	}

	var errs ValidationErrors
	if res.Capacity != 0 {
		errs.Add("Capacity", "capacity applies to rooms only")
	}
	if len(res.Facilities) > 0 {
		errs.Add("Facilities", "facilities apply to rooms only")
	}
	return errs.Err()
}

func (v *ResourceValidator) ValidateUpdate(update *model.ResourceUpdate) error {
	return v.tags.Struct(update)
}

func (v *ResourceValidator) ValidateStatus(update *model.ResourceStatusUpdate) error {
	return v.tags.Struct(update)
}
