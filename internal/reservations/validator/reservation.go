package validator

import (
	"strings"

	"campusbook/pkg/logger"
	"campusbook/pkg/model"
	"campusbook/pkg/validation"
)

type (
	ValidationError  = validation.FieldError
	ValidationErrors = validation.Errors
)

// ReservationValidator adds the cross-field rules struct tags cannot express.
type ReservationValidator struct {
	tags   *validation.Validator
	logger *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{tags: validation.New(), logger: log}
}

func (v *ReservationValidator) Validate(req *model.NewReservation) error {
	if err := v.tags.Struct(req); err != nil {
		return err
	}
	if !req.StartTime.Before(req.EndTime) {
		return validation.Single("EndTime", "end time must be after start time")
	}
	return nil
}

func (v *ReservationValidator) ValidateUpdate(upd *model.ReservationUpdate) error {
	if err := v.tags.Struct(upd); err != nil {
		return err
	}

	var errs ValidationErrors
	if upd.StartTime != nil && upd.EndTime != nil && !upd.StartTime.Before(*upd.EndTime) {
		errs.Add("EndTime", "end time must be after start time")
	}
	if !upd.ChangesTime() && upd.Purpose == nil && upd.Attendees == nil {
		errs.Add("Update", "at least one field must be provided")
	}
	return errs.Err()
}

func (v *ReservationValidator) ValidateDecision(d *model.Decision) error {
	if err := v.tags.Struct(d); err != nil {
		return err
	}
	if d.Action == model.DecisionReject && strings.TrimSpace(d.Reason) == "" {
		return validation.Single("Reason", "Reason is required when rejecting")
	}
	return nil
}

func (v *ReservationValidator) ValidateRequest(req *model.ReservationRequest) error {
	return v.tags.Struct(req)
}

func (v *ReservationValidator) ValidateUpdateRequest(req *model.ReservationUpdateRequest) error {
	if err := v.tags.Struct(req); err != nil {
		return err
	}
	switch {
	case req.HasClock() && req.Date == "":
		return validation.Single("Date", "date is required with start_time or end_time")
	case req.Date != "" && !req.HasClock():
		return validation.Single("StartTime", "start_time or end_time is required with date")
	}
	return nil
}
