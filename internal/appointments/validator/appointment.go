package validator

import (
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"salonbook/pkg/validation"
	"time"

	"github.com/go-playground/validator/v10"
)

type AppointmentValidator struct {
	validate *validator.Validate
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	return &AppointmentValidator{
		validate: validation.New(log),
	}
}

// Validate checks a fully defaulted appointment about to be booked at now.
func (v *AppointmentValidator) Validate(a *model.Appointment, now time.Time) error {
	if err := validation.Struct(v.validate, a); err != nil {
		return err
	}

	var errs validation.ValidationErrors
	if a.Status != model.StatusScheduled && a.Status != model.StatusConfirmed {
		errs = append(errs, validation.ValidationError{
			Field:   "status",
			Message: "new appointments must be scheduled or confirmed",
		})
	}
	if !a.StartTime.After(now) {
		errs = append(errs, validation.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in the future",
		})
	}
	if a.Price != nil && a.Price.IsNegative() {
		errs = append(errs, validation.ValidationError{
			Field:   "price",
			Message: "price cannot be negative",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *AppointmentValidator) ValidateStatusUpdate(u *model.StatusUpdate) error {
	return validation.Struct(v.validate, u)
}

func (v *AppointmentValidator) ValidateCancelByToken(c *model.CancelByToken) error {
	return validation.Struct(v.validate, c)
}
