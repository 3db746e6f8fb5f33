package validator

import (
	"fmt"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"salonbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ProfessionalValidator struct {
	validate *validator.Validate
}

func NewProfessionalValidator(log *logger.Logger) *ProfessionalValidator {
	return &ProfessionalValidator{
		validate: validation.New(log),
	}
}

// Validate expects the weekly availability in canonical keys.
func (v *ProfessionalValidator) Validate(p *model.Professional) error {
	if err := validation.Struct(v.validate, p); err != nil {
		return err
	}

	var errs validation.ValidationErrors
	errs = append(errs, checkWeek(p.RecurringAvailability)...)
	for i, o := range p.DateOverrides {
		errs = append(errs, checkOverride(fmt.Sprintf("date_overrides[%d]", i), o)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ProfessionalValidator) ValidateUpdate(u *model.ProfessionalUpdate) error {
	return validation.Struct(v.validate, u)
}

func (v *ProfessionalValidator) ValidateWeek(week model.WeeklyAvailability) error {
	for _, d := range week {
		if err := validation.Struct(v.validate, d); err != nil {
			return err
		}
	}
	if errs := checkWeek(week); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ProfessionalValidator) ValidateOverride(o model.Override) error {
	if err := validation.Struct(v.validate, o); err != nil {
		return err
	}
	if errs := checkOverride("override", o); len(errs) > 0 {
		return errs
	}
	return nil
}

func checkWeek(week model.WeeklyAvailability) validation.ValidationErrors {
	var errs validation.ValidationErrors
	for _, d := range week {
		if !d.Hours.IsWorkDay {
			continue
		}
		if !before(d.Hours.StartTime, d.Hours.EndTime) {
			errs = append(errs, validation.ValidationError{
				Field:   "recurring_availability." + d.Day,
				Message: "start_time must be before end_time",
			})
		}
	}
	return errs
}

func checkOverride(field string, o model.Override) validation.ValidationErrors {
	if o.Type != model.OverrideAvailable {
		return nil
	}
	if !before(o.StartTime, o.EndTime) {
		return validation.Field(field, "start_time must be before end_time")
	}
	return nil
}

func before(start, end string) bool {
	s, err := validation.ParseClock(start)
	if err != nil {
		return false
	}
	e, err := validation.ParseClock(end)
	if err != nil {
		return false
	}
	return s < e
}
