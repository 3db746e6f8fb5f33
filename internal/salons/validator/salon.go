package validator

import (
	"fmt"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"salonbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const minutesPerDay = 24 * 60

type SalonValidator struct {
	validate *validator.Validate
}

func NewSalonValidator(log *logger.Logger) *SalonValidator {
	return &SalonValidator{
		validate: validation.New(log),
	}
}

func (v *SalonValidator) Validate(salon *model.Salon) error {
	if err := validation.Struct(v.validate, salon); err != nil {
		return err
	}

	return v.validateBusinessRules(salon)
}

// ValidateServices checks a full replacement list on its own.
func (v *SalonValidator) ValidateServices(services []model.Service) error {
	wrapper := struct {
		Services []model.Service `json:"services" validate:"max=100,unique_service_names,dive"`
	}{Services: services}

	return validation.Struct(v.validate, wrapper)
}

// validateBusinessRules enforces that the slot grid tiles a whole day, so
// every day starts on the same grid.
func (v *SalonValidator) validateBusinessRules(salon *model.Salon) error {
	if g := salon.SlotGranularity; g > 0 && minutesPerDay%g != 0 {
		return validation.Field("slot_granularity_min", fmt.Sprintf("slot_granularity_min must divide a day evenly, got %d", g))
	}
	return nil
}
