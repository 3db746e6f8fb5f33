package validator

import (
	"errors"
	"salonbook/pkg/logger"
	"salonbook/pkg/model"
	"salonbook/pkg/validation"
	"testing"
	"time"
)

func validAppointment(start time.Time) *model.Appointment {
	price := model.MustMoney("45.00")
	return &model.Appointment{
		SalonID:        "65f1a2b3c4d5e6f708091a2b",
		ProfessionalID: "65f1a2b3c4d5e6f708091a2c",
		ClientName:     "Maria Souza",
		ClientPhone:    "+5511987654321",
		ServiceName:    "Corte",
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		Status:         model.StatusScheduled,
		Price:          &price,
	}
}

func TestAppointmentValidator_Validate(t *testing.T) {
	v := NewAppointmentValidator(logger.Discard())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mutate    func(a *model.Appointment)
		wantField string
	}{
		{"valid", func(a *model.Appointment) {}, ""},
		{"end before start", func(a *model.Appointment) { a.EndTime = a.StartTime.Add(-time.Minute) }, "end_time"},
		{"completed at creation", func(a *model.Appointment) { a.Status = model.StatusCompleted }, "status"},
		{"in the past", func(a *model.Appointment) {
			a.StartTime = now.Add(-time.Hour)
			a.EndTime = now
		}, "start_time"},
		{"negative price", func(a *model.Appointment) {
			p := model.MustMoney("-1")
			a.Price = &p
		}, "price"},
		{"bad phone", func(a *model.Appointment) { a.ClientPhone = "11987654321" }, "client_phone"},
		{"bad salon id", func(a *model.Appointment) { a.SalonID = "salon-1" }, "salon_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAppointment(start)
			tt.mutate(a)
			err := v.Validate(a, now)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs validation.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("details %v missing field %q", verrs.Details(), tt.wantField)
			}
		})
	}
}

func TestAppointmentValidator_StatusUpdate(t *testing.T) {
	v := NewAppointmentValidator(logger.Discard())
	if err := v.ValidateStatusUpdate(&model.StatusUpdate{Status: model.StatusConfirmed}); err != nil {
		t.Errorf("confirmed should be accepted: %v", err)
	}
	if err := v.ValidateStatusUpdate(&model.StatusUpdate{Status: "paid"}); err == nil {
		t.Error("unknown status should be rejected")
	}
	if err := v.ValidateCancelByToken(&model.CancelByToken{Token: "t"}); err == nil {
		t.Error("missing phone should be rejected")
	}
}
