package service

import (
	"salonbook/pkg/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []model.AppointmentStatus{
		model.StatusScheduled,
		model.StatusConfirmed,
		model.StatusCompleted,
		model.StatusCancelled,
	}
	legal := map[[2]model.AppointmentStatus]bool{
		{model.StatusScheduled, model.StatusConfirmed}: true,
		{model.StatusScheduled, model.StatusCancelled}: true,
		{model.StatusConfirmed, model.StatusCompleted}: true,
		{model.StatusConfirmed, model.StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[[2]model.AppointmentStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition("", model.StatusScheduled))
	assert.False(t, CanTransition(model.StatusScheduled, "paid"))
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, checkTransition(model.StatusScheduled, model.StatusConfirmed))

	err := checkTransition(model.StatusCompleted, model.StatusCancelled)
	assertAppCode(t, err, "VALIDATION_ERROR")
	assert.Contains(t, err.Error(), "completed")
}
