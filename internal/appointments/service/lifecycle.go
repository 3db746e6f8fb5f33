package service

import (
	"fmt"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/model"
)

// transitions lists the legal next statuses. Completed and cancelled are
// terminal.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusScheduled: {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether an appointment in from may move to to.
// Staying in the same status is not a transition.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to model.AppointmentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperrors.Validation(
		fmt.Sprintf("Cannot change appointment status from %s to %s", from, to),
		map[string]any{"status": fmt.Sprintf("%s is not reachable from %s", to, from)},
	)
}
