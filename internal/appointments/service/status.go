package service

import (
	"context"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/kafka"
	"salonbook/pkg/model"
	"salonbook/pkg/sanitizer"
)

func (s *appointmentService) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(&model.StatusUpdate{Status: status}); err != nil {
		return nil, validationError("Status validation failed", err)
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to check appointment existence")
	}
	if err := s.authorize(ctx, a); err != nil {
		return nil, err
	}

	return s.transition(ctx, a, status)
}

// Cancel keeps the record; only its status changes.
func (s *appointmentService) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, id, model.StatusCancelled)
}

// CancelByToken lets a client cancel with the token issued at booking. The
// phone supplied must be the one the appointment was booked with.
func (s *appointmentService) CancelByToken(ctx context.Context, req *model.CancelByToken) (*model.Appointment, error) {
	if err := s.validator.ValidateCancelByToken(req); err != nil {
		return nil, validationError("Cancellation validation failed", err)
	}
	if s.sealer == nil {
		return nil, apperrors.Unauthorized("Manage tokens are not enabled")
	}

	id, sealedPhone, err := s.sealer.Open(req.Token)
	if err != nil {
		s.cfg.Log.Warn("Rejected manage token", "error", err)
		return nil, apperrors.Unauthorized("Invalid manage token")
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to check appointment existence")
	}

	phone := sanitizer.NormalizePhone(req.Phone, sanitizer.RegionOf(a.ClientPhone))
	if phone == "" || phone != sealedPhone || phone != a.ClientPhone {
		s.cfg.Log.Warn("Manage token phone mismatch", "id", a.ID)
		return nil, apperrors.Forbidden("Phone number does not match the appointment")
	}

	return s.transition(ctx, a, model.StatusCancelled)
}

// transition applies one FSM step with a write conditioned on the status
// that was read, so a concurrent change surfaces as a conflict.
func (s *appointmentService) transition(ctx context.Context, a *model.Appointment, to model.AppointmentStatus) (*model.Appointment, error) {
	from := a.Status
	if err := checkTransition(from, to); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, a.ID, from, to, at); err != nil {
		mapped := s.mapError(err, a.ID, "Failed to update appointment status")
		if apperrors.HasCode(mapped, apperrors.CodeConflict) {
			s.cfg.Log.Warn("Concurrent status change",
				"id", a.ID,
				"from", from,
				"to", to,
			)
		} else {
			s.cfg.Log.Error("Failed to update appointment status",
				"id", a.ID,
				"from", from,
				"to", to,
				"error", err,
			)
		}
		return nil, mapped
	}

	updated := *a
	updated.Status = to
	updated.UpdatedAt = at
	if to == model.StatusCancelled {
		updated.CancelledAt = &at
	}

	s.metrics.StatusTransition(string(from), string(to))
	s.cfg.Log.Info("Appointment status updated",
		"id", a.ID,
		"from", from,
		"to", to,
	)

	payload := kafka.PayloadOf(&updated)
	payload.PreviousStatus = from
	s.publish(ctx, kafka.EventAppointmentStatusChanged, payload)

	return &updated, nil
}
