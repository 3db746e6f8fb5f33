package service

import (
	"context"
	"errors"
	"fmt"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/kafka"
	"salonbook/pkg/locale"
	"salonbook/pkg/metrics"
	"salonbook/pkg/model"
	"salonbook/pkg/sanitizer"
	"salonbook/pkg/validation"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create books an appointment. The professional's time is guarded three
// ways: slot locks on every granularity bucket the booking covers, an
// overlap re-check inside a transaction, and the partial unique index on
// (professional_id, start_time).
func (s *appointmentService) Create(ctx context.Context, a *model.Appointment) (*model.AppointmentReceipt, error) {
	p, salon, err := s.prepare(ctx, a)
	if err != nil {
		s.metrics.Booking(outcomeOf(err))
		return nil, err
	}

	release, err := s.lockSlots(ctx, p.ID, a.StartTime, a.EndTime, s.resolver.Granularity(salon))
	if err != nil {
		s.cfg.Log.Warn("Slot lock not acquired",
			"professional_id", p.ID,
			"start_time", a.StartTime,
			"error", err,
		)
		mapped := s.mapError(err, "", "Failed to lock time slot")
		s.metrics.Booking(outcomeOf(mapped))
		return nil, mapped
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindBlocking(sessCtx, a.ProfessionalID, a.StartTime, a.EndTime)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperrors.Conflict(fmt.Sprintf("Professional already has an appointment at %s", existing[0].StartTime.Format(time.RFC3339)))
		}
		return s.repo.Create(sessCtx, a)
	})
	if err != nil {
		mapped := s.mapError(err, "", "Failed to create appointment")
		if apperrors.HasCode(mapped, apperrors.CodeConflict) {
			s.cfg.Log.Warn("Booking conflict",
				"professional_id", a.ProfessionalID,
				"start_time", a.StartTime,
				"error", err,
			)
		} else {
			s.cfg.Log.Error("Failed to create appointment",
				"professional_id", a.ProfessionalID,
				"start_time", a.StartTime,
				"error", err,
			)
		}
		s.metrics.Booking(outcomeOf(mapped))
		return nil, mapped
	}

	s.metrics.Booking(metrics.OutcomeCreated)
	s.cfg.Log.Info("Appointment created successfully",
		"id", a.ID,
		"salon_id", a.SalonID,
		"professional_id", a.ProfessionalID,
		"start_time", a.StartTime,
	)

	s.publish(ctx, kafka.EventAppointmentCreated, kafka.PayloadOf(a))

	receipt := &model.AppointmentReceipt{Appointment: a}
	if s.sealer != nil {
		token, err := s.sealer.Seal(a.ID, a.ClientPhone)
		if err != nil {
			s.cfg.Log.Error("Failed to issue manage token", "id", a.ID, "error", err)
		} else {
			receipt.ManageToken = token
		}
	}
	return receipt, nil
}

// prepare sanitizes and defaults a from the salon's service catalogue and
// checks every rule that does not need the write guard.
func (s *appointmentService) prepare(ctx context.Context, a *model.Appointment) (*model.Professional, *model.Salon, error) {
	a.ID = ""
	a.SalonID = sanitizer.TrimAndNormalize(a.SalonID)
	a.ProfessionalID = sanitizer.TrimAndNormalize(a.ProfessionalID)
	a.ClientName = sanitizer.NormalizeName(a.ClientName)
	a.ClientEmail = sanitizer.NormalizeEmail(a.ClientEmail)
	a.ServiceName = sanitizer.TrimAndNormalize(a.ServiceName)
	a.Notes = sanitizer.TrimAndNormalize(a.Notes)

	if a.SalonID == "" || a.ProfessionalID == "" {
		details := validation.ValidationErrors{}
		if a.SalonID == "" {
			details = append(details, validation.ValidationError{Field: "salon_id", Message: "salon_id is required"})
		}
		if a.ProfessionalID == "" {
			details = append(details, validation.ValidationError{Field: "professional_id", Message: "professional_id is required"})
		}
		return nil, nil, apperrors.Validation("Appointment validation failed", details.Details())
	}

	p, salon, err := s.loadContext(ctx, a.ProfessionalID)
	if err != nil {
		return nil, nil, err
	}
	if p.SalonID != a.SalonID {
		return nil, nil, apperrors.Validation("Appointment validation failed",
			validation.Field("professional_id", "professional does not work at this salon").Details())
	}
	if !p.Active {
		return nil, nil, apperrors.Validation("Appointment validation failed",
			validation.Field("professional_id", "professional is not taking appointments").Details())
	}

	svc, ok := salon.FindService(a.ServiceName)
	if !ok {
		return nil, nil, apperrors.Validation("Appointment validation failed",
			validation.Field("service_name", fmt.Sprintf("salon does not offer %q", a.ServiceName)).Details())
	}
	a.ServiceName = svc.Name

	region := locale.RegionForTimezone(salon.TimeZone)
	if region == "" {
		region = locale.RegionForTimezone(s.cfg.DefaultTimezone)
	}
	if phone := sanitizer.NormalizePhone(a.ClientPhone, region); phone != "" {
		a.ClientPhone = phone
	} else if a.ClientPhone != "" {
		return nil, nil, apperrors.Validation("Appointment validation failed",
			validation.Field("client_phone", "client_phone must be a valid phone number").Details())
	}

	now := s.now().UTC()
	a.StartTime = a.StartTime.UTC()
	if !a.StartTime.IsZero() {
		// The service catalogue owns the length of a booking.
		want := a.StartTime.Add(svc.Duration())
		if !a.EndTime.IsZero() && !a.EndTime.Equal(want) {
			return nil, nil, apperrors.Validation("Appointment validation failed",
				validation.Field("end_time", fmt.Sprintf("end_time must be start_time plus the %s duration (%s)", svc.Name, svc.Duration())).Details())
		}
		a.EndTime = want
	}
	a.EndTime = a.EndTime.UTC()
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	if a.Price == nil {
		price := svc.Price
		a.Price = &price
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	a.CancelledAt = nil

	if err := s.validator.Validate(a, now); err != nil {
		s.cfg.Log.Warn("Appointment validation failed",
			"professional_id", a.ProfessionalID,
			"start_time", a.StartTime,
			"error", err,
		)
		return nil, nil, validationError("Appointment validation failed", err)
	}

	return p, salon, nil
}

// lockSlots takes one lock per granularity bucket touched by [start, end),
// in chronological order. On failure every lock taken so far is released.
func (s *appointmentService) lockSlots(ctx context.Context, professionalID string, start, end time.Time, g time.Duration) (func(), error) {
	owner := uuid.NewString()
	expires := s.now().Add(s.cfg.SlotLockTTL)

	var held []string
	release := func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreOpTimeout)
		defer cancel()
		for _, id := range held {
			if err := s.locks.Release(ctx, id, owner); err != nil {
				s.cfg.Log.Warn("Failed to release slot lock",
					"lock_id", id,
					"error", err,
				)
			}
		}
	}

	for _, id := range lockIDs(professionalID, start, end, g) {
		lock := &model.SlotLock{ID: id, Owner: owner, ExpiresAt: expires}
		if err := s.locks.Acquire(ctx, lock); err != nil {
			release()
			return nil, err
		}
		held = append(held, id)
	}
	return release, nil
}

func lockIDs(professionalID string, start, end time.Time, g time.Duration) []string {
	if g <= 0 {
		g = time.Minute
	}
	var ids []string
	for t := start.Truncate(g); t.Before(end); t = t.Add(g) {
		ids = append(ids, fmt.Sprintf("slot_%s_%d", professionalID, t.Unix()))
	}
	return ids
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case apperrors.HasCode(err, apperrors.CodeConflict):
		return metrics.OutcomeConflict
	case apperrors.HasCode(err, apperrors.CodeValidation),
		apperrors.HasCode(err, apperrors.CodeInvalidInput),
		apperrors.HasCode(err, apperrors.CodeNotFound),
		apperrors.HasCode(err, apperrors.CodeForbidden):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

func validationError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
