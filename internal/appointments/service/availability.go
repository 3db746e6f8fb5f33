package service

import (
	"context"
	"fmt"
	"salonbook/internal/availability"
	apperrors "salonbook/pkg/errors"
	"salonbook/pkg/model"
	"time"
)

// GetAvailableSlots lists the professional's free slots on q.Date in the
// salon's timezone. A closed day yields an empty slice.
func (s *appointmentService) GetAvailableSlots(ctx context.Context, q AvailabilityQuery) ([]model.TimeSlot, error) {
	if q.ProfessionalID == "" {
		return nil, apperrors.InvalidInput("professional_id is required")
	}
	if q.Date.IsZero() {
		return nil, apperrors.InvalidInput("date is required")
	}
	if q.Mode == "" {
		q.Mode = availability.ModeOverlap
	}

	p, salon, err := s.loadContext(ctx, q.ProfessionalID)
	if err != nil {
		return nil, err
	}

	var duration time.Duration
	if q.ServiceName != "" {
		svc, ok := salon.FindService(q.ServiceName)
		if !ok {
			return nil, apperrors.Validation("Unknown service", map[string]any{
				"service_name": fmt.Sprintf("salon does not offer %q", q.ServiceName),
			})
		}
		duration = svc.Duration()
	}

	if !p.Active {
		return []model.TimeSlot{}, nil
	}

	schedule, unknown := s.resolver.Schedule(p)
	if len(unknown) > 0 {
		s.cfg.Log.Warn("Ignoring unknown weekday keys",
			"professional_id", p.ID,
			"keys", unknown,
		)
	}

	loc := salon.Location(s.cfg.Location())
	iv, open, err := schedule.WorkInterval(q.Date, loc)
	if err != nil {
		// Unreadable hours close the day rather than fail the query.
		s.cfg.Log.Warn("Stored working hours are malformed",
			"professional_id", p.ID,
			"date", q.Date.String(),
			"error", err,
		)
		open = false
	}
	if !open {
		s.metrics.AvailabilityQuery(string(q.Mode), 0)
		return []model.TimeSlot{}, nil
	}

	dayStart, dayEnd := availability.DayWindow(q.Date, loc)
	booked, err := s.repo.FindBlocking(ctx, p.ID, dayStart, dayEnd)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked appointments",
			"professional_id", p.ID,
			"date", q.Date.String(),
			"error", err,
		)
		return nil, s.mapError(err, "", "Failed to load booked appointments")
	}

	slots := s.resolver.Slots(p, iv, s.resolver.Granularity(salon), booked, availability.Options{
		Duration:      duration,
		Mode:          q.Mode,
		IncludeBooked: q.IncludeBooked,
	})
	s.metrics.AvailabilityQuery(string(q.Mode), len(slots))

	return slots, nil
}
