package availability

import (
	"fmt"
	"salonbook/pkg/model"
	"strings"
	"time"
)

// Mode selects how booked appointments remove candidate slots.
type Mode string

const (
	// ModeOverlap removes a slot when [slot, slot+duration) intersects any
	// booked [start, end).
	ModeOverlap Mode = "overlap"
	// ModeExactStart removes a slot only when a booking starts at exactly the
	// same instant. Longer bookings do not block the slots they run into.
	ModeExactStart Mode = "exact_start"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeOverlap:
		return ModeOverlap, nil
	case ModeExactStart:
		return ModeExactStart, nil
	default:
		return "", fmt.Errorf("unknown availability mode %q", s)
	}
}

type Options struct {
	// Duration of the requested service. Zero means one granularity step.
	Duration      time.Duration
	Mode          Mode
	IncludeBooked bool
}

// Resolver turns a professional's schedule and bookings into the slots
// offered for one day. It performs no I/O.
type Resolver struct {
	names       *DayNames
	granularity time.Duration
}

func NewResolver(names *DayNames, granularity time.Duration) *Resolver {
	if names == nil {
		names = DefaultDayNames()
	}
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Resolver{names: names, granularity: granularity}
}

// Granularity is the salon's own step when set, else the resolver default.
func (r *Resolver) Granularity(salon *model.Salon) time.Duration {
	if salon != nil && salon.SlotGranularity > 0 {
		return time.Duration(salon.SlotGranularity) * time.Minute
	}
	return r.granularity
}

func (r *Resolver) Schedule(p *model.Professional) (Schedule, []string) {
	return NewSchedule(p, r.names)
}

// Slots lists the candidates of iv that survive the conflict filter, in
// chronological order. Cancelled appointments never block. With
// IncludeBooked, blocked candidates are kept and flagged IsBooked.
func (r *Resolver) Slots(p *model.Professional, iv Interval, g time.Duration, booked []*model.Appointment, opts Options) []model.TimeSlot {
	span := opts.Duration
	if span <= 0 {
		span = g
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeOverlap
	}

	blocking := make([]*model.Appointment, 0, len(booked))
	for _, a := range booked {
		if a.Status.Blocks() {
			blocking = append(blocking, a)
		}
	}

	out := []model.TimeSlot{}
	for start := range Generate(iv.Start, iv.End, g).All() {
		end := start.Add(span)
		if mode == ModeOverlap && end.After(iv.End) {
			continue
		}

		taken := isTaken(blocking, start, end, mode)
		if taken && !opts.IncludeBooked {
			continue
		}
		out = append(out, model.TimeSlot{
			ProfessionalID: p.ID,
			SalonID:        p.SalonID,
			StartTime:      start,
			EndTime:        end,
			IsBooked:       taken,
		})
	}
	return out
}

func isTaken(booked []*model.Appointment, start, end time.Time, mode Mode) bool {
	for _, a := range booked {
		switch mode {
		case ModeExactStart:
			if a.StartTime.Equal(start) {
				return true
			}
		default:
			if a.Overlaps(start, end) {
				return true
			}
		}
	}
	return false
}
