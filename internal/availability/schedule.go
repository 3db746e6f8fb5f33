package availability

import (
	"fmt"
	"salonbook/pkg/model"
	"salonbook/pkg/validation"
	"time"
)

// Week holds one WorkDay per weekday, indexed by time.Weekday. The zero
// value of a day is closed.
type Week [7]model.WorkDay

// NormalizeWeek resolves stored keys through names. When several stored keys
// name the same day, the first one in stored order wins. Unknown keys are
// dropped and returned so callers can log them.
func NormalizeWeek(stored model.WeeklyAvailability, names *DayNames) (Week, []string) {
	var (
		week    Week
		seen    [7]bool
		unknown []string
	)
	for _, entry := range stored {
		d, ok := names.Weekday(entry.Day)
		if !ok {
			unknown = append(unknown, entry.Day)
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		week[d] = entry.Hours
	}
	return week, unknown
}

// Canonicalize rewrites a week into canonical keys, Monday first.
func (w Week) Canonicalize() model.WeeklyAvailability {
	out := make(model.WeeklyAvailability, 0, 7)
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		out = append(out, model.DayAvailability{Day: model.WeekdayKey(d), Hours: w[d]})
	}
	return out
}

// Interval is a half-open [Start, End) span of instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

func (i Interval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && i.End.After(start)
}

// Schedule is a professional's week plus date overrides, ready to answer
// "when does this person work on date D".
type Schedule struct {
	Week      Week
	Overrides []model.Override
}

func NewSchedule(p *model.Professional, names *DayNames) (Schedule, []string) {
	week, unknown := NormalizeWeek(p.RecurringAvailability, names)
	return Schedule{Week: week, Overrides: p.DateOverrides}, unknown
}

// Override returns the first override for date in list order.
func (s Schedule) Override(date model.Date) (model.Override, bool) {
	for _, o := range s.Overrides {
		if o.Date == date {
			return o, true
		}
	}
	return model.Override{}, false
}

// WorkInterval returns the working span for date in loc. The boolean is
// false on a closed day: an unavailable override, a day off, or hours whose
// end is not after their start.
func (s Schedule) WorkInterval(date model.Date, loc *time.Location) (Interval, bool, error) {
	var start, end string
	if o, ok := s.Override(date); ok {
		if o.Type == model.OverrideUnavailable {
			return Interval{}, false, nil
		}
		start, end = o.StartTime, o.EndTime
	} else {
		wd := s.Week[date.Weekday()]
		if !wd.IsWorkDay {
			return Interval{}, false, nil
		}
		start, end = wd.StartTime, wd.EndTime
	}

	from, err := clockOn(date, start, loc)
	if err != nil {
		return Interval{}, false, fmt.Errorf("%s start: %w", date, err)
	}
	to, err := clockOn(date, end, loc)
	if err != nil {
		return Interval{}, false, fmt.Errorf("%s end: %w", date, err)
	}

	iv := Interval{Start: from, End: to}
	if iv.Empty() {
		return Interval{}, false, nil
	}
	return iv, true, nil
}

// clockOn places an "HH:MM" wall-clock time on date in loc. Building the
// instant from fields keeps DST days correct.
func clockOn(date model.Date, clock string, loc *time.Location) (time.Time, error) {
	d, err := validation.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc), nil
}

// DayWindow is the local-day window [00:00, next 00:00) of date in loc.
func DayWindow(date model.Date, loc *time.Location) (time.Time, time.Time) {
	return date.In(loc), date.AddDays(1).In(loc)
}
