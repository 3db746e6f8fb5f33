package availability

import (
	"salonbook/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = model.NewDate(2025, time.March, 3)

func open(start, end string) model.WorkDay {
	return model.WorkDay{IsWorkDay: true, StartTime: start, EndTime: end}
}

func TestNormalizeWeek(t *testing.T) {
	names := DefaultDayNames()

	t.Run("legacy keys resolve to canonical days", func(t *testing.T) {
		stored := model.WeeklyAvailability{
			{Day: "Segunda-Feira", Hours: open("09:00", "12:00")},
			{Day: "terça", Hours: open("10:00", "18:00")},
			{Day: "SATURDAY", Hours: open("08:00", "12:00")},
		}
		week, unknown := NormalizeWeek(stored, names)

		assert.Empty(t, unknown)
		assert.Equal(t, open("09:00", "12:00"), week[time.Monday])
		assert.Equal(t, open("10:00", "18:00"), week[time.Tuesday])
		assert.Equal(t, open("08:00", "12:00"), week[time.Saturday])
		assert.False(t, week[time.Sunday].IsWorkDay, "absent day is closed")
	})

	t.Run("first stored key wins when two keys name the same day", func(t *testing.T) {
		stored := model.WeeklyAvailability{
			{Day: "segunda", Hours: model.WorkDay{IsWorkDay: false}},
			{Day: "monday", Hours: open("09:00", "12:00")},
		}
		week, _ := NormalizeWeek(stored, names)
		assert.False(t, week[time.Monday].IsWorkDay)

		stored[0], stored[1] = stored[1], stored[0]
		week, _ = NormalizeWeek(stored, names)
		assert.Equal(t, open("09:00", "12:00"), week[time.Monday])
	})

	t.Run("unknown keys are reported and ignored", func(t *testing.T) {
		stored := model.WeeklyAvailability{
			{Day: "feriado", Hours: open("09:00", "12:00")},
			{Day: "monday", Hours: open("09:00", "12:00")},
		}
		week, unknown := NormalizeWeek(stored, names)
		assert.Equal(t, []string{"feriado"}, unknown)
		assert.True(t, week[time.Monday].IsWorkDay)
	})
}

func TestWeek_Canonicalize(t *testing.T) {
	week, _ := NormalizeWeek(model.WeeklyAvailability{
		{Day: "domingo", Hours: open("10:00", "14:00")},
		{Day: "segunda", Hours: open("09:00", "12:00")},
	}, DefaultDayNames())

	got := week.Canonicalize()
	require.Len(t, got, 7)
	assert.Equal(t, model.Monday, got[0].Day)
	assert.Equal(t, open("09:00", "12:00"), got[0].Hours)
	assert.Equal(t, model.Sunday, got[6].Day)
	assert.Equal(t, open("10:00", "14:00"), got[6].Hours)
	assert.False(t, got[1].Hours.IsWorkDay)
}

func TestSchedule_WorkInterval(t *testing.T) {
	week := model.WeeklyAvailability{
		{Day: model.Monday, Hours: open("09:00", "12:00")},
		{Day: model.Tuesday, Hours: model.WorkDay{IsWorkDay: false}},
	}

	tests := []struct {
		name      string
		overrides []model.Override
		date      model.Date
		wantOpen  bool
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "recurring hours",
			date:      monday,
			wantOpen:  true,
			wantStart: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "day off",
			date: monday.AddDays(1),
		},
		{
			name: "day absent from storage",
			date: monday.AddDays(2),
		},
		{
			name:      "unavailable override closes a working day",
			overrides: []model.Override{{Date: monday, Type: model.OverrideUnavailable}},
			date:      monday,
		},
		{
			name:      "available override replaces recurring hours",
			overrides: []model.Override{{Date: monday, Type: model.OverrideAvailable, StartTime: "14:00", EndTime: "16:00"}},
			date:      monday,
			wantOpen:  true,
			wantStart: time.Date(2025, time.March, 3, 14, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.March, 3, 16, 0, 0, 0, time.UTC),
		},
		{
			name:      "available override opens a day off",
			overrides: []model.Override{{Date: monday.AddDays(1), Type: model.OverrideAvailable, StartTime: "10:00", EndTime: "11:00"}},
			date:      monday.AddDays(1),
			wantOpen:  true,
			wantStart: time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.March, 4, 11, 0, 0, 0, time.UTC),
		},
		{
			name: "first override for a date wins",
			overrides: []model.Override{
				{Date: monday, Type: model.OverrideUnavailable},
				{Date: monday, Type: model.OverrideAvailable, StartTime: "09:00", EndTime: "18:00"},
			},
			date: monday,
		},
		{
			name:      "override on another date is ignored",
			overrides: []model.Override{{Date: monday.AddDays(7), Type: model.OverrideUnavailable}},
			date:      monday,
			wantOpen:  true,
			wantStart: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC),
		},
		{
			name:      "inverted hours are a closed day",
			overrides: []model.Override{{Date: monday, Type: model.OverrideAvailable, StartTime: "12:00", EndTime: "09:00"}},
			date:      monday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Professional{RecurringAvailability: week, DateOverrides: tt.overrides}
			s, _ := NewSchedule(p, DefaultDayNames())

			iv, ok, err := s.WorkInterval(tt.date, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, ok)
			if tt.wantOpen {
				assert.True(t, tt.wantStart.Equal(iv.Start), "start = %s", iv.Start)
				assert.True(t, tt.wantEnd.Equal(iv.End), "end = %s", iv.End)
			}
		})
	}
}

func TestSchedule_WorkIntervalUsesSalonZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	p := &model.Professional{RecurringAvailability: model.WeeklyAvailability{{Day: model.Monday, Hours: open("09:00", "12:00")}}}
	s, _ := NewSchedule(p, DefaultDayNames())

	iv, ok, err := s.WorkInterval(monday, loc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC), iv.Start.UTC())
}

func TestSchedule_WorkIntervalMalformedHours(t *testing.T) {
	p := &model.Professional{RecurringAvailability: model.WeeklyAvailability{{Day: model.Monday, Hours: open("9h", "12:00")}}}
	s, _ := NewSchedule(p, DefaultDayNames())

	_, ok, err := s.WorkInterval(monday, time.UTC)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDayWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)

	// 2025-03-30 is 23 hours long in Lisbon.
	from, to := DayWindow(model.NewDate(2025, time.March, 30), loc)
	assert.Equal(t, 23*time.Hour, to.Sub(from))
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, 0, to.Hour())
}
