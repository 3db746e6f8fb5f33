package availability

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2025, time.March, 3, h, m, 0, 0, time.UTC)
}

func TestGenerate_CountAndSpacing(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		g     time.Duration
		want  int
	}{
		{"three hours at 30m", at(9, 0), at(12, 0), 30 * time.Minute, 6},
		{"partial tail dropped", at(9, 0), at(10, 45), 30 * time.Minute, 3},
		{"exactly one slot", at(9, 0), at(9, 30), 30 * time.Minute, 1},
		{"shorter than one slot", at(9, 0), at(9, 29), 30 * time.Minute, 0},
		{"15m steps", at(8, 0), at(18, 0), 15 * time.Minute, 40},
		{"odd step", at(9, 0), at(12, 0), 25 * time.Minute, 7},
		{"start equals end", at(9, 0), at(9, 0), 30 * time.Minute, 0},
		{"start after end", at(12, 0), at(9, 0), 30 * time.Minute, 0},
		{"zero granularity", at(9, 0), at(12, 0), 0, 0},
		{"negative granularity", at(9, 0), at(12, 0), -time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Generate(tt.start, tt.end, tt.g)
			got := slices.Collect(s.All())

			assert.Len(t, got, tt.want)
			assert.Equal(t, tt.want, s.Len())
			for i, slot := range got {
				assert.True(t, slot.Before(tt.end), "slot %s starts at or after end", slot)
				assert.False(t, slot.Add(tt.g).After(tt.end), "slot %s does not fit", slot)
				if i > 0 {
					assert.Equal(t, tt.g, slot.Sub(got[i-1]))
				}
			}
			if tt.want > 0 {
				assert.Equal(t, tt.start, got[0])
			}
		})
	}
}

func TestGenerate_MondayMorning(t *testing.T) {
	got := slices.Collect(Generate(at(9, 0), at(12, 0), DefaultGranularity).All())

	assert.Equal(t, []time.Time{
		at(9, 0), at(9, 30), at(10, 0), at(10, 30), at(11, 0), at(11, 30),
	}, got)
}

func TestGenerate_Restartable(t *testing.T) {
	s := Generate(at(9, 0), at(12, 0), DefaultGranularity)

	first := slices.Collect(s.All())
	second := slices.Collect(s.All())
	assert.Equal(t, first, second)
}

func TestGenerate_StopsWhenConsumerBreaks(t *testing.T) {
	var seen []time.Time
	for slot := range Generate(at(9, 0), at(18, 0), DefaultGranularity).All() {
		seen = append(seen, slot)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []time.Time{at(9, 0), at(9, 30)}, seen)
}
