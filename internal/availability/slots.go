package availability

import (
	"iter"
	"time"
)

const DefaultGranularity = 30 * time.Minute

// Slots is the candidate start sequence over [start, end). It holds no
// state, so All can be ranged over any number of times.
type Slots struct {
	start time.Time
	end   time.Time
	step  time.Duration
}

// Generate returns the slot starts start, start+g, ... for every slot that
// fits entirely before end. A trailing partial slot is dropped, and
// start >= end or g <= 0 gives an empty sequence.
func Generate(start, end time.Time, g time.Duration) Slots {
	return Slots{start: start, end: end, step: g}
}

func (s Slots) Len() int {
	if s.step <= 0 || !s.start.Before(s.end) {
		return 0
	}
	return int(s.end.Sub(s.start) / s.step)
}

func (s Slots) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		n := s.Len()
		for i := 0; i < n; i++ {
			if !yield(s.start.Add(time.Duration(i) * s.step)) {
				return
			}
		}
	}
}
