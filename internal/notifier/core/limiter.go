package core

import "context"

const MaxConcurrentCalls = 40

// Limiter bounds the number of outbound calls in flight.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = MaxConcurrentCalls
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Do runs fn once a slot is free. The slot is released even if fn panics.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slots }()

	return fn()
}

// InFlight counts the calls currently holding a slot.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
