package crawler

import (
	"context"
	"math"
	"sync"
)

// DefaultSuccessWindow is the number of successful requests, with no block
// in between, after which the Scaler raises its limit by one step.
const DefaultSuccessWindow = 10

// Scaler is a concurrency limit that moves between a minimum and a maximum.
// Blocked responses lower the limit by the scale-down step; a window of
// successes raises it by the scale-up step. Acquire parks callers while the
// number of active workers is at the limit.
type Scaler struct {
	mu      sync.Mutex
	changed chan struct{}

	minLimit int
	maxLimit int
	limit    int
	active   int

	upStep        int
	downStep      int
	successWindow int
	successes     int
}

// NewScaler creates a Scaler starting at desired. Steps are the given
// fractions of maxLimit, rounded up to at least one worker.
func NewScaler(minLimit, maxLimit, desired int, upRatio, downRatio float64) *Scaler {
	minLimit = max(minLimit, 1)
	maxLimit = max(maxLimit, minLimit)
	return &Scaler{
		changed:       make(chan struct{}),
		minLimit:      minLimit,
		maxLimit:      maxLimit,
		limit:         min(max(desired, minLimit), maxLimit),
		upStep:        step(maxLimit, upRatio),
		downStep:      step(maxLimit, downRatio),
		successWindow: DefaultSuccessWindow,
	}
}

func step(maxLimit int, ratio float64) int {
	return max(int(math.Ceil(float64(maxLimit)*ratio)), 1)
}

// Acquire blocks until a worker slot is free or ctx is done.
func (s *Scaler) Acquire(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.active < s.limit {
			s.active++
			s.mu.Unlock()
			return nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Release frees a slot taken by Acquire.
func (s *Scaler) Release() {
	s.mu.Lock()
	s.active--
	s.notifyLocked()
	s.mu.Unlock()
}

// Blocked records an overload signal and scales down.
func (s *Scaler) Blocked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = 0
	s.limit = max(s.limit-s.downStep, s.minLimit)
}

// Succeeded records a successful request and scales up once a full window
// of successes has been seen.
func (s *Scaler) Succeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
	if s.successes < s.successWindow {
		return
	}
	s.successes = 0
	if s.limit < s.maxLimit {
		s.limit = min(s.limit+s.upStep, s.maxLimit)
		s.notifyLocked()
	}
}

// Limit returns the current concurrency limit.
func (s *Scaler) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// Active returns the number of held slots.
func (s *Scaler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scaler) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
