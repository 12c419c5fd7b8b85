package politeness

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/jobharvest/internal/model"
	"github.com/nao1215/jobharvest/internal/proxy"
)

// Backoff tuning.
const (
	// BackoffDecayStep is subtracted from the global backoff on every request.
	BackoffDecayStep = 50 * time.Millisecond

	// BackoffCeiling caps the global backoff.
	BackoffCeiling = 5000 * time.Millisecond

	// blockIncreaseBase, blockIncreasePerBlock and blockIncreaseCap give the
	// backoff added per block: min(base + blocked*perBlock, cap).
	blockIncreaseBase     = 1000 * time.Millisecond
	blockIncreasePerBlock = 200 * time.Millisecond
	blockIncreaseCap      = 3000 * time.Millisecond

	// SuccessThreshold is the number of consecutive successes after which the
	// backoff is lowered by SuccessDecayStep.
	SuccessThreshold = 10
	SuccessDecayStep = 100 * time.Millisecond

	// penaltyBase and penaltySpread give the extra pause after a block.
	penaltyBase   = 500 * time.Millisecond
	penaltySpread = 500 * time.Millisecond
)

// Outcome is the classification of a response status.
type Outcome int

const (
	// Neutral statuses neither raise nor lower the backoff.
	Neutral Outcome = iota
	// Success is a 200 response.
	Success
	// Blocked is a 403, 429 or 503 response.
	Blocked
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Blocked:
		return "blocked"
	default:
		return "neutral"
	}
}

// Classify maps an HTTP status code to an Outcome.
func Classify(status int) Outcome {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return Blocked
	case http.StatusOK:
		return Success
	default:
		return Neutral
	}
}

// State is the process-wide politeness state.
type State = model.PolitenessState

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Controller decides per-request delays and adapts them to blocking.
type Controller struct {
	baseDelay   time.Duration
	delaySpread time.Duration
	limiter     *rate.Limiter
	sleep       Sleeper
	logger      *slog.Logger

	mu    sync.Mutex
	state State
	rng   func() float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithRequestsPerSecond enables a token-bucket gate in front of the delay.
// Zero or negative disables it.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Controller) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithSleeper replaces the sleep function.
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithRand replaces the jitter source. f must return values in [0, 1).
func WithRand(f func() float64) Option {
	return func(c *Controller) {
		if f != nil {
			c.rng = f
		}
	}
}

// WithLogger sets the logger for block warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller paced for the given proxy profile.
func New(profile proxy.Profile, opts ...Option) *Controller {
	c := &Controller{
		baseDelay:   profile.BaseDelay,
		delaySpread: profile.DelaySpread,
		sleep:       sleepContext,
		logger:      slog.Default(),
		rng:         rand.Float64, //nolint:gosec // jitter is not security sensitive
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Before blocks until the next request may be sent. It waits for the rate
// gate, then for the current global backoff (which is decayed by
// BackoffDecayStep regardless of the outcome of the request), then for the
// jittered per-request delay.
func (c *Controller) Before(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	backoff := c.state.GlobalBackoff
	if backoff > 0 {
		c.state.GlobalBackoff = max(0, backoff-BackoffDecayStep)
	}
	delay := c.baseDelay + c.jitterLocked(c.delaySpread)
	c.mu.Unlock()

	if backoff > 0 {
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
	}
	return c.sleep(ctx, delay)
}

// After records a response status and returns its classification. Blocked
// responses raise the backoff and pause for a short randomized penalty; the
// caller is responsible for retiring the session that was blocked.
func (c *Controller) After(ctx context.Context, status int) (Outcome, error) {
	outcome := Classify(status)

	switch outcome {
	case Blocked:
		c.mu.Lock()
		c.state.BlockedCount++
		c.state.ConsecutiveSuccesses = 0
		increase := min(blockIncreaseBase+time.Duration(c.state.BlockedCount)*blockIncreasePerBlock, blockIncreaseCap)
		c.state.GlobalBackoff = min(c.state.GlobalBackoff+increase, BackoffCeiling)
		backoff, blocked := c.state.GlobalBackoff, c.state.BlockedCount
		penalty := penaltyBase + c.jitterLocked(penaltySpread)
		c.mu.Unlock()

		c.logger.Warn("blocking response detected",
			"status", status,
			"backoff_ms", backoff.Milliseconds(),
			"blocked_count", blocked,
		)
		return outcome, c.sleep(ctx, penalty)

	case Success:
		c.mu.Lock()
		c.state.ConsecutiveSuccesses++
		if c.state.ConsecutiveSuccesses > SuccessThreshold {
			c.state.GlobalBackoff = max(0, c.state.GlobalBackoff-SuccessDecayStep)
			c.state.ConsecutiveSuccesses = 0
		}
		c.mu.Unlock()
	}

	return outcome, nil
}

// Restore replaces the current state with a previously saved one, clamped
// to the valid range.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = clampState(s)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) jitterLocked(spread time.Duration) time.Duration {
	if spread <= 0 {
		return 0
	}
	return time.Duration(c.rng() * float64(spread))
}

func clampState(s State) State {
	s.GlobalBackoff = min(max(s.GlobalBackoff, 0), BackoffCeiling)
	s.ConsecutiveSuccesses = max(s.ConsecutiveSuccesses, 0)
	s.BlockedCount = max(s.BlockedCount, 0)
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
