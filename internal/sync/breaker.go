package sync

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
)

// ErrCircuitOpen is returned when a platform call is refused before it
// reaches the platform. Callers can distinguish "we gave up calling" from
// a platform-returned error by checking for it with errors.Is.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// BreakerStats is the observability snapshot exposed by the admin API.
type BreakerStats struct {
	Name             string       `json:"name"`
	State            BreakerState `json:"state"`
	Failures         int          `json:"failures"`
	HalfOpenAttempts int          `json:"halfOpenAttempts"`
	LastFailureTime  time.Time    `json:"lastFailureTime,omitempty"`
}

// CircuitBreaker gates calls to one platform. The mutex only protects the
// struct fields; the half-open over-admission race across separate
// CanExecute/Record* calls is a documented limitation for single-process
// deployments, and a shared-store implementation behind the same methods
// is the intended fix for distributed workers.
type CircuitBreaker struct {
	name                string
	failureThreshold    int
	resetTimeout        time.Duration
	halfOpenMaxAttempts int

	mu               sync.Mutex
	state            BreakerState
	failures         int
	halfOpenAttempts int
	lastFailureTime  time.Time
	now              func() time.Time
}

func NewCircuitBreaker(name string, cfg config.BreakerConfig) *CircuitBreaker {
	failureThreshold := cfg.FailureThreshold
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	halfOpenMax := cfg.HalfOpenMaxAttempts
	if halfOpenMax <= 0 {
		halfOpenMax = 3
	}

	return &CircuitBreaker{
		name:                name,
		failureThreshold:    failureThreshold,
		resetTimeout:        cfg.GetResetTimeout(),
		halfOpenMaxAttempts: halfOpenMax,
		state:               BreakerClosed,
		now:                 time.Now,
	}
}

// CanExecute reports whether a call may proceed. In the open state the
// check itself performs the open → half-open transition once the reset
// timeout has elapsed.
func (b *CircuitBreaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if b.now().Sub(b.lastFailureTime) >= b.resetTimeout {
			b.state = BreakerHalfOpen
			b.halfOpenAttempts = 0
			logger.Log.Info("Circuit breaker half-open, probing",
				zap.String("platform", b.name),
			)
			return true
		}
		return false

	case BreakerHalfOpen:
		return b.halfOpenAttempts < b.halfOpenMaxAttempts

	default:
		return false
	}
}

// RecordSuccess closes the breaker unconditionally. This is the only way
// out of half-open on the success path.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerClosed {
		logger.Log.Info("Circuit breaker closed",
			zap.String("platform", b.name),
		)
	}
	b.state = BreakerClosed
	b.failures = 0
	b.halfOpenAttempts = 0
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureTime = b.now()

	switch b.state {
	case BreakerHalfOpen:
		b.halfOpenAttempts++
		if b.halfOpenAttempts >= b.halfOpenMaxAttempts {
			b.state = BreakerOpen
			logger.Log.Warn("Circuit breaker re-opened after failed probes",
				zap.String("platform", b.name),
				zap.Int("attempts", b.halfOpenAttempts),
			)
		}
	case BreakerClosed:
		if b.failures >= b.failureThreshold {
			b.state = BreakerOpen
			logger.Log.Warn("Circuit breaker opened",
				zap.String("platform", b.name),
				zap.Int("failures", b.failures),
			)
		}
	}
}

func (b *CircuitBreaker) GetState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CircuitBreaker) GetStats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		Name:             b.name,
		State:            b.state,
		Failures:         b.failures,
		HalfOpenAttempts: b.halfOpenAttempts,
		LastFailureTime:  b.lastFailureTime,
	}
}

// BreakerRegistry holds one breaker per platform. It is constructed once
// per process and threaded through explicitly, never a package-level
// global, so separate orchestrators (tests, sharded workers) don't share
// accidental state. Breaker state is in-memory only and resets on restart.
type BreakerRegistry struct {
	mu       sync.Mutex
	cfg      config.BreakerConfig
	breakers map[string]*CircuitBreaker
}

func NewBreakerRegistry(cfg config.BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		cfg:      cfg,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for a platform, lazily creating it with the
// registry's configuration on first request.
func (r *BreakerRegistry) Get(platform string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	breaker, ok := r.breakers[platform]
	if !ok {
		breaker = NewCircuitBreaker(platform, r.cfg)
		r.breakers[platform] = breaker
	}
	return breaker
}

func (r *BreakerRegistry) Stats() []BreakerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]BreakerStats, 0, len(r.breakers))
	for _, breaker := range r.breakers {
		stats = append(stats, breaker.GetStats())
	}
	return stats
}

// Reset clears every breaker. Administrative operation, also used for test
// isolation.
func (r *BreakerRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}
