package breaker

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

// Circuit breaker states.
const (
	// StateClosed admits all attempts. The normal state.
	StateClosed State = "closed"

	// StateOpen refuses all attempts until the recovery timeout passes.
	StateOpen State = "open"

	// StateHalfOpen admits a single probe attempt after recovery.
	StateHalfOpen State = "half-open"
)

// Defaults used by the crawler.
const (
	DefaultThreshold       = 10
	DefaultRecoveryTimeout = 5 * time.Minute
)

// Breaker is a mutex-guarded circuit breaker. The zero value is not usable;
// construct with New.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	lastFailure     time.Time
	threshold       int
	recoveryTimeout time.Duration
	probing         bool
	probeStart      time.Time

	// now is stubbed in tests.
	now func() time.Time
}

// New creates a closed breaker that opens after threshold consecutive
// failures and admits a probe after recoveryTimeout.
func New(threshold int, recoveryTimeout time.Duration) *Breaker {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	return &Breaker{
		state:           StateClosed,
		threshold:       threshold,
		recoveryTimeout: recoveryTimeout,
		now:             time.Now,
	}
}

// Allow reports whether an attempt may proceed. In the half-open state only
// one caller is admitted as the probe; concurrent callers are refused until
// the probe reports its outcome. A probe that never reports back, because
// its worker lost the claim race or was cancelled mid-attempt, forfeits the
// slot after another recovery timeout so the breaker cannot wedge shut.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) > b.recoveryTimeout {
			b.state = StateHalfOpen
			b.probing = true
			b.probeStart = b.now()
			return true
		}
		return false
	default: // StateHalfOpen
		if b.probing && b.now().Sub(b.probeStart) <= b.recoveryTimeout {
			return false
		}
		b.probing = true
		b.probeStart = b.now()
		return true
	}
}

// RecordSuccess resets the failure count and closes the breaker. A
// successful half-open probe lands here.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
	b.probing = false
}

// RecordFailure increments the failure count and opens the breaker when the
// threshold is reached. A failed half-open probe reopens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	b.probing = false

	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.state = StateOpen
	}
}

// Reset returns the breaker to closed with a zero failure count. The retry
// phase calls this before reprocessing failed pages.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probing = false
	b.lastFailure = time.Time{}
}

// Status is a point-in-time snapshot for logging and the run summary.
type Status struct {
	State       State
	Failures    int
	Threshold   int
	LastFailure time.Time
}

// Status returns a snapshot of the breaker.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Status{
		State:       b.state,
		Failures:    b.failures,
		Threshold:   b.threshold,
		LastFailure: b.lastFailure,
	}
}
