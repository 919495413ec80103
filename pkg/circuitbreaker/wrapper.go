package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"

	"msgrelay/pkg/metrics"
)

// Config defines circuit breaker configuration
type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.5
		},
	}
}

// RatioTrip trips once at least minRequests were seen and the failure ratio
// reaches ratio.
func RatioTrip(minRequests uint32, ratio float64) func(counts gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// AsyncBreaker guards operations whose outcome is only known later, such as
// an asynchronous publish. Allow admits a call and hands back the function
// that must report its outcome.
type AsyncBreaker struct {
	cb *gobreaker.TwoStepCircuitBreaker
}

func NewAsyncBreaker(cfg Config) *AsyncBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			updateStateMetric(name, to)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	cb := gobreaker.NewTwoStepCircuitBreaker(settings)
	updateStateMetric(cfg.Name, cb.State())

	return &AsyncBreaker{cb: cb}
}

// Allow returns gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests when
// the call is refused.
func (b *AsyncBreaker) Allow() (func(success bool), error) {
	done, err := b.cb.Allow()
	if err != nil {
		metrics.CircuitBreakerRejections.WithLabelValues(b.cb.Name()).Inc()
		return nil, err
	}
	return done, nil
}

func (b *AsyncBreaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *AsyncBreaker) Name() string {
	return b.cb.Name()
}

func (b *AsyncBreaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

func updateStateMetric(name string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateHalfOpen:
		stateValue = 1
	case gobreaker.StateOpen:
		stateValue = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}
