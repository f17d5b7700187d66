package paapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is surfaced immediately when the breaker is open; no
// upstream call is issued and rate-limit tokens are untouched
// (spec.md §4.7, scenario S5).
var ErrUnavailable = errors.New("upstream unavailable: circuit breaker open")

// breakerFailureThreshold and breakerOpenDuration implement spec.md §4.7:
// "five consecutive failures open the breaker for 60s".
const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 60 * time.Second
)

// Breaker wraps github.com/sony/gobreaker with the adapter's fixed policy.
type Breaker struct {
	cb  *gobreaker.CircuitBreaker
	log *slog.Logger
}

// NewBreaker constructs a Breaker, logging state transitions.
func NewBreaker(log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "paapi",
		Timeout:     breakerOpenDuration,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), log: log}
}

// Execute runs fn through the breaker. When the breaker is open, fn is
// never invoked and ErrUnavailable is returned.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result, nil
}

// State reports the breaker's current state ("closed", "half-open" or
// "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}
