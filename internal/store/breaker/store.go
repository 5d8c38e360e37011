// Package breaker guards a history store with a circuit breaker so a failing backend is
// skipped quickly instead of eating into every request's deadline.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/observability"
)

// Config configures the breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures before the circuit opens.
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open before letting a trial request through.
	OpenTimeout time.Duration
}

// DefaultConfig returns the breaker defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Store wraps a domain.HistoryStore. Reads go through the breaker; when it is open they fail
// fast and the caller continues with empty history.
type Store struct {
	inner   domain.HistoryStore
	breaker circuitbreaker.CircuitBreaker[[]domain.StoredMessage]
}

// NewStore wraps inner with a circuit breaker.
func NewStore(inner domain.HistoryStore, cfg Config) *Store {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().FailureThreshold
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().OpenTimeout
	}

	return &Store{
		inner: inner,
		breaker: circuitbreaker.New[[]domain.StoredMessage](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    timeout,
			Timeout:     timeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
			},
			// A caller that went away says nothing about the store's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.FromContext(context.Background()).Warn("history store circuit changed state",
					observability.String("from", from.String()),
					observability.String("to", to.String()))
			},
		}),
	}
}

// FetchMessagesForSimilarity delegates to the wrapped store through the breaker.
func (s *Store) FetchMessagesForSimilarity(
	ctx context.Context,
	identity string,
	query domain.HistoryQuery,
) ([]domain.StoredMessage, error) {
	return s.breaker.Execute(ctx, func(ctx context.Context) ([]domain.StoredMessage, error) {
		return s.inner.FetchMessagesForSimilarity(ctx, identity, query)
	})
}

// FetchRecentMessages delegates to the wrapped store through the breaker.
func (s *Store) FetchRecentMessages(
	ctx context.Context,
	identity string,
	daysBack int,
	limit int,
) ([]domain.StoredMessage, error) {
	return s.breaker.Execute(ctx, func(ctx context.Context) ([]domain.StoredMessage, error) {
		return s.inner.FetchRecentMessages(ctx, identity, daysBack, limit)
	})
}

// State returns the breaker state: "closed", "open" or "half-open".
func (s *Store) State() string {
	return s.breaker.State().String()
}
