package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// BreakerProvider decorates a DataProvider with a circuit breaker so a
// flapping remote source fails fast instead of queueing callers. An open
// breaker surfaces as a retryable provider error.
type BreakerProvider struct {
	inner   ports.DataProvider
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// BreakerConfig tunes the circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns conservative defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "data-provider",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewBreakerProvider wraps a provider with a circuit breaker
func NewBreakerProvider(inner ports.DataProvider, cfg BreakerConfig, logger *zap.Logger) *BreakerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// FetchElementData implements ports.DataProvider
func (p *BreakerProvider) FetchElementData(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.FetchElementData(ctx, ids)
	})
	if err != nil {
		return nil, p.wrap("FetchElementData", err)
	}
	return result.(map[valueobjects.ElementID]entities.ElementData), nil
}

// FetchLinks implements ports.DataProvider
func (p *BreakerProvider) FetchLinks(ctx context.Context, ids []valueobjects.ElementID) ([]ports.LinkDescriptor, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.FetchLinks(ctx, ids)
	})
	if err != nil {
		return nil, p.wrap("FetchLinks", err)
	}
	return result.([]ports.LinkDescriptor), nil
}

func (p *BreakerProvider) wrap(operation string, err error) error {
	if pkgerrors.IsProvider(err) {
		return err
	}
	return pkgerrors.NewProviderError(operation, err)
}
