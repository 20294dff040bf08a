// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// RateProvider returns the current USD→NPR rate. Implementations never fail:
// when the live source is unavailable they answer with a fallback rate and
// say so in ExchangeRateData.Source.
type RateProvider interface {
	USDToNPR(ctx context.Context) domain.ExchangeRateData
}

// HealthChecker is implemented by dependencies that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
