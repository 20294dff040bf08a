// Package supabase stores family finance records in Supabase through its
// PostgREST API. It implements port.RecordStore.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var tracer = otel.Tracer("supabase")

const serviceName = "supabase"

var _ port.RecordStore = (*Client)(nil)

// Client wraps HTTP calls to the Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client. metrics may be nil.
func NewClient(
	httpClient *http.Client,
	baseURL, apiKey, serviceRoleKey string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
	}
}

// statusError is a non-2xx answer from PostgREST.
type statusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Ping checks that the REST endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.execute(ctx, "ping", func() error {
		_, err := c.doRequest(ctx, http.MethodGet, "")
		return err
	})
}

// execute runs fn behind the circuit breaker with retries. Client errors
// (4xx, not found, conflict) are not retried and do not count against the
// breaker. Failures are returned as domain errors.
func (c *Client) execute(ctx context.Context, operation string, fn func() error) error {
	var callerErr error
	_, err := c.cb.Execute(func() (any, error) {
		err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			err := fn()
			if isClientError(err) {
				return resilience.Permanent(err)
			}
			return err
		})
		if isClientError(err) {
			callerErr = err
			return nil, nil
		}
		return nil, err
	})
	if err == nil {
		err = callerErr
	}
	if err == nil {
		return nil
	}

	var nf *domain.ErrNotFound
	var conflict *domain.ErrConflict
	if errors.As(err, &nf) || errors.As(err, &conflict) {
		return err
	}

	if c.metrics != nil {
		c.metrics.IncrStoreError(operation)
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: "supabase " + operation}
	}
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}

// isClientError reports answers caused by the request rather than by an
// unhealthy Supabase.
func isClientError(err error) bool {
	if err == nil {
		return false
	}
	var nf *domain.ErrNotFound
	var conflict *domain.ErrConflict
	var se *statusError
	switch {
	case errors.As(err, &nf), errors.As(err, &conflict):
		return true
	case errors.As(err, &se):
		return se.Status >= 400 && se.Status < 500
	}
	return false
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
