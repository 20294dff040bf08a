// Package exchange looks up the USD→NPR rate published by Nepal Rastra Bank.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/port"
)

var tracer = otel.Tracer("exchange")

const (
	serviceName  = "nrb"
	cacheKey     = "usd-npr"
	dateLayout   = "2006-01-02"
	fallbackBuy  = 132.5
	fallbackSell = 133.1
)

var errNoUSDRate = errors.New("no USD rate in response")

// Client fetches the USD rate from the NRB forex API. Results, including the
// fallback, are cached for the cache's TTL; concurrent refreshes share one
// request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cache      port.Cache[domain.ExchangeRateData]
	timeout    time.Duration
	now        func() time.Time
	group      singleflight.Group
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now for the query dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates an NRB rate client.
func NewClient(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	cache port.Cache[domain.ExchangeRateData],
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cache:      cache,
		timeout:    timeout,
		now:        time.Now,
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// USDToNPR returns the cached rate, refreshing it when the cache is empty or
// stale. It never fails: any lookup problem is logged and counted, and the
// fallback rate is returned (and cached) instead.
func (c *Client) USDToNPR(ctx context.Context) domain.ExchangeRateData {
	if data, ok := c.cache.Get(cacheKey); ok {
		c.metrics.IncrRateCacheHit()
		return data
	}
	c.metrics.IncrRateCacheMiss()

	v, _, _ := c.group.Do(cacheKey, func() (any, error) {
		if data, ok := c.cache.Get(cacheKey); ok {
			return data, nil
		}

		// The refresh is shared, so it must outlive any single caller.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		data, err := c.fetch(fetchCtx)
		if err != nil {
			c.logger.Warn("exchange rate lookup failed, using fallback",
				zap.Error(err),
				zap.Float64("buy", fallbackBuy),
				zap.Float64("sell", fallbackSell),
			)
			c.metrics.IncrExternalError(serviceName)
			data = c.fallback()
		}

		c.metrics.IncrRateLookup(data.Source)
		c.cache.Set(cacheKey, data)
		return data, nil
	})
	return v.(domain.ExchangeRateData)
}

func (c *Client) fallback() domain.ExchangeRateData {
	now := c.now()
	return domain.ExchangeRateData{
		USD: domain.ExchangeRate{
			Currency: "USD",
			Buy:      fallbackBuy,
			Sell:     fallbackSell,
			Date:     now.UTC().Format(dateLayout),
		},
		LastUpdated: now,
		Source:      domain.RateSourceFallback,
	}
}

type ratesResponse struct {
	Data struct {
		Payload []struct {
			Date  string `json:"date"`
			Rates []struct {
				Currency struct {
					ISO3 string `json:"iso3"`
				} `json:"currency"`
				Buy  string `json:"buy"`
				Sell string `json:"sell"`
			} `json:"rates"`
		} `json:"payload"`
	} `json:"data"`
}

func (c *Client) fetch(ctx context.Context) (domain.ExchangeRateData, error) {
	ctx, span := tracer.Start(ctx, "NRBClient.Fetch")
	defer span.End()

	now := c.now()
	today := now.UTC()
	q := url.Values{}
	q.Set("from", today.AddDate(0, 0, -1).Format(dateLayout))
	q.Set("to", today.Format(dateLayout))
	q.Set("per_page", "10")
	q.Set("page", "1")
	endpoint := c.baseURL + "/api/forex/v1/rates?" + q.Encode()
	span.SetAttributes(attribute.String("http.url", endpoint))

	result, err := c.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &domain.ErrTimeout{Operation: "nrb rate lookup"}
			}
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("nrb API returned status %d", resp.StatusCode)
		}

		var body ratesResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode nrb response: %w", err)
		}
		return parseUSD(body)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.ExchangeRateData{}, &domain.ErrCircuitOpen{Service: serviceName}
		}
		return domain.ExchangeRateData{}, &domain.ErrExternalService{Service: serviceName, Err: err}
	}

	rate := result.(domain.ExchangeRate)
	return domain.ExchangeRateData{USD: rate, LastUpdated: now, Source: domain.RateSourceLive}, nil
}

func parseUSD(body ratesResponse) (domain.ExchangeRate, error) {
	if len(body.Data.Payload) == 0 {
		return domain.ExchangeRate{}, errNoUSDRate
	}
	latest := body.Data.Payload[0]
	for _, r := range latest.Rates {
		if r.Currency.ISO3 != "USD" {
			continue
		}
		buy, err := decimal.NewFromString(r.Buy)
		if err != nil {
			return domain.ExchangeRate{}, fmt.Errorf("parse buy rate %q: %w", r.Buy, err)
		}
		sell, err := decimal.NewFromString(r.Sell)
		if err != nil {
			return domain.ExchangeRate{}, fmt.Errorf("parse sell rate %q: %w", r.Sell, err)
		}
		if !buy.IsPositive() || !sell.IsPositive() {
			return domain.ExchangeRate{}, fmt.Errorf("non-positive USD rate %s/%s", r.Buy, r.Sell)
		}
		return domain.ExchangeRate{
			Currency: "USD",
			Buy:      buy.InexactFloat64(),
			Sell:     sell.InexactFloat64(),
			Date:     latest.Date,
		}, nil
	}
	return domain.ExchangeRate{}, errNoUSDRate
}
