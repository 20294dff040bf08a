package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/config"
	"github.com/boddenberg/family-finance-go/internal/currency"
	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/cache"
	"github.com/boddenberg/family-finance-go/internal/infra/exchange"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/service"
)

func newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Show the USD to NPR rate, optionally pricing a transfer",
		Long: `Look up today's USD rate from Nepal Rastra Bank. When the bank cannot be
reached the fallback rate is shown and marked as such. With --amount the
transfer is priced for --method.`,
		Args: cobra.NoArgs,
		RunE: runRate,
	}
	cmd.Flags().Float64("amount", 0, "USD amount to price")
	cmd.Flags().String("method", domain.MethodWesternUnion, "Transfer method")
	return cmd
}

// newRateClient wires the NRB client with its own breaker and cache. The
// returned func stops the cache janitor.
func newRateClient(cfg *config.Config, httpClient *http.Client, metrics *observability.Metrics, logger *zap.Logger) (*exchange.Client, func()) {
	rateCache := cache.New[domain.ExchangeRateData](cfg.RateCacheTTL)
	client := exchange.NewClient(
		httpClient,
		cfg.NRBBaseURL,
		resilience.NewCircuitBreaker("nrb", logger),
		rateCache,
		cfg.RateTimeout,
		metrics,
		logger,
	)
	return client, rateCache.Close
}

func runRate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	rates, closeRates := newRateClient(cfg, &http.Client{Timeout: cfg.HTTPTimeout}, observability.NewMetrics(), logger)
	defer closeRates()

	svc := service.NewRemittanceService(nil, rates, nil, logger)
	out := cmd.OutOrStdout()

	rate := svc.Rate(cmd.Context())
	fmt.Fprintf(out, "USD → NPR (%s, %s)\n", rate.Source, rate.USD.Date)
	fmt.Fprintf(out, "  Buy:  %.2f\n", rate.USD.Buy)
	fmt.Fprintf(out, "  Sell: %.2f\n", rate.USD.Sell)

	if !cmd.Flags().Changed("amount") {
		return nil
	}
	amount, _ := cmd.Flags().GetFloat64("amount")
	method, _ := cmd.Flags().GetString("method")
	q, err := svc.Quote(cmd.Context(), amount, method)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSending %s by %s\n", q.Formatted.Amount, q.Method)
	fmt.Fprintf(out, "  Fee:       %s\n", currency.Format(q.TransferFee, currency.USD))
	fmt.Fprintf(out, "  Total:     %s\n", q.Formatted.TotalCost)
	fmt.Fprintf(out, "  Receives:  %s\n", q.Formatted.LocalAmount)
	fmt.Fprintf(out, "  Delivered: %s\n", q.ExpectedDelivery.Format(dateLayout))
	return nil
}
