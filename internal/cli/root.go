// Package cli holds the familyfinance command tree: the API server plus a few
// offline tools over the analysis engine and the exchange-rate client.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/config"
)

const dateLayout = "2006-01-02"

// NewRootCmd builds the familyfinance command tree.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "familyfinance",
		Short: "Household finance API and tools",
		Long: `familyfinance tracks a household's expenses, income, budgets, room rent and
USD to NPR family remittances, and analyses them for anomalies, forecasts and
insights.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCategorizeCmd())
	root.AddCommand(newRentCmd())
	root.AddCommand(newRateCmd())
	return root
}

// newEngine builds the analysis engine, replacing the keyword table when
// rulesFile is set.
func newEngine(rulesFile string, opts ...analysis.Option) (*analysis.Engine, error) {
	if rulesFile != "" {
		rules, err := analysis.LoadCategoryRules(rulesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithCategorizer(analysis.NewCategorizer(rules)))
	}
	return analysis.NewEngine(opts...), nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date in YYYY-MM-DD format, got %q", name, v)
	}
	return t, nil
}
