package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/currency"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

func newRentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rent",
		Short: "Calculate the room rent due for a period",
		Long: `Measure an inclusive rent period and price it at a weekly rate.
Warnings are printed but do not fail the command; blocking validation errors do.`,
		Example: "  familyfinance rent --start 2026-02-01 --end 2026-02-28 --rate 140 --paid 2026-03-01",
		Args:    cobra.NoArgs,
		RunE:    runRent,
	}
	cmd.Flags().String("start", "", "First day of the rent period (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last day of the rent period (YYYY-MM-DD)")
	cmd.Flags().String("paid", "", "Payment date (YYYY-MM-DD); defaults to the day after --end")
	cmd.Flags().Float64("rate", 0, "Weekly rate in USD")
	cmd.Flags().Float64("saved-rate", 0, "Previously saved weekly rate, for the rate-jump warning")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("rate")
	return cmd
}

func runRent(cmd *cobra.Command, args []string) error {
	start, err := parseDateFlag(cmd, "start")
	if err != nil {
		return err
	}
	end, err := parseDateFlag(cmd, "end")
	if err != nil {
		return err
	}
	paid := end.AddDate(0, 0, 1)
	if cmd.Flags().Changed("paid") {
		if paid, err = parseDateFlag(cmd, "paid"); err != nil {
			return err
		}
	}
	rate, _ := cmd.Flags().GetFloat64("rate")
	saved, _ := cmd.Flags().GetFloat64("saved-rate")

	in := domain.RentInput{PaymentDate: paid, StartDate: start, EndDate: end, WeeklyRate: rate, SavedRate: saved}
	v := analysis.ValidateRentData(in)

	out := cmd.OutOrStdout()
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if !v.IsValid {
		return &domain.ErrRentInvalid{Validation: v}
	}

	period := analysis.CalculateRentPeriod(paid, start, end)
	amount := analysis.CalculateRentAmount(rate, period.TotalWeeks)

	fmt.Fprintf(out, "Period: %s\n", analysis.FormatRentPeriod(start, end))
	fmt.Fprintf(out, "Days:   %d (%.2f weeks)\n", period.TotalDays, period.TotalWeeks)
	fmt.Fprintf(out, "Rate:   %s/week\n", currency.Format(rate, currency.USD))
	fmt.Fprintf(out, "Amount: %s\n", currency.Format(amount, currency.USD))
	return nil
}
