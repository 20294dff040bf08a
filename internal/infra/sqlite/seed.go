package sqlite

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/currency"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	seedWeeklyRent  = 140.0
	seedSalary      = 4500.0
	seedRentMonths  = 6
	seedRemitAmount = 200.0
	seedRemitRate   = 132.5
)

// Seed loads a demo data set for userID relative to now: six months of rent
// and groceries, monthly salary, four budget envelopes, a recipient and one
// remittance. Users that already have expenses are left alone.
func (s *DB) Seed(ctx context.Context, userID string, now time.Time) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return fmt.Errorf("seed: count expenses: %w", err)
	}
	if n > 0 {
		s.logger.Info("seed skipped, user has data", zap.String("user_id", userID), zap.Int("expenses", n))
		return nil
	}

	for _, e := range seedExpenses(userID, now) {
		if _, err := s.AddExpense(ctx, &e); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, in := range seedIncome(userID, now) {
		if _, err := s.AddIncome(ctx, &in); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, b := range seedBudgets(userID) {
		if _, err := s.AddBudget(ctx, &b); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	recipient, err := s.AddRecipient(ctx, &domain.Recipient{
		UserID:          userID,
		Name:            "Sita Sharma",
		Relationship:    "Mother",
		City:            "Kathmandu",
		Country:         "Nepal",
		PreferredMethod: domain.MethodWesternUnion,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	sent := now.AddDate(0, 0, -10)
	fee := currency.TransferFee(domain.MethodWesternUnion, seedRemitAmount)
	delivered := currency.ExpectedDeliveryDate(domain.MethodWesternUnion, sent)
	_, err = s.AddRemittance(ctx, &domain.Remittance{
		UserID:           userID,
		RecipientID:      recipient.ID,
		RecipientName:    recipient.Name,
		Amount:           seedRemitAmount,
		Currency:         currency.USD,
		ExchangeRate:     seedRemitRate,
		LocalAmount:      currency.ConvertUSDToNPR(seedRemitAmount, seedRemitRate),
		LocalCurrency:    currency.NPR,
		TransferMethod:   domain.MethodWesternUnion,
		TransferFee:      fee,
		TotalCost:        currency.Round2(seedRemitAmount + fee),
		Purpose:          "living",
		DeliveryOption:   "cash-pickup",
		Status:           domain.RemittanceCompleted,
		ExpectedDelivery: &delivered,
		Date:             sent,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	s.logger.Info("seeded demo data", zap.String("user_id", userID))
	return nil
}

func seedExpenses(userID string, now time.Time) []domain.Expense {
	day := func(offset int) time.Time {
		y, m, d := now.Date()
		return time.Date(y, m, d+offset, 12, 0, 0, 0, now.Location())
	}
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := []domain.Expense{
		{Category: "Food", Subcategory: "Groceries", Description: "Whole Foods", Amount: 127.5, Date: day(0), PaymentMethod: "card"},
		{Category: "Transportation", Subcategory: "Rideshare", Description: "Uber", Amount: 23.4, Date: day(-1), PaymentMethod: "card"},
		{Category: "Entertainment", Subcategory: "Subscriptions", Description: "Netflix", Amount: 15.99, Date: day(-2), PaymentMethod: "card", Recurring: true},
		{Category: "Food", Subcategory: "Coffee", Description: "Starbucks", Amount: 6.75, Date: day(-2), PaymentMethod: "cash"},
	}

	for k := seedRentMonths; k >= 1; k-- {
		paid := thisMonth.AddDate(0, -k, 0)
		start := paid.AddDate(0, -1, 0)
		end := paid.AddDate(0, 0, -1)
		period := analysis.CalculateRentPeriod(paid, start, end)
		amount := analysis.CalculateRentAmount(seedWeeklyRent, period.TotalWeeks)

		out = append(out,
			domain.Expense{
				Category:    domain.CategoryHouseExpenses,
				Subcategory: domain.SubcategoryRoomRent,
				Description: "Room rent - " + analysis.FormatRentPeriod(start, end),
				Amount:      amount,
				Date:        paid,
				Recurring:   true,
				PaymentDetails: &domain.RentPaymentDetails{
					PaymentDate: paid,
					Status:      domain.RentStatusPaid,
					RentPeriod: &domain.RentPeriod{
						StartDate:  start,
						EndDate:    end,
						TotalDays:  period.TotalDays,
						TotalWeeks: period.TotalWeeks,
					},
					WeeklyRate:       seedWeeklyRent,
					CalculatedAmount: amount,
					LandlordName:     "R. Thapa",
				},
			},
			domain.Expense{
				Category:      "Food",
				Subcategory:   "Groceries",
				Description:   "Safeway",
				Amount:        300 + float64(10*k),
				Date:          paid.AddDate(0, 0, 14),
				PaymentMethod: "card",
			},
		)
	}

	for i := range out {
		out[i].UserID = userID
	}
	return out
}

func seedIncome(userID string, now time.Time) []domain.Income {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]domain.Income, 0, seedRentMonths+1)
	for k := seedRentMonths; k >= 0; k-- {
		out = append(out, domain.Income{
			UserID:      userID,
			Amount:      seedSalary,
			Source:      "Employer",
			Type:        "salary",
			Description: "Monthly Salary",
			Date:        thisMonth.AddDate(0, -k, 0),
			Recurring:   true,
			Frequency:   "monthly",
		})
	}
	return out
}

func seedBudgets(userID string) []domain.Budget {
	return []domain.Budget{
		{UserID: userID, Category: "Housing", Amount: 1600, Spent: 1500, Period: domain.BudgetPeriodMonthly, Color: "#3b82f6", Icon: "🏠"},
		{UserID: userID, Category: "Food", Amount: 700, Spent: 650, Period: domain.BudgetPeriodMonthly, Color: "#10b981", Icon: "🍔"},
		{UserID: userID, Category: "Transportation", Amount: 400, Spent: 420, Period: domain.BudgetPeriodMonthly, Color: "#f59e0b", Icon: "🚗"},
		{UserID: userID, Category: "Entertainment", Amount: 500, Spent: 280, Period: domain.BudgetPeriodMonthly, Color: "#8b5cf6", Icon: "🎬"},
	}
}
