package analysis_test

import (
	"math"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateRentPeriod(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		days       int
		weeks      float64
		extended   bool
	}{
		{"one week inclusive", day(time.January, 1), day(time.January, 7), 7, 1.0, false},
		{"extended", day(time.January, 1), day(time.February, 10), 41, 41.0 / 7, true},
		{"single day", day(time.January, 1), day(time.January, 1), 1, 1.0 / 7, false},
		{"exactly 35 days", day(time.January, 1), day(time.February, 4), 35, 5.0, false},
		{"time of day ignored", day(time.January, 1).Add(23 * time.Hour), day(time.January, 7).Add(time.Hour), 7, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.CalculateRentPeriod(tt.end.AddDate(0, 0, 1), tt.start, tt.end)

			if got.TotalDays != tt.days {
				t.Errorf("expected %d days, got %d", tt.days, got.TotalDays)
			}
			if got.TotalWeeks != tt.weeks {
				t.Errorf("expected %v weeks, got %v", tt.weeks, got.TotalWeeks)
			}
			if got.IsExtended != tt.extended {
				t.Errorf("expected extended=%v, got %v", tt.extended, got.IsExtended)
			}
		})
	}
}

func TestCalculateRentAmount(t *testing.T) {
	if got := analysis.CalculateRentAmount(150, 41.0/7); got != 878.57 {
		t.Errorf("expected 878.57, got %v", got)
	}
	if got := analysis.CalculateRentAmount(200, 1); got != 200 {
		t.Errorf("expected 200, got %v", got)
	}
	if got := analysis.CalculateRentAmount(1e308, 6); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf for an overflowing rate, got %v", got)
	}
}

func TestSuggestRentPeriod(t *testing.T) {
	payment := day(time.March, 1)

	t.Run("sequential after previous period", func(t *testing.T) {
		last := &domain.Expense{PaymentDetails: &domain.RentPaymentDetails{
			RentPeriod: &domain.RentPeriod{StartDate: day(time.January, 1), EndDate: day(time.January, 31)},
		}}

		got := analysis.SuggestRentPeriod(payment, last)

		if !got.IsSequential {
			t.Error("expected sequential suggestion")
		}
		if !got.StartDate.Equal(day(time.February, 1)) {
			t.Errorf("expected start Feb 1, got %s", got.StartDate)
		}
		if !got.EndDate.Equal(day(time.February, 28)) {
			t.Errorf("expected end Feb 28, got %s", got.EndDate)
		}
	})

	t.Run("default thirty day window", func(t *testing.T) {
		for _, last := range []*domain.Expense{nil, {Description: "rent without period"}} {
			got := analysis.SuggestRentPeriod(payment, last)

			if got.IsSequential {
				t.Error("expected non-sequential suggestion")
			}
			if !got.StartDate.Equal(day(time.January, 30)) {
				t.Errorf("expected start Jan 30, got %s", got.StartDate)
			}
			if !got.EndDate.Equal(day(time.February, 28)) {
				t.Errorf("expected end Feb 28, got %s", got.EndDate)
			}
		}
	})
}

func TestValidateRentData(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.RentInput
		valid    bool
		errors   []string
		warnings []string
	}{
		{
			name:  "valid",
			input: domain.RentInput{PaymentDate: day(time.January, 8), StartDate: day(time.January, 1), EndDate: day(time.January, 7), WeeklyRate: 150},
			valid: true,
		},
		{
			name:   "end before start",
			input:  domain.RentInput{PaymentDate: day(time.January, 20), StartDate: day(time.January, 10), EndDate: day(time.January, 1), WeeklyRate: 150},
			valid:  false,
			errors: []string{"End date must be after start date", "Rent period must be at least 1 day"},
		},
		{
			name:   "zero rate",
			input:  domain.RentInput{PaymentDate: day(time.January, 8), StartDate: day(time.January, 1), EndDate: day(time.January, 7)},
			valid:  false,
			errors: []string{"Weekly rate must be greater than 0"},
		},
		{
			name:     "payment inside period and extended",
			input:    domain.RentInput{PaymentDate: day(time.January, 1), StartDate: day(time.January, 1), EndDate: day(time.February, 10), WeeklyRate: 150},
			valid:    true,
			warnings: []string{"Payment date should typically be after the rent period", "Extended rent period detected: 41 days"},
		},
		{
			name:     "rate more than doubled",
			input:    domain.RentInput{PaymentDate: day(time.January, 8), StartDate: day(time.January, 1), EndDate: day(time.January, 7), WeeklyRate: 250, SavedRate: 100},
			valid:    true,
			warnings: []string{"Rate increased from $100 to $250. This is more than double the previous rate."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.ValidateRentData(tt.input)

			if got.IsValid != tt.valid {
				t.Errorf("expected valid=%v, got %v", tt.valid, got.IsValid)
			}
			assertStrings(t, "errors", tt.errors, got.Errors)
			assertStrings(t, "warnings", tt.warnings, got.Warnings)
		})
	}
}

func assertStrings(t *testing.T, label string, want, got []string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected non-nil slice", label)
	}
	if len(got) != len(want) {
		t.Fatalf("%s: expected %q, got %q", label, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: expected %q, got %q", label, i, want[i], got[i])
		}
	}
}

func TestFormatRentPeriod(t *testing.T) {
	got := analysis.FormatRentPeriod(day(time.January, 2), day(time.January, 8))
	if got != "Jan 2 - Jan 8, 2026" {
		t.Errorf("unexpected format %q", got)
	}
}

func rentExpense(amount, weeklyRate, weeks float64, date time.Time) domain.Expense {
	return domain.Expense{
		Amount:      amount,
		Category:    domain.CategoryHouseExpenses,
		Subcategory: domain.SubcategoryRoomRent,
		Date:        date,
		PaymentDetails: &domain.RentPaymentDetails{
			PaymentDate: date,
			WeeklyRate:  weeklyRate,
			RentPeriod:  &domain.RentPeriod{TotalWeeks: weeks},
		},
	}
}

func TestRentInsights(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		got := analysis.RentInsights(nil, 3000)
		if got.HasData || got.Stats != nil || len(got.Insights) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})

	t.Run("monthly payer with a raise", func(t *testing.T) {
		expenses := []domain.Expense{
			rentExpense(600, 140, 4.29, day(time.January, 1)),
			rentExpense(660, 154, 4.29, day(time.February, 1)),
		}

		got := analysis.RentInsights(expenses, 3000)

		want := []string{
			"Your rent increased by 10.0% from the previous payment",
			"Your rent is 21% of income - within recommended 30% range",
			"You typically pay rent monthly, which helps with budgeting",
		}
		assertStrings(t, "insights", want, got.Insights)
		if got.Stats == nil || got.Stats.TotalPaid != 1260 || got.Stats.PaymentsCount != 2 {
			t.Errorf("unexpected stats %+v", got.Stats)
		}
	})

	t.Run("consistent weekly payer without income", func(t *testing.T) {
		expenses := []domain.Expense{
			rentExpense(150, 150, 1, day(time.January, 8)),
			rentExpense(150, 150, 1, day(time.January, 15)),
			rentExpense(152, 152, 1, day(time.January, 22)),
		}

		got := analysis.RentInsights(expenses, 0)

		want := []string{
			"Your rent has remained stable",
			"Your weekly rent rate has been very consistent",
			"You pay rent weekly - consider if monthly payments would simplify budgeting",
		}
		assertStrings(t, "insights", want, got.Insights)
	})
}
