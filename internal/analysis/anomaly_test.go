package analysis_test

import (
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newEngine() *analysis.Engine {
	return analysis.NewEngine(analysis.WithClock(func() time.Time { return fixedNow }))
}

func expense(desc, category string, amount float64, date time.Time) domain.Expense {
	return domain.Expense{Description: desc, Category: category, Amount: amount, Date: date}
}

// olderHistory spreads same-category expenses far enough back that the
// frequency rule stays quiet.
func olderHistory(desc, category string, amounts ...float64) []domain.Expense {
	out := make([]domain.Expense, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, expense(desc, category, a, fixedNow.AddDate(0, -2, -i)))
	}
	return out
}

func findAnomaly(anomalies []domain.Anomaly, typ string) (domain.Anomaly, bool) {
	for _, a := range anomalies {
		if a.Type == typ {
			return a, true
		}
	}
	return domain.Anomaly{}, false
}

func TestDetectAnomalies_UnusualAmount(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name     string
		history  []float64
		amount   float64
		fires    bool
		severity string
	}{
		{"zero stddev escalates to high", []float64{100, 100, 100, 100}, 500, true, domain.LevelHigh},
		{"equal to mean plus two sigma does not fire", []float64{90, 110, 90, 110}, 120, false, ""},
		{"between two and three sigma is medium", []float64{90, 110, 90, 110}, 125, true, domain.LevelMedium},
		{"above three sigma is high", []float64{90, 110, 90, 110}, 131, true, domain.LevelHigh},
		{"fewer than three comparable entries", []float64{100, 100}, 1000, false, ""},
		{"zero mean is skipped", []float64{0, 0, 0}, 10, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := olderHistory("Dinner", "Food", tt.history...)
			got := e.DetectAnomalies(history, expense("Dinner", "Food", tt.amount, fixedNow))

			a, ok := findAnomaly(got, domain.AnomalyUnusualAmount)
			if ok != tt.fires {
				t.Fatalf("expected fires=%v, got %v (%+v)", tt.fires, ok, got)
			}
			if ok && a.Severity != tt.severity {
				t.Errorf("expected severity %s, got %s", tt.severity, a.Severity)
			}
		})
	}
}

func TestDetectAnomalies_UnusualAmountMessage(t *testing.T) {
	e := newEngine()
	history := olderHistory("Dinner", "Food", 100, 100, 100, 100)

	got := e.DetectAnomalies(history, expense("Dinner", "Food", 500, fixedNow))

	a, ok := findAnomaly(got, domain.AnomalyUnusualAmount)
	if !ok {
		t.Fatal("expected unusual-amount anomaly")
	}
	want := "This Food expense of $500.00 is 400% higher than your average of $100.00"
	if a.Message != want {
		t.Errorf("expected message %q, got %q", want, a.Message)
	}
}

func TestDetectAnomalies_IgnoresOtherCategories(t *testing.T) {
	e := newEngine()
	history := olderHistory("Dinner", "Transport", 100, 100, 100, 100)

	got := e.DetectAnomalies(history, expense("Dinner", "Food", 500, fixedNow))

	if _, ok := findAnomaly(got, domain.AnomalyUnusualAmount); ok {
		t.Error("expected no unusual-amount anomaly across categories")
	}
}

func TestDetectAnomalies_Duplicate(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name  string
		gap   time.Duration
		delta float64
		fires bool
	}{
		{"thirty minutes apart", 30 * time.Minute, 0, true},
		{"two hours apart", 2 * time.Hour, 0, false},
		{"within a cent", 10 * time.Minute, 0.01, true},
		{"different amount", 10 * time.Minute, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := []domain.Expense{expense("Coffee", "Food", 4.50, fixedNow.Add(-tt.gap))}
			got := e.DetectAnomalies(history, expense("Coffee", "Food", 4.50+tt.delta, fixedNow))

			a, ok := findAnomaly(got, domain.AnomalyDuplicate)
			if ok != tt.fires {
				t.Fatalf("expected duplicate=%v, got %v", tt.fires, ok)
			}
			if ok && a.Severity != domain.LevelHigh {
				t.Errorf("expected severity high, got %s", a.Severity)
			}
		})
	}
}

func TestDetectAnomalies_NewMerchant(t *testing.T) {
	e := newEngine()

	got := e.DetectAnomalies(nil, expense("Corner Bistro", "Food", 75, fixedNow))
	a, ok := findAnomaly(got, domain.AnomalyNewMerchant)
	if !ok {
		t.Fatal("expected new-merchant anomaly")
	}
	if a.Severity != domain.LevelLow {
		t.Errorf("expected severity low, got %s", a.Severity)
	}
	if a.Message != "First transaction at Corner Bistro" {
		t.Errorf("unexpected message %q", a.Message)
	}

	got = e.DetectAnomalies(nil, expense("Corner Bistro", "Food", 50, fixedNow))
	if _, ok := findAnomaly(got, domain.AnomalyNewMerchant); ok {
		t.Error("expected no new-merchant anomaly at exactly 50")
	}

	history := olderHistory("Corner Bistro", "Food", 20)
	got = e.DetectAnomalies(history, expense("Corner Bistro", "Food", 75, fixedNow))
	if _, ok := findAnomaly(got, domain.AnomalyNewMerchant); ok {
		t.Error("expected no new-merchant anomaly for a known description")
	}
}

func TestDetectAnomalies_FrequencySpike(t *testing.T) {
	e := newEngine()

	burst := []domain.Expense{
		expense("Taxi", "Transport", 12, fixedNow.AddDate(0, 0, -1)),
		expense("Taxi", "Transport", 14, fixedNow.AddDate(0, 0, -2)),
		expense("Taxi", "Transport", 11, fixedNow.AddDate(0, 0, -3)),
	}
	got := e.DetectAnomalies(burst, expense("Taxi", "Transport", 13, fixedNow))
	a, ok := findAnomaly(got, domain.AnomalyFrequencySpike)
	if !ok {
		t.Fatal("expected frequency-spike anomaly")
	}
	if a.Severity != domain.LevelMedium {
		t.Errorf("expected severity medium, got %s", a.Severity)
	}

	// One per day for thirty days is a steady rate.
	var steady []domain.Expense
	for day := 1; day <= 30; day++ {
		steady = append(steady, expense("Lunch", "Food", 10, fixedNow.AddDate(0, 0, -day)))
	}
	got = e.DetectAnomalies(steady, expense("Lunch", "Food", 10, fixedNow))
	if len(got) != 0 {
		t.Errorf("expected no anomalies for a steady pattern, got %+v", got)
	}
}

func TestDetectAnomalies_SkipsCandidateInHistory(t *testing.T) {
	e := newEngine()
	candidate := expense("Coffee", "Food", 4.50, fixedNow)
	candidate.ID = "exp-1"

	got := e.DetectAnomalies([]domain.Expense{candidate}, candidate)

	if _, ok := findAnomaly(got, domain.AnomalyDuplicate); ok {
		t.Error("expected the candidate not to be reported as its own duplicate")
	}
}

func TestDetectAnomalies_EmptyResultIsNotNil(t *testing.T) {
	e := newEngine()

	got := e.DetectAnomalies(nil, expense("Coffee", "Food", 4.50, fixedNow))
	if got == nil {
		t.Fatal("expected non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no anomalies, got %d", len(got))
	}
}
