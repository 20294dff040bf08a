package analysis_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/domain"
)

func TestAutoCategorizeExpense(t *testing.T) {
	tests := []struct {
		description string
		category    string
		subcategory string
		confidence  float64
	}{
		{"xyz123 unknown merchant", "Other", "", 0.1},
		{"", "Other", "", 0.1},
		{"Starbucks", "Food", "Coffee", 0.95},
		{"UBER", "Transportation", "Rideshare", 0.95},
		{"Netflix subscription", "Entertainment", "Subscriptions", 0.95 * 7 / 20},
		// Long descriptions dilute every keyword below the threshold.
		{"Monthly rent payment to landlord for the apartment", "Other", "", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := analysis.AutoCategorizeExpense(tt.description, 10)

			if got.Category != tt.category || got.Subcategory != tt.subcategory {
				t.Errorf("expected %s/%s, got %s/%s", tt.category, tt.subcategory, got.Category, got.Subcategory)
			}
			if math.Abs(got.Confidence-tt.confidence) > 1e-9 {
				t.Errorf("expected confidence %v, got %v", tt.confidence, got.Confidence)
			}
		})
	}
}

func TestCategorizer_CustomRules(t *testing.T) {
	c := analysis.NewCategorizer([]analysis.CategoryRule{
		{Keywords: []string{"PHARMACY"}, Category: "Health", Subcategory: "Medicine", Confidence: 0.9},
	})

	got := c.Categorize("pharmacy", 20)
	if got.Category != "Health" || got.Subcategory != "Medicine" {
		t.Errorf("expected Health/Medicine, got %+v", got)
	}

	got = c.Categorize("Starbucks", 5)
	if got.Category != "Other" {
		t.Errorf("expected custom table to replace defaults, got %+v", got)
	}
}

func TestEngine_UsesConfiguredCategorizer(t *testing.T) {
	c := analysis.NewCategorizer([]analysis.CategoryRule{
		{Keywords: []string{"dal bhat"}, Category: "Food", Subcategory: "Restaurants", Confidence: 1},
	})
	e := analysis.NewEngine(analysis.WithCategorizer(c))

	if got := e.Categorize("Dal Bhat", 8); got.Category != "Food" {
		t.Errorf("expected Food, got %+v", got)
	}
}

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestLoadCategoryRules(t *testing.T) {
	path := writeRules(t, `
[[rules]]
keywords = ["daraz", "sastodeal"]
category = "Shopping"
subcategory = "Online Shopping"
confidence = 0.9

[[rules]]
keywords = ["ncell", "ntc"]
category = "Utilities"
confidence = 0.85
`)

	rules, err := analysis.LoadCategoryRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Subcategory != "Online Shopping" || len(rules[1].Keywords) != 2 {
		t.Errorf("unexpected rules %+v", rules)
	}

	got := analysis.NewCategorizer(rules).Categorize("Ncell topup", 5)
	if got.Category != "Utilities" {
		t.Errorf("expected Utilities, got %+v", got)
	}
}

func TestLoadCategoryRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing category", "[[rules]]\nkeywords = [\"x\"]\nconfidence = 0.5\n"},
		{"confidence above one", "[[rules]]\nkeywords = [\"x\"]\ncategory = \"X\"\nconfidence = 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analysis.LoadCategoryRules(writeRules(t, tt.body))

			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	if _, err := analysis.LoadCategoryRules(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
