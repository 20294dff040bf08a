package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	minCategoryScore   = 0.3
	fallbackCategory   = "Other"
	fallbackConfidence = 0.1
)

// CategoryRule maps any of its keywords to a category. Rules are matched in
// table order; on equal scores the earlier rule wins.
type CategoryRule struct {
	Keywords    []string `toml:"keywords" json:"keywords"`
	Category    string   `toml:"category" json:"category"`
	Subcategory string   `toml:"subcategory" json:"subcategory,omitempty"`
	Confidence  float64  `toml:"confidence" json:"confidence"`
}

// DefaultCategoryRules is the built-in keyword table.
var DefaultCategoryRules = []CategoryRule{
	// Housing
	{Keywords: []string{"rent", "landlord", "lease", "apartment", "housing"}, Category: "Housing", Subcategory: "Rent", Confidence: 0.95},
	{Keywords: []string{"insurance", "renters insurance", "home insurance"}, Category: "Housing", Subcategory: "Insurance", Confidence: 0.9},

	// Food
	{Keywords: []string{"starbucks", "coffee", "cafe", "dunkin", "peet's", "dutch bros", "tim hortons", "caribou coffee"}, Category: "Food", Subcategory: "Coffee", Confidence: 0.95},
	{Keywords: []string{"whole foods", "trader joe's", "safeway", "kroger", "albertsons", "grocery", "supermarket", "market"}, Category: "Food", Subcategory: "Groceries", Confidence: 0.9},
	{Keywords: []string{"restaurant", "dining", "chipotle", "mcdonald's", "burger king", "taco bell", "subway", "panera", "chick-fil-a"}, Category: "Food", Subcategory: "Restaurants", Confidence: 0.85},

	// Transportation
	{Keywords: []string{"uber", "lyft", "taxi", "cab", "rideshare"}, Category: "Transportation", Subcategory: "Rideshare", Confidence: 0.95},
	{Keywords: []string{"shell", "chevron", "exxon", "mobil", "bp", "gas", "fuel", "gasoline", "petrol"}, Category: "Transportation", Subcategory: "Gas", Confidence: 0.9},
	{Keywords: []string{"parking", "park", "garage"}, Category: "Transportation", Subcategory: "Parking", Confidence: 0.85},

	// Entertainment
	{Keywords: []string{"netflix", "hulu", "disney+", "amazon prime", "hbo", "spotify", "apple music", "streaming"}, Category: "Entertainment", Subcategory: "Subscriptions", Confidence: 0.95},
	{Keywords: []string{"cinema", "movie", "theater", "theatre", "amc", "regal"}, Category: "Entertainment", Subcategory: "Movies", Confidence: 0.9},

	// Utilities
	{Keywords: []string{"electric", "electricity", "power", "pge", "utility"}, Category: "Utilities", Subcategory: "Electric", Confidence: 0.9},
	{Keywords: []string{"internet", "comcast", "xfinity", "at&t", "verizon", "spectrum"}, Category: "Utilities", Subcategory: "Internet", Confidence: 0.9},
	{Keywords: []string{"phone", "mobile", "t-mobile", "sprint", "wireless"}, Category: "Utilities", Subcategory: "Phone", Confidence: 0.85},

	// Shopping
	{Keywords: []string{"amazon", "ebay", "target", "walmart", "costco", "best buy"}, Category: "Shopping", Subcategory: "Online Shopping", Confidence: 0.8},
}

var defaultCategorizer = NewCategorizer(DefaultCategoryRules)

// Categorizer suggests categories from free-text descriptions.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer builds a categorizer over rules. Keywords are lower-cased once
// here so matching only has to fold the description.
func NewCategorizer(rules []CategoryRule) *Categorizer {
	c := &Categorizer{rules: make([]CategoryRule, len(rules))}
	for i, r := range rules {
		kw := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kw[j] = strings.ToLower(k)
		}
		r.Keywords = kw
		c.rules[i] = r
	}
	return c
}

// Rules returns a copy of the rule table.
func (c *Categorizer) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Categorize scores every keyword contained in description by
// ruleConfidence × keywordLength / descriptionLength and returns the best rule
// when its score exceeds 0.3. Anything weaker falls back to Other.
// amount is accepted for future amount-aware rules and currently unused.
func (c *Categorizer) Categorize(description string, amount float64) domain.CategorySuggestion {
	lower := strings.ToLower(description)
	descLen := float64(utf8.RuneCountInString(description))

	var best *CategoryRule
	var bestScore float64
	for i := range c.rules {
		rule := &c.rules[i]
		for _, kw := range rule.Keywords {
			if kw == "" || !strings.Contains(lower, kw) {
				continue
			}
			score := rule.Confidence * float64(utf8.RuneCountInString(kw)) / descLen
			if score > bestScore {
				best, bestScore = rule, score
			}
		}
	}

	if best == nil || bestScore <= minCategoryScore {
		return domain.CategorySuggestion{Category: fallbackCategory, Confidence: fallbackConfidence}
	}
	return domain.CategorySuggestion{
		Category:    best.Category,
		Subcategory: best.Subcategory,
		Confidence:  math.Min(bestScore, 1),
	}
}

// AutoCategorizeExpense categorizes with the built-in rule table.
func AutoCategorizeExpense(description string, amount float64) domain.CategorySuggestion {
	return defaultCategorizer.Categorize(description, amount)
}

type ruleFile struct {
	Rules []CategoryRule `toml:"rules"`
}

// LoadCategoryRules reads a TOML file of [[rules]] tables.
func LoadCategoryRules(path string) ([]CategoryRule, error) {
	var f ruleFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode category rules %s: %w", path, err)
	}
	for i, r := range f.Rules {
		if r.Category == "" || len(r.Keywords) == 0 {
			return nil, &domain.ErrValidation{
				Field:   fmt.Sprintf("rules[%d]", i),
				Message: "category and at least one keyword are required",
			}
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			return nil, &domain.ErrValidation{
				Field:   fmt.Sprintf("rules[%d].confidence", i),
				Message: "must be in (0, 1]",
			}
		}
	}
	return f.Rules, nil
}
