// Package analysis is the rule-based financial analysis engine: anomaly
// detection, spend forecasting, smart insights, rent arithmetic and
// auto-categorization.
//
// Every function is a pure computation over the records it is given. The only
// input that is not an argument is the engine clock, which tests replace.
package analysis

import (
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

// Engine evaluates the analysis rules against a fixed clock and rule table.
type Engine struct {
	now         func() time.Time
	categorizer *Categorizer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCategorizer replaces the default keyword rule table.
func WithCategorizer(c *Categorizer) Option {
	return func(e *Engine) {
		if c != nil {
			e.categorizer = c
		}
	}
}

// NewEngine creates an engine using the wall clock and the default rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:         time.Now,
		categorizer: defaultCategorizer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// CategoryRules returns the keyword table the engine categorizes with.
func (e *Engine) CategoryRules() []CategoryRule {
	return e.categorizer.Rules()
}

// Categorize suggests a category for a free-text description.
func (e *Engine) Categorize(description string, amount float64) domain.CategorySuggestion {
	return e.categorizer.Categorize(description, amount)
}

// monthStart returns midnight of the first day of t's month, in t's location.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func sumAmounts(expenses []domain.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}
