package analysis

import (
	"math"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/domain"
)

const (
	similarAmountTolerance = 0.01
	similarDateWindowDays  = 7
	similarMinCommonWords  = 2
)

// FindSimilarExpenses returns existing expenses that look like the same
// purchase as candidate: same amount, same category (or filed under it as a
// subcategory), and either close in date or sharing description words.
func FindSimilarExpenses(existing []domain.Expense, candidate domain.Expense) []domain.Expense {
	similar := make([]domain.Expense, 0)
	for _, ex := range excludeCandidate(existing, candidate) {
		if math.Abs(ex.Amount-candidate.Amount) >= similarAmountTolerance {
			continue
		}
		if ex.Category != candidate.Category && ex.Subcategory != candidate.Category {
			continue
		}
		days := daysBetween(ex.Date, candidate.Date)
		if days < 0 {
			days = -days
		}
		if days <= similarDateWindowDays || commonWords(candidate.Description, ex.Description) >= similarMinCommonWords {
			similar = append(similar, ex)
		}
	}
	return similar
}

// commonWords counts the words of a that also appear in b, case-insensitively.
func commonWords(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(b)) {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range strings.Fields(strings.ToLower(a)) {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}
