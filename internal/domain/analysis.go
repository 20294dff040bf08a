package domain

import "time"

// ============================================================
// Analysis engine results
// ============================================================

// Anomaly types.
const (
	AnomalyUnusualAmount  = "unusual-amount"
	AnomalyFrequencySpike = "frequency-spike"
	AnomalyNewMerchant    = "new-merchant"
	AnomalyDuplicate      = "duplicate"
	AnomalyLocationChange = "location-change"
)

// Severity and priority levels share the same vocabulary.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Insight types.
const (
	InsightSavings  = "savings"
	InsightSpending = "spending"
	InsightBudget   = "budget"
	InsightGoal     = "goal"
	InsightWarning  = "warning"
	InsightTip      = "tip"
)

// Forecast trends.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Anomaly flags a single expense that looks wrong or noteworthy.
type Anomaly struct {
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Message        string  `json:"message"`
	Expense        Expense `json:"expense"`
	Recommendation string  `json:"recommendation"`
}

// Insight is a human-readable recommendation derived from aggregates.
type Insight struct {
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	Actionable  bool           `json:"actionable"`
	Action      *InsightAction `json:"action,omitempty"`
}

// InsightAction points the user at the screen where they can act.
type InsightAction struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// Forecast is the next-month spending projection.
type Forecast struct {
	Predicted  float64 `json:"predicted"`
	Confidence float64 `json:"confidence"`
	Trend      string  `json:"trend"`
}

// CategorySuggestion is the auto-categorizer's answer for a description.
type CategorySuggestion struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ExpenseCheck bundles everything the pre-save checks found for a candidate.
type ExpenseCheck struct {
	Anomalies []Anomaly           `json:"anomalies"`
	Similar   []Expense           `json:"similar"`
	Suggested *CategorySuggestion `json:"suggested,omitempty"`
}

// FinancialSummary aggregates income and spending over a date range.
type FinancialSummary struct {
	Period             string             `json:"period"`
	From               time.Time          `json:"from"`
	To                 time.Time          `json:"to"`
	TotalIncome        float64            `json:"totalIncome"`
	TotalExpenses      float64            `json:"totalExpenses"`
	NetSavings         float64            `json:"netSavings"`
	SavingsRate        float64            `json:"savingsRate"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
	TopExpenses        []TopExpense       `json:"topExpenses"`
}

// TopExpense is one of the largest expenses in a summary period.
type TopExpense struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}
