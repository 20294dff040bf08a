package domain

import "time"

// ============================================================
// Room rent
// ============================================================

// RentPeriodResult is the outcome of measuring a rent period.
type RentPeriodResult struct {
	TotalDays  int     `json:"totalDays"`
	TotalWeeks float64 `json:"totalWeeks"`
	IsExtended bool    `json:"isExtended"`
}

// RentSuggestion is a proposed period for the next rent payment.
type RentSuggestion struct {
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	IsSequential bool      `json:"isSequential"`
}

// RentInput is what the user entered for a rent payment.
// SavedRate is the previously saved weekly rate; zero means none.
type RentInput struct {
	PaymentDate time.Time `json:"paymentDate" validate:"required"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	WeeklyRate  float64   `json:"weeklyRate" validate:"lte=1000000000"`
	SavedRate   float64   `json:"savedRate,omitempty" validate:"lte=1000000000"`
}

// RentValidation separates blocking errors from informational warnings.
type RentValidation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	IsValid  bool     `json:"isValid"`
}

// RentCalculation is returned to the rent form: the period plus the amount due.
type RentCalculation struct {
	RentPeriodResult
	WeeklyRate float64        `json:"weeklyRate"`
	Amount     float64        `json:"amount"`
	Validation RentValidation `json:"validation"`
}

// RentStats are the headline numbers of a user's rent history.
type RentStats struct {
	TotalPaid         float64 `json:"totalPaid"`
	AverageRent       float64 `json:"averageRent"`
	RentToIncomeRatio float64 `json:"rentToIncomeRatio"`
	PaymentsCount     int     `json:"paymentsCount"`
}

// RentInsights is the rent history analysis.
type RentInsights struct {
	HasData  bool       `json:"hasData"`
	Insights []string   `json:"insights"`
	Stats    *RentStats `json:"stats,omitempty"`
}
