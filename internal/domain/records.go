package domain

import "time"

// ============================================================
// Records owned by the store (expenses, income, budgets)
// ============================================================

// Rent payment statuses.
const (
	RentStatusPaid    = "paid"
	RentStatusUnpaid  = "unpaid"
	RentStatusPartial = "partial"
	RentStatusOverdue = "overdue"
)

// Budget periods.
const (
	BudgetPeriodWeekly  = "weekly"
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodAnnual  = "annual"
)

// Rent expenses are filed under this category/subcategory pair.
const (
	CategoryHouseExpenses = "House Expenses"
	SubcategoryRoomRent   = "Room Rent"
)

// Expense is a single spending record.
type Expense struct {
	ID             string              `json:"id,omitempty"`
	UserID         string              `json:"userId,omitempty"`
	Amount         float64             `json:"amount" validate:"gte=0,lte=1000000000"`
	Category       string              `json:"category"`
	Subcategory    string              `json:"subcategory,omitempty"`
	Description    string              `json:"description" validate:"required"`
	Date           time.Time           `json:"date" validate:"required"`
	PaymentMethod  string              `json:"paymentMethod,omitempty"`
	Location       string              `json:"location,omitempty"`
	Recurring      bool                `json:"recurring,omitempty"`
	Tags           []string            `json:"tags,omitempty"`
	PaymentDetails *RentPaymentDetails `json:"paymentDetails,omitempty"`
	CreatedAt      time.Time           `json:"createdAt,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt,omitempty"`
}

// RentPaymentDetails carries the room-rent specific fields of an expense.
type RentPaymentDetails struct {
	PaymentDate      time.Time   `json:"paymentDate"`
	Status           string      `json:"status,omitempty" validate:"omitempty,oneof=paid unpaid partial overdue"`
	RentPeriod       *RentPeriod `json:"rentPeriod,omitempty"`
	WeeklyRate       float64     `json:"weeklyRate,omitempty" validate:"gte=0,lte=1000000000"`
	CalculatedAmount float64     `json:"calculatedAmount,omitempty"`
	LandlordName     string      `json:"landlordName,omitempty"`
	RoomDetails      string      `json:"roomDetails,omitempty"`
}

// RentPeriod is an inclusive date range a weekly rate is applied over.
type RentPeriod struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	TotalDays  int       `json:"totalDays"`
	TotalWeeks float64   `json:"totalWeeks"`
}

// Income is a single earnings record.
type Income struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Amount      float64   `json:"amount" validate:"gte=0,lte=1000000000"`
	Source      string    `json:"source" validate:"required"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date" validate:"required"`
	Recurring   bool      `json:"recurring,omitempty"`
	Frequency   string    `json:"frequency,omitempty" validate:"omitempty,oneof=weekly bi-weekly monthly quarterly annual"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Budget is a spending envelope for a category and period.
type Budget struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Category  string    `json:"category" validate:"required"`
	Amount    float64   `json:"amount" validate:"gt=0,lte=1000000000"`
	Spent     float64   `json:"spent" validate:"gte=0"`
	Period    string    `json:"period" validate:"required,oneof=weekly monthly annual"`
	Rollover  bool      `json:"rollover"`
	Color     string    `json:"color,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// BudgetStatus is the derived view of a budget envelope.
type BudgetStatus struct {
	Budget     Budget  `json:"budget"`
	Percentage float64 `json:"percentage"`
	Remaining  float64 `json:"remaining"`
	OverBudget bool    `json:"overBudget"`
	Warning    bool    `json:"warning"`
}
