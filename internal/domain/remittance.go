package domain

import "time"

// ============================================================
// Family remittance (USD -> NPR)
// ============================================================

// Transfer methods.
const (
	MethodWesternUnion = "western-union"
	MethodMoneyGram    = "moneygram"
	MethodBankTransfer = "bank-transfer"
	MethodCrypto       = "crypto"
	MethodOther        = "other"
)

// Remittance statuses.
const (
	RemittancePending   = "pending"
	RemittanceInTransit = "in-transit"
	RemittanceCompleted = "completed"
	RemittanceFailed    = "failed"
	RemittanceCancelled = "cancelled"
)

// Rate sources.
const (
	RateSourceLive     = "live"
	RateSourceFallback = "fallback"
)

// ExchangeRate is a buy/sell quote for one currency against NPR.
type ExchangeRate struct {
	Currency string  `json:"currency"`
	Buy      float64 `json:"buy"`
	Sell     float64 `json:"sell"`
	Date     string  `json:"date"`
}

// ExchangeRateData is the USD rate together with when it was obtained.
type ExchangeRateData struct {
	USD         ExchangeRate `json:"usd"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Source      string       `json:"source"`
}

// Recipient is a family member money is sent to.
type Recipient struct {
	ID              string    `json:"id,omitempty"`
	UserID          string    `json:"userId,omitempty"`
	Name            string    `json:"name" validate:"required"`
	Relationship    string    `json:"relationship" validate:"required"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty" validate:"omitempty,email"`
	City            string    `json:"city,omitempty"`
	Country         string    `json:"country,omitempty"`
	BankName        string    `json:"bankName,omitempty"`
	AccountName     string    `json:"accountName,omitempty"`
	AccountNumber   string    `json:"accountNumber,omitempty"`
	PreferredMethod string    `json:"preferredMethod,omitempty" validate:"omitempty,oneof=western-union moneygram bank-transfer crypto other"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// Remittance is a recorded cross-border transfer.
type Remittance struct {
	ID                string     `json:"id,omitempty"`
	UserID            string     `json:"userId,omitempty"`
	RecipientID       string     `json:"recipientId" validate:"required"`
	RecipientName     string     `json:"recipientName"`
	Amount            float64    `json:"amount" validate:"gt=0,lte=1000000000"`
	Currency          string     `json:"currency"`
	ExchangeRate      float64    `json:"exchangeRate"`
	LocalAmount       float64    `json:"localAmount"`
	LocalCurrency     string     `json:"localCurrency"`
	TransferMethod    string     `json:"transferMethod" validate:"required,oneof=western-union moneygram bank-transfer crypto other"`
	TransferFee       float64    `json:"transferFee"`
	TotalCost         float64    `json:"totalCost"`
	Purpose           string     `json:"purpose,omitempty" validate:"omitempty,oneof=medical education living emergency gift other"`
	DeliveryOption    string     `json:"deliveryOption,omitempty" validate:"omitempty,oneof=cash-pickup bank-deposit mobile-wallet home-delivery"`
	Status            string     `json:"status" validate:"omitempty,oneof=pending in-transit completed failed cancelled"`
	TransferReference string     `json:"transferReference,omitempty"`
	ExpectedDelivery  *time.Time `json:"expectedDelivery,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Date              time.Time  `json:"date"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
}

// RemittanceQuote is what a transfer would cost before it is recorded.
type RemittanceQuote struct {
	Amount           float64   `json:"amount"`
	Method           string    `json:"method"`
	ExchangeRate     float64   `json:"exchangeRate"`
	RateSource       string    `json:"rateSource"`
	LocalAmount      float64   `json:"localAmount"`
	TransferFee      float64   `json:"transferFee"`
	TotalCost        float64   `json:"totalCost"`
	ExpectedDelivery time.Time `json:"expectedDelivery"`
	Formatted        Formatted `json:"formatted"`
}

// Formatted holds display strings for a quote.
type Formatted struct {
	Amount      string `json:"amount"`
	LocalAmount string `json:"localAmount"`
	TotalCost   string `json:"totalCost"`
}
