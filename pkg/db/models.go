package db

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the durable record of a swap order. Monetary columns are stored
// as TEXT to keep decimal precision across the round trip.
type Order struct {
	ID       string
	TokenIn  string
	TokenOut string
	Amount   decimal.Decimal
	Slippage decimal.Decimal

	Status        string
	SelectedVenue string
	RaydiumQuote  decimal.NullDecimal
	MeteoraQuote  decimal.NullDecimal
	ExecutedPrice decimal.NullDecimal
	TxHash        string
	ErrorMessage  string
	RetryCount    int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt sql.NullTime
}

// Terminal reports whether the order reached a final state.
func (o *Order) Terminal() bool {
	return o.Status == "CONFIRMED" || o.Status == "FAILED"
}
