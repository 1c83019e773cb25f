package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message is one order status update as delivered to subscribers. The same
// shape is streamed over the websocket, so field names are part of the wire
// contract.
type Message struct {
	OrderID       string           `json:"orderId"`
	Status        string           `json:"status"`
	Message       string           `json:"message,omitempty"`
	SelectedVenue string           `json:"selectedVenue,omitempty"`
	RaydiumQuote  *decimal.Decimal `json:"raydiumQuote,omitempty"`
	MeteoraQuote  *decimal.Decimal `json:"meteoraQuote,omitempty"`
	ExecutedPrice *decimal.Decimal `json:"executedPrice,omitempty"`
	TxHash        string           `json:"txHash,omitempty"`
	Error         string           `json:"error,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
