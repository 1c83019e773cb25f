package events

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier shapes order lifecycle updates and publishes each one to both the
// order-scoped topic and the global topic.
type Notifier struct {
	bus *Bus
	log *zap.Logger
}

func NewNotifier(bus *Bus, logger *zap.Logger) *Notifier {
	return &Notifier{bus: bus, log: logger}
}

// NotifyStatus announces a plain status change.
func (n *Notifier) NotifyStatus(orderID, status, message string) {
	n.send(Message{
		OrderID:   orderID,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// NotifyRouting announces the routing decision with both venue quotes.
func (n *Notifier) NotifyRouting(orderID string, raydium, meteora decimal.Decimal, selectedVenue string) {
	n.send(Message{
		OrderID:       orderID,
		Status:        "ROUTING",
		Message:       "Comparing DEX prices - Selected: " + selectedVenue,
		SelectedVenue: selectedVenue,
		RaydiumQuote:  &raydium,
		MeteoraQuote:  &meteora,
		Timestamp:     time.Now().UTC(),
	})
}

// NotifyConfirmed announces terminal success with the execution details.
func (n *Notifier) NotifyConfirmed(orderID, venue string, executedPrice decimal.Decimal, txHash string, raydium, meteora *decimal.Decimal) {
	n.send(Message{
		OrderID:       orderID,
		Status:        "CONFIRMED",
		Message:       "Transaction confirmed successfully",
		SelectedVenue: venue,
		ExecutedPrice: &executedPrice,
		TxHash:        txHash,
		RaydiumQuote:  raydium,
		MeteoraQuote:  meteora,
		Timestamp:     time.Now().UTC(),
	})
}

// NotifyFailed announces terminal failure.
func (n *Notifier) NotifyFailed(orderID, errorMessage string) {
	n.send(Message{
		OrderID:   orderID,
		Status:    "FAILED",
		Message:   "Order execution failed",
		Error:     errorMessage,
		Timestamp: time.Now().UTC(),
	})
}

func (n *Notifier) send(msg Message) {
	n.bus.Publish(OrderTopic(msg.OrderID), msg)
	n.bus.Publish(TopicOrders, msg)
	if n.log != nil {
		n.log.Debug("order status update",
			zap.String("order_id", msg.OrderID),
			zap.String("status", msg.Status),
			zap.String("message", msg.Message))
	}
}
