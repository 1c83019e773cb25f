package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-engine/internal/events"
	"order-engine/pkg/db"
)

const queueFullMessage = "Queue is full, please try again later"

// Service exposes the core order operations consumed by the API layer:
// submission with immediate acknowledgement, lookups, and queue stats.
type Service struct {
	store    *db.Database
	queue    *AdmissionQueue
	notifier *events.Notifier
	log      *zap.Logger
}

func NewService(store *db.Database, queue *AdmissionQueue, notifier *events.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, queue: queue, notifier: notifier, log: logger}
}

// SubmitOrder persists a new order and attempts admission. It returns as
// soon as the order is queued (or rejected) — execution happens
// asynchronously and progress is observable via the notification stream.
func (s *Service) SubmitOrder(ctx context.Context, tokenIn, tokenOut string, amount, slippage decimal.Decimal) (*db.Order, string, error) {
	o := &db.Order{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   amount,
		Slippage: slippage,
		Status:   StatusPending,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return nil, "", fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order submitted",
		zap.String("order_id", o.ID),
		zap.String("pair", tokenIn+"/"+tokenOut),
		zap.String("amount", amount.String()))

	if !s.queue.Enqueue(o.ID) {
		o.Status = StatusFailed
		o.ErrorMessage = queueFullMessage
		o.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		if err := s.store.SaveOrder(ctx, o); err != nil {
			return nil, "", fmt.Errorf("finalize rejected order: %w", err)
		}
		s.notifier.NotifyFailed(o.ID, queueFullMessage)
		return o, queueFullMessage, nil
	}

	s.notifier.NotifyStatus(o.ID, StatusPending, "Order received and queued for execution")
	return o, "Order queued successfully. Subscribe to the order stream for live updates.", nil
}

// GetOrder loads one order; returns db.ErrNotFound when absent.
func (s *Service) GetOrder(ctx context.Context, id string) (*db.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// ListRecentOrders returns the 100 most recent orders, newest first.
func (s *Service) ListRecentOrders(ctx context.Context) ([]db.Order, error) {
	return s.store.ListRecentOrders(ctx, 100)
}

// QueueStats snapshots admission queue occupancy.
func (s *Service) QueueStats() Stats {
	return s.queue.Stats()
}
