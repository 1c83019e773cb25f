package order

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"order-engine/internal/events"
	"order-engine/internal/routing"
	"order-engine/internal/venue"
	"order-engine/pkg/db"
)

// Pipeline drives one admitted order through routing, build, submission and
// settlement, persisting the order and emitting a notification at every
// transition. Failures never escape a run: they are resolved here via the
// retry policy.
type Pipeline struct {
	store    *db.Database
	queue    *AdmissionQueue
	agg      *routing.Aggregator
	provider venue.Provider
	notifier *events.Notifier
	retry    RetryPolicy

	buildLatency time.Duration
	log          *zap.Logger

	wg sync.WaitGroup // tracks detached backoff waits
}

func NewPipeline(store *db.Database, queue *AdmissionQueue, agg *routing.Aggregator, provider venue.Provider, notifier *events.Notifier, retry RetryPolicy, buildLatency time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:        store,
		queue:        queue,
		agg:          agg,
		provider:     provider,
		notifier:     notifier,
		retry:        retry,
		buildLatency: buildLatency,
		log:          logger,
	}
}

// Run executes one admission of the given order id to a terminal or
// re-queued outcome. The caller owns an execution slot for the id; Run
// guarantees the slot is accounted for on every path.
func (p *Pipeline) Run(ctx context.Context, orderID string) {
	o, err := p.store.GetOrder(ctx, orderID)
	if err != nil {
		// No durable record to retry against: release the slot and stop.
		p.log.Error("admitted order missing from store, dropping",
			zap.String("order_id", orderID), zap.Error(err))
		p.queue.MarkFailed(orderID)
		return
	}

	if execErr := p.runStages(ctx, o); execErr != nil {
		p.handleFailure(ctx, o, execErr)
	}
}

// runStages walks the state machine for one attempt. Any panic is converted
// into an internal execution failure at the run boundary.
func (p *Pipeline) runStages(ctx context.Context, o *db.Order) (execErr *ExecutionError) {
	defer func() {
		if r := recover(); r != nil {
			execErr = internalFailure(fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	// PENDING -> ROUTING
	o.Status = StatusRouting
	if err := p.store.SaveOrder(ctx, o); err != nil {
		return internalFailure(err)
	}
	p.notifier.NotifyStatus(o.ID, StatusRouting, "Scanning venues for the best price")

	best, quotes, err := p.agg.BestQuote(ctx, o.TokenIn, o.TokenOut, o.Amount)
	if err != nil {
		return quoteFailure(err)
	}
	recordQuotes(o, quotes)
	o.SelectedVenue = string(best.Venue)
	if err := p.store.SaveOrder(ctx, o); err != nil {
		return internalFailure(err)
	}
	p.notifier.NotifyRouting(o.ID,
		quotePrice(quotes, venue.Raydium), quotePrice(quotes, venue.Meteora),
		o.SelectedVenue)

	// ROUTING -> BUILDING
	o.Status = StatusBuilding
	if err := p.store.SaveOrder(ctx, o); err != nil {
		return internalFailure(err)
	}
	p.notifier.NotifyStatus(o.ID, StatusBuilding, "Building swap transaction")
	if err := sleepCtx(ctx, p.buildLatency); err != nil {
		return internalFailure(err)
	}

	// BUILDING -> SUBMITTED
	o.Status = StatusSubmitted
	if err := p.store.SaveOrder(ctx, o); err != nil {
		return internalFailure(err)
	}
	p.notifier.NotifyStatus(o.ID, StatusSubmitted, "Submitting transaction to "+o.SelectedVenue)

	res, err := p.provider.ExecuteSwap(ctx, best.Venue, o.Amount, best)
	if err != nil {
		return swapFailure(err)
	}

	// SUBMITTED -> CONFIRMED
	o.Status = StatusConfirmed
	o.ExecutedPrice = decimal.NewNullDecimal(res.ExecutedPrice)
	o.TxHash = res.TxHash
	o.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := p.store.SaveOrder(ctx, o); err != nil {
		return internalFailure(err)
	}
	p.notifier.NotifyConfirmed(o.ID, o.SelectedVenue, res.ExecutedPrice, res.TxHash,
		nullDecimalPtr(o.RaydiumQuote), nullDecimalPtr(o.MeteoraQuote))
	p.queue.MarkCompleted(o.ID)

	p.log.Info("order confirmed",
		zap.String("order_id", o.ID),
		zap.String("venue", o.SelectedVenue),
		zap.String("executed_price", res.ExecutedPrice.String()),
		zap.String("tx_hash", res.TxHash))
	return nil
}

// handleFailure applies the retry policy to a failed attempt: either backs
// off and re-admits the order, or finalizes it as FAILED.
func (p *Pipeline) handleFailure(ctx context.Context, o *db.Order, execErr *ExecutionError) {
	o.RetryCount++

	if p.retry.Exhausted(o.RetryCount) {
		p.finalizeFailed(ctx, o, execErr.Error())
		p.log.Error("order failed permanently",
			zap.String("order_id", o.ID),
			zap.Int("retries", o.RetryCount),
			zap.String("kind", execErr.Kind.String()),
			zap.Error(execErr.Err))
		return
	}

	delay := p.retry.Delay(o.RetryCount)
	p.log.Warn("order attempt failed, retrying",
		zap.String("order_id", o.ID),
		zap.Int("attempt", o.RetryCount),
		zap.Int("max_retries", p.retry.MaxRetries),
		zap.Duration("backoff", delay),
		zap.String("kind", execErr.Kind.String()),
		zap.Error(execErr.Err))

	o.Status = StatusPending
	if err := p.store.SaveOrder(ctx, o); err != nil {
		p.log.Error("persisting retry state failed", zap.String("order_id", o.ID), zap.Error(err))
		p.finalizeFailed(ctx, o, execErr.Error())
		return
	}

	// Free the execution slot and the worker for the duration of the
	// backoff so other orders can run while this one waits.
	p.queue.Release(o.ID)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := sleepCtx(ctx, delay); err != nil {
			// Shutting down; the order stays PENDING in the store.
			p.queue.MarkFailed(o.ID)
			return
		}

		p.notifier.NotifyStatus(o.ID, StatusPending,
			fmt.Sprintf("Retrying... (attempt %d/%d)", o.RetryCount, p.retry.MaxRetries))

		if !p.queue.Enqueue(o.ID) {
			p.finalizeFailed(ctx, o, "admission queue full during retry: "+execErr.Error())
		}
	}()
}

// Wait blocks until all detached backoff waits have settled. Used during
// shutdown after cancelling the dispatch context.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) finalizeFailed(ctx context.Context, o *db.Order, errorMessage string) {
	o.Status = StatusFailed
	o.ErrorMessage = errorMessage
	o.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := p.store.SaveOrder(ctx, o); err != nil {
		p.log.Error("persisting terminal failure failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	p.notifier.NotifyFailed(o.ID, errorMessage)
	p.queue.MarkFailed(o.ID)
}

func recordQuotes(o *db.Order, quotes []venue.Quote) {
	for _, q := range quotes {
		switch q.Venue {
		case venue.Raydium:
			o.RaydiumQuote = decimal.NewNullDecimal(q.Price)
		case venue.Meteora:
			o.MeteoraQuote = decimal.NewNullDecimal(q.Price)
		}
	}
}

func quotePrice(quotes []venue.Quote, v venue.Venue) decimal.Decimal {
	for _, q := range quotes {
		if q.Venue == v {
			return q.Price
		}
	}
	return decimal.Zero
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
