package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"order-engine/internal/events"
	"order-engine/internal/routing"
	"order-engine/internal/venue"
	"order-engine/pkg/db"
)

type harness struct {
	store    *db.Database
	queue    *AdmissionQueue
	bus      *events.Bus
	pipeline *Pipeline
	service  *Service
}

// fastProfiles returns deterministic zero-latency venue profiles. Raydium
// quotes 100.5 with 0.3% fee, Meteora 99.8 with 0.2% fee, so Raydium wins on
// net output.
func fastProfiles(failureRate float64) []venue.Profile {
	return []venue.Profile{
		{
			Venue: string(venue.Raydium), BasePrice: 100.5,
			PriceMinMult: 1.0, PriceMaxMult: 1.0, Fee: 0.003,
			SwapFailureRate: failureRate, MaxSlippage: 0.01,
		},
		{
			Venue: string(venue.Meteora), BasePrice: 99.8,
			PriceMinMult: 1.0, PriceMaxMult: 1.0, Fee: 0.002,
			SwapFailureRate: failureRate, MaxSlippage: 0.01,
		},
	}
}

func newHarness(t *testing.T, profiles []venue.Profile, retry RetryPolicy, maxQueueSize int) *harness {
	t.Helper()

	store, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := db.ApplyMigrations(store); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	queue := NewAdmissionQueue(maxQueueSize, 10, nil)
	bus := events.NewBus()
	notifier := events.NewNotifier(bus, nil)

	provider := venue.NewMockProvider(profiles, nil)
	agg, err := routing.NewAggregator(provider, []venue.Venue{venue.Raydium, venue.Meteora}, nil)
	if err != nil {
		t.Fatalf("NewAggregator returned error: %v", err)
	}

	pipeline := NewPipeline(store, queue, agg, provider, notifier, retry, 0, nil)
	service := NewService(store, queue, notifier, nil)
	return &harness{store: store, queue: queue, bus: bus, pipeline: pipeline, service: service}
}

func (h *harness) waitForTerminal(t *testing.T, orderID string, timeout time.Duration) *db.Order {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		o, err := h.store.GetOrder(context.Background(), orderID)
		if err != nil {
			t.Fatalf("GetOrder returned error: %v", err)
		}
		if o.Terminal() {
			return o
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("order %s did not reach a terminal state within %v", orderID, timeout)
	return nil
}

func TestPipelineConfirmsOrder(t *testing.T) {
	h := newHarness(t, fastProfiles(0), RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}, 100)
	ctx := context.Background()

	stream, unsub := h.bus.Subscribe(events.TopicOrders, 64)
	defer unsub()

	o, _, err := h.service.SubmitOrder(ctx, "SOL", "USDC", decimal.NewFromInt(10), decimal.NewFromFloat(0.01))
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	id, ok := h.queue.PollNext()
	if !ok || id != o.ID {
		t.Fatalf("PollNext=%q/%v, expected %q", id, ok, o.ID)
	}
	h.pipeline.Run(ctx, id)

	final, err := h.store.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}
	if final.Status != StatusConfirmed {
		t.Fatalf("Status=%s, expected CONFIRMED (error=%q)", final.Status, final.ErrorMessage)
	}
	if final.SelectedVenue != string(venue.Raydium) {
		t.Fatalf("SelectedVenue=%s, expected RAYDIUM", final.SelectedVenue)
	}
	if final.TxHash == "" {
		t.Fatal("expected a transaction hash")
	}
	if !final.CompletedAt.Valid {
		t.Fatal("expected CompletedAt on a confirmed order")
	}
	if final.RetryCount != 0 {
		t.Fatalf("RetryCount=%d, expected 0", final.RetryCount)
	}

	raydiumPrice := decimal.NewFromFloat(100.5)
	if !final.RaydiumQuote.Valid || !final.RaydiumQuote.Decimal.Equal(raydiumPrice) {
		t.Fatalf("RaydiumQuote=%v, expected 100.5", final.RaydiumQuote)
	}
	if !final.MeteoraQuote.Valid || !final.MeteoraQuote.Decimal.Equal(decimal.NewFromFloat(99.8)) {
		t.Fatalf("MeteoraQuote=%v, expected 99.8", final.MeteoraQuote)
	}

	// Fill price stays within the quoted price minus the slippage bound.
	if !final.ExecutedPrice.Valid {
		t.Fatal("expected an executed price")
	}
	floor := raydiumPrice.Mul(decimal.NewFromFloat(0.99))
	if final.ExecutedPrice.Decimal.GreaterThan(raydiumPrice) || final.ExecutedPrice.Decimal.LessThan(floor) {
		t.Fatalf("ExecutedPrice=%s outside [%s, %s]", final.ExecutedPrice.Decimal, floor, raydiumPrice)
	}

	// Status notifications arrive in state-machine order.
	want := []string{StatusPending, StatusRouting, StatusRouting, StatusBuilding, StatusSubmitted, StatusConfirmed}
	var got []string
	for len(got) < len(want) {
		select {
		case msg := <-stream:
			got = append(got, msg.Status)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for notifications, got %v", got)
		}
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification sequence %v, expected %v", got, want)
		}
	}

	if stats := h.queue.Stats(); stats.ProcessingCount != 0 || stats.ActiveOrders != 0 {
		t.Fatalf("stats=%+v, expected released slot and retired order", stats)
	}
}

func TestPipelineRetriesUntilTerminalFailure(t *testing.T) {
	h := newHarness(t, fastProfiles(1.0), RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp := NewDispatcher(h.queue, h.pipeline, 5*time.Millisecond, 0, nil)
	go disp.Run(ctx)

	o, _, err := h.service.SubmitOrder(ctx, "SOL", "USDC", decimal.NewFromInt(10), decimal.NewFromFloat(0.01))
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	final := h.waitForTerminal(t, o.ID, 5*time.Second)
	if final.Status != StatusFailed {
		t.Fatalf("Status=%s, expected FAILED", final.Status)
	}
	if final.RetryCount != 3 {
		t.Fatalf("RetryCount=%d, expected 3", final.RetryCount)
	}
	if final.ErrorMessage == "" {
		t.Fatal("terminal failure must carry an error message")
	}
	if !final.CompletedAt.Valid {
		t.Fatal("expected CompletedAt on a failed order")
	}

	cancel()
	disp.WaitAll()
	h.pipeline.Wait()

	if stats := h.queue.Stats(); stats.ProcessingCount != 0 || stats.ActiveOrders != 0 {
		t.Fatalf("stats=%+v, expected all slots released", stats)
	}
}

func TestPipelineDropsOrphanedOrder(t *testing.T) {
	h := newHarness(t, fastProfiles(0), DefaultRetryPolicy(), 100)

	h.queue.Enqueue("ghost")
	id, ok := h.queue.PollNext()
	if !ok {
		t.Fatal("poll failed")
	}

	h.pipeline.Run(context.Background(), id)

	if stats := h.queue.Stats(); stats.ProcessingCount != 0 || stats.ActiveOrders != 0 {
		t.Fatalf("stats=%+v, expected orphan to be dropped without retry", stats)
	}
}

func TestRetryReleasesSlotDuringBackoff(t *testing.T) {
	h := newHarness(t, fastProfiles(1.0), RetryPolicy{MaxRetries: 2, InitialDelay: 300 * time.Millisecond}, 100)
	ctx := context.Background()

	o, _, err := h.service.SubmitOrder(ctx, "SOL", "USDC", decimal.NewFromInt(1), decimal.Zero)
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	id, ok := h.queue.PollNext()
	if !ok {
		t.Fatal("poll failed")
	}

	// Run returns once the backoff wait is detached.
	h.pipeline.Run(ctx, id)

	reloaded, err := h.store.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}
	if reloaded.Status != StatusPending || reloaded.RetryCount != 1 {
		t.Fatalf("status=%s retries=%d, expected PENDING/1", reloaded.Status, reloaded.RetryCount)
	}

	stats := h.queue.Stats()
	if stats.ProcessingCount != 0 {
		t.Fatalf("ProcessingCount=%d during backoff, expected 0", stats.ProcessingCount)
	}
	if stats.ActiveOrders != 1 {
		t.Fatalf("ActiveOrders=%d during backoff, expected 1", stats.ActiveOrders)
	}

	// The order re-enters the FIFO once the backoff elapses.
	deadline := time.Now().Add(2 * time.Second)
	for h.queue.Stats().QueueSize == 0 {
		if time.Now().After(deadline) {
			t.Fatal("order was not re-admitted after backoff")
		}
		time.Sleep(10 * time.Millisecond)
	}
	h.pipeline.Wait()
}

func TestSubmitOrderRejectedWhenQueueFull(t *testing.T) {
	h := newHarness(t, fastProfiles(0), DefaultRetryPolicy(), 1)
	ctx := context.Background()

	if _, _, err := h.service.SubmitOrder(ctx, "SOL", "USDC", decimal.NewFromInt(1), decimal.Zero); err != nil {
		t.Fatalf("first SubmitOrder returned error: %v", err)
	}

	rejected, msg, err := h.service.SubmitOrder(ctx, "SOL", "USDC", decimal.NewFromInt(2), decimal.Zero)
	if err != nil {
		t.Fatalf("second SubmitOrder returned error: %v", err)
	}
	if msg != queueFullMessage {
		t.Fatalf("message=%q, expected %q", msg, queueFullMessage)
	}
	if rejected.Status != StatusFailed || rejected.ErrorMessage != queueFullMessage {
		t.Fatalf("rejected order state: status=%s error=%q", rejected.Status, rejected.ErrorMessage)
	}
	if !rejected.CompletedAt.Valid {
		t.Fatal("rejected order must carry a completion time")
	}
	if rejected.RetryCount != 0 {
		t.Fatalf("RetryCount=%d, expected 0 for pre-pipeline rejection", rejected.RetryCount)
	}
}
