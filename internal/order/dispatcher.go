package order

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher converts admission-queue availability into execution work. It
// wakes on a fixed tick (and on queue activity), pulls admitted order ids up
// to the concurrency cap, and detaches one pipeline run per id onto a worker
// slot. It never waits for a run to finish.
type Dispatcher struct {
	queue    *AdmissionQueue
	pipeline *Pipeline
	interval time.Duration

	workers chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
}

// NewDispatcher sizes the worker pool to at least the queue's concurrency
// cap so the admission queue, not the pool, is the true concurrency gate.
func NewDispatcher(queue *AdmissionQueue, pipeline *Pipeline, interval time.Duration, workerCount int, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if limit := queue.Stats().MaxConcurrent; workerCount < limit {
		workerCount = limit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:    queue,
		pipeline: pipeline,
		interval: interval,
		workers:  make(chan struct{}, workerCount),
		log:      logger,
	}
}

// Run blocks until ctx is cancelled, dispatching admitted orders as slots
// allow. Call from its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.queue.Wake():
		}
		d.drain(ctx)
	}
}

// drain starts runs until the queue yields nothing (empty FIFO or cap hit).
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		orderID, ok := d.queue.PollNext()
		if !ok {
			return
		}
		d.spawn(ctx, orderID)
	}
}

// spawn detaches one pipeline run. PollNext admits at most MaxConcurrent
// ids and the pool is at least that large, so slot acquisition cannot block.
func (d *Dispatcher) spawn(ctx context.Context, orderID string) {
	d.wg.Add(1)
	d.workers <- struct{}{}

	go func() {
		defer d.wg.Done()
		defer func() { <-d.workers }()

		d.log.Debug("dispatching order", zap.String("order_id", orderID))
		d.pipeline.Run(ctx, orderID)
	}()
}

// WaitAll blocks until every in-flight run returns. Used during shutdown
// after cancelling the Run context.
func (d *Dispatcher) WaitAll() {
	d.wg.Wait()
}
