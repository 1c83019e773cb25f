package order

import (
	"sync"

	"go.uber.org/zap"
)

// AdmissionQueue bounds waiting work with a FIFO and bounds concurrent
// execution with an in-flight set. All state is guarded by one mutex; every
// operation is a single critical section so the FIFO, active set, and
// in-flight set stay consistent under concurrent dispatch and completion.
type AdmissionQueue struct {
	mu       sync.Mutex
	fifo     []string
	active   map[string]struct{} // admitted, not yet terminal
	inflight map[string]struct{} // currently holding an execution slot

	maxQueueSize  int
	maxConcurrent int

	wake chan struct{}
	log  *zap.Logger
}

// Stats is a point-in-time queue snapshot. JSON names match the queue stats
// endpoint payload.
type Stats struct {
	QueueSize       int `json:"queueSize"`
	ProcessingCount int `json:"processingCount"`
	ActiveOrders    int `json:"activeOrders"`
	MaxConcurrent   int `json:"maxConcurrent"`
	MaxQueueSize    int `json:"maxQueueSize"`
}

func NewAdmissionQueue(maxQueueSize, maxConcurrent int, logger *zap.Logger) *AdmissionQueue {
	if maxQueueSize <= 0 {
		maxQueueSize = 100
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionQueue{
		active:        make(map[string]struct{}),
		inflight:      make(map[string]struct{}),
		maxQueueSize:  maxQueueSize,
		maxConcurrent: maxConcurrent,
		wake:          make(chan struct{}, 1),
		log:           logger,
	}
}

// Enqueue admits an order id into the FIFO. It rejects immediately (returns
// false) when the FIFO is full so callers can fail fast instead of stalling.
func (q *AdmissionQueue) Enqueue(orderID string) bool {
	q.mu.Lock()
	if len(q.fifo) >= q.maxQueueSize {
		q.mu.Unlock()
		q.log.Warn("admission queue full, rejecting order", zap.String("order_id", orderID))
		return false
	}
	q.active[orderID] = struct{}{}
	q.fifo = append(q.fifo, orderID)
	queued, processing := len(q.fifo), len(q.inflight)
	q.mu.Unlock()

	q.notify()
	q.log.Info("order admitted",
		zap.String("order_id", orderID),
		zap.Int("queue_size", queued),
		zap.Int("processing", processing))
	return true
}

// PollNext removes and returns the FIFO head, claiming an execution slot for
// it. It returns false when the concurrency cap is reached or the FIFO is
// empty.
func (q *AdmissionQueue) PollNext() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.inflight) >= q.maxConcurrent || len(q.fifo) == 0 {
		return "", false
	}
	orderID := q.fifo[0]
	q.fifo = q.fifo[1:]
	q.inflight[orderID] = struct{}{}
	return orderID, true
}

// MarkCompleted retires an admitted order after terminal success, freeing its
// execution slot.
func (q *AdmissionQueue) MarkCompleted(orderID string) {
	q.retire(orderID, "completed")
}

// MarkFailed retires an admitted order after terminal failure, freeing its
// execution slot if it still holds one.
func (q *AdmissionQueue) MarkFailed(orderID string) {
	q.retire(orderID, "failed")
}

// Release frees an order's execution slot while keeping the order active, so
// a retrying order does not hold capacity through its backoff wait. The
// caller re-admits the order with Enqueue once the backoff elapses.
func (q *AdmissionQueue) Release(orderID string) {
	q.mu.Lock()
	delete(q.inflight, orderID)
	q.mu.Unlock()
	q.notify()
}

func (q *AdmissionQueue) retire(orderID, outcome string) {
	q.mu.Lock()
	delete(q.active, orderID)
	delete(q.inflight, orderID)
	queued, processing := len(q.fifo), len(q.inflight)
	q.mu.Unlock()

	q.notify()
	q.log.Info("order retired",
		zap.String("order_id", orderID),
		zap.String("outcome", outcome),
		zap.Int("queue_size", queued),
		zap.Int("processing", processing))
}

// Stats returns a snapshot of queue occupancy.
func (q *AdmissionQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		QueueSize:       len(q.fifo),
		ProcessingCount: len(q.inflight),
		ActiveOrders:    len(q.active),
		MaxConcurrent:   q.maxConcurrent,
		MaxQueueSize:    q.maxQueueSize,
	}
}

// Wake signals when queue state changed: a new admission or a freed slot.
// The dispatcher selects on it to cut idle latency between ticks.
func (q *AdmissionQueue) Wake() <-chan struct{} {
	return q.wake
}

func (q *AdmissionQueue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
