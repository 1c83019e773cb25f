package events

import (
	"sync"
)

// Topic addresses a stream of messages on the bus.
type Topic string

// TopicOrders is the global stream carrying every order update.
const TopicOrders Topic = "orders"

// OrderTopic returns the per-order stream for one order id.
func OrderTopic(orderID string) Topic {
	return Topic("orders." + orderID)
}

// Bus is a lightweight pub/sub broker using channels.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]chan Message
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]chan Message)}
}

// Subscribe registers a listener for a topic and returns the channel and an
// unsubscribe function.
func (b *Bus) Subscribe(t Topic, buffer int) (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, buffer)
	b.subs[t] = append(b.subs[t], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[t]
		for i, c := range subs {
			if c == ch {
				close(c)
				b.subs[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}

	return ch, unsub
}

// Publish fans the message out to subscribers without blocking.
func (b *Bus) Publish(t Topic, msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[t] {
		select {
		case ch <- msg:
		default:
			// drop if subscriber is slow; keep broker non-blocking
		}
	}
}
