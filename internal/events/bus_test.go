package events

import (
	"testing"
	"time"
)

func TestNotifierDeliversToOrderAndGlobalTopics(t *testing.T) {
	bus := NewBus()
	n := NewNotifier(bus, nil)

	scoped, unsubScoped := bus.Subscribe(OrderTopic("o-1"), 10)
	defer unsubScoped()
	global, unsubGlobal := bus.Subscribe(TopicOrders, 10)
	defer unsubGlobal()

	n.NotifyStatus("o-1", "PENDING", "queued")

	for name, ch := range map[string]<-chan Message{"scoped": scoped, "global": global} {
		select {
		case msg := <-ch:
			if msg.OrderID != "o-1" || msg.Status != "PENDING" {
				t.Fatalf("%s: unexpected message %+v", name, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no message delivered", name)
		}
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()

	// Unbuffered subscriber that never reads.
	_, unsub := bus.Subscribe(TopicOrders, 0)
	defer unsub()

	done := make(chan struct{})
	go func() {
		bus.Publish(TopicOrders, Message{OrderID: "o-2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(TopicOrders, 1)
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(TopicOrders, Message{OrderID: "o-3"})
}
