package notify

import (
	"testing"
	"time"
)

func collect(ch <-chan Event, n int, timeout time.Duration) []Event {
	events := make([]Event, 0, n)
	deadline := time.After(timeout)
	for len(events) < n {
		select {
		case evt, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, evt)
		case <-deadline:
			return events
		}
	}
	return events
}

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()

	a, cancelA := bus.Subscribe(TopicCacheWarmed)
	defer cancelA()
	b, cancelB := bus.Subscribe(TopicCacheWarmed)
	defer cancelB()

	bus.Publish(TopicCacheWarmed, "hash1")
	bus.Publish(TopicCacheWarmed, "hash2")

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		events := collect(ch, 2, time.Second)
		if len(events) != 2 {
			t.Fatalf("subscriber %s: got %d events, want 2", name, len(events))
		}
		if events[0].Payload != "hash1" || events[1].Payload != "hash2" {
			t.Errorf("subscriber %s: events out of order: %v, %v", name, events[0].Payload, events[1].Payload)
		}
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := NewBus()

	warmed, cancel := bus.Subscribe(TopicCacheWarmed)
	defer cancel()

	bus.Publish(TopicLibrarySynced, nil)
	bus.Publish(TopicCacheWarmed, "hash1")

	events := collect(warmed, 1, time.Second)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Topic != TopicCacheWarmed {
		t.Errorf("got topic %q, want %q", events[0].Topic, TopicCacheWarmed)
	}
}

func TestBus_SlowConsumerDoesNotBlockPublisher(t *testing.T) {
	bus := NewBus()

	// Never read from this subscriber
	_, cancel := bus.Subscribe(TopicDownloadProgress)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(TopicDownloadProgress, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(TopicCacheWarmed)
	cancel()

	bus.Publish(TopicCacheWarmed, "hash1")

	select {
	case evt, ok := <-ch:
		if ok {
			t.Errorf("received event %v after cancel", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("channel not closed after cancel")
	}
}
