// package notify implements the in-process notification channel used for
// invalidation and readiness signals.
//
// The bus is a multi-consumer fan-out, not a work queue: every subscriber
// on a topic sees every event, publishers never block, and a slow consumer
// only lags itself. Well-known topics live in topics.go.
package notify

import (
	"sync"
	"time"
)

// Event is a single published payload on a topic.
type Event struct {
	Topic     string
	Payload   any
	Published time.Time
}

// Bus fans events out to per-topic subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
	next int
}

type subscriber struct {
	id  int
	out chan Event

	mu      sync.Mutex
	backlog []Event
	wake    chan struct{}
	done    chan struct{}
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]*subscriber)}
}

// Publish delivers the payload to every subscriber of topic.
//
// Never blocks: events queue in each subscriber's backlog until drained.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload, Published: time.Now()}

	b.mu.Lock()
	subs := make([]*subscriber, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.Unlock()

	for _, s := range subs {
		s.enqueue(evt)
	}
}

// Subscribe registers a consumer for topic.
//
// The returned channel receives every event published after this call.
// The cancel function unsubscribes and closes the channel; pending events
// are dropped.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	b.next++
	s := &subscriber{
		id:   b.next,
		out:  make(chan Event),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	go s.pump()

	cancel := func() {
		b.mu.Lock()
		list := b.subs[topic]
		for i, cur := range list {
			if cur.id == s.id {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		s.close()
	}

	return s.out, cancel
}

func (s *subscriber) enqueue(evt Event) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	s.backlog = append(s.backlog, evt)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump drains the backlog into the out channel so publishers never wait on
// the consumer.
func (s *subscriber) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.backlog) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		evt := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()

		select {
		case s.out <- evt:
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
