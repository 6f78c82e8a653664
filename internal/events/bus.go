package events

import (
	"sync"
	"sync/atomic"

	"github.com/alejoacosta74/bitfinex-ws/internal/common"
)

const defaultBufferSize = 100

// EventBus implements Bus with buffered subscriber channels. Publishing never
// blocks: an event is dropped for a subscriber whose channel is full.
type EventBus struct {
	// subscribers maps topics to a set of subscriber channels
	subscribers   map[common.Topic]map[chan interface{}]struct{}
	subscribersMu sync.RWMutex

	channelBufferSize int
	dropped           atomic.Uint64
	closed            bool
}

type Option func(*EventBus)

// WithBufferSize sets the buffer of subscriber channels created afterwards.
func WithBufferSize(n int) Option {
	return func(b *EventBus) {
		if n > 0 {
			b.channelBufferSize = n
		}
	}
}

// NewEventBus creates a new EventBus instance.
func NewEventBus(opts ...Option) *EventBus {
	b := &EventBus{
		subscribers:       make(map[common.Topic]map[chan interface{}]struct{}),
		channelBufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends an event to all subscribers of the specified topic.
// This method is concurrent-safe and non-blocking.
func (b *EventBus) Publish(topic common.Topic, event interface{}) {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	for subscriberCh := range b.subscribers[topic] {
		select {
		case subscriberCh <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe creates a new subscription to the specified topic.
//
// The subscriber should always call Unsubscribe when done. After Shutdown the
// returned channel is already closed.
func (b *EventBus) Subscribe(topic common.Topic) <-chan interface{} {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	ch := make(chan interface{}, b.channelBufferSize)
	if b.closed {
		close(ch)
		return ch
	}

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[chan interface{}]struct{})
	}
	b.subscribers[topic][ch] = struct{}{}

	return ch
}

// Unsubscribe removes a subscriber from the specified topic and closes its
// channel. It is idempotent.
//
// Usage example:
//
//	ch := eventBus.Subscribe(common.TopicSubscribed)
//	defer eventBus.Unsubscribe(common.TopicSubscribed, ch)
func (b *EventBus) Unsubscribe(topic common.Topic, ch <-chan interface{}) {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	subscribers, exists := b.subscribers[topic]
	if !exists {
		return
	}

	for subCh := range subscribers {
		if ch == subCh {
			delete(subscribers, subCh)
			close(subCh)
			break
		}
	}

	if len(subscribers) == 0 {
		delete(b.subscribers, topic)
	}
}

// Shutdown closes all subscriber channels. Later publishes are no-ops.
func (b *EventBus) Shutdown() {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	b.closed = true
	for topic, subscribers := range b.subscribers {
		for ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
}

// TopicSubscriberCount returns the number of subscribers for a topic.
func (b *EventBus) TopicSubscriberCount(topic common.Topic) int {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	return len(b.subscribers[topic])
}

// Dropped returns how many deliveries were skipped because a subscriber
// channel was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}
