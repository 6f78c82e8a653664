package ws

import (
	"sync"

	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/eapache/queue"
)

// Queue is the outbound command FIFO shared by any number of Senders and
// consumed by exactly one Session.
type Queue struct {
	mu       sync.Mutex
	items    *queue.Queue
	closing  bool // a CloseCommand was accepted
	shutdown bool // the consumer is gone
	ready    chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items: queue.New(),
		ready: make(chan struct{}, 1),
	}
}

// Sender returns a new producer handle.
func (q *Queue) Sender() Sender {
	return Sender{q: q}
}

func (q *Queue) push(cmd bitfinex.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown || q.closing {
		return ErrDisconnected
	}
	if _, ok := cmd.(bitfinex.CloseCommand); ok {
		q.closing = true
	}
	q.items.Add(cmd)

	// wake up the consumer without blocking
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Drain removes and returns every pending command in insertion order. It
// never blocks.
func (q *Queue) Drain() []bitfinex.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Length() == 0 {
		return nil
	}
	cmds := make([]bitfinex.Command, 0, q.items.Length())
	for q.items.Length() > 0 {
		cmds = append(cmds, q.items.Remove().(bitfinex.Command))
	}
	return cmds
}

// Ready is signalled after a push. A single signal may cover several commands.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Shutdown disconnects every Sender and discards pending commands. It
// returns how many were discarded.
func (q *Queue) Shutdown() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.shutdown = true
	dropped := q.items.Length()
	for q.items.Length() > 0 {
		q.items.Remove()
	}
	return dropped
}

// Sender is a producer handle on a Queue. It is safe for concurrent use and
// copying it yields another handle on the same queue.
type Sender struct {
	q *Queue
}

// Send enqueues cmd. It fails with ErrDisconnected once the session stopped
// consuming or a close was already requested.
func (s Sender) Send(cmd bitfinex.Command) error {
	if s.q == nil {
		return ErrDisconnected
	}
	return s.q.push(cmd)
}

// Close asks the session to perform the close handshake and stop.
func (s Sender) Close() error {
	return s.Send(bitfinex.CloseCommand{})
}

func (s Sender) SubscribeTicker(symbol string, et bitfinex.EventType) error {
	return s.Send(bitfinex.TickerSubscription(symbol, et))
}

func (s Sender) SubscribeTrades(symbol string, et bitfinex.EventType) error {
	return s.Send(bitfinex.TradesSubscription(symbol, et))
}

func (s Sender) SubscribeCandles(symbol, timeframe string) error {
	return s.Send(bitfinex.CandlesSubscription(symbol, timeframe))
}

func (s Sender) SubscribeBook(symbol string, et bitfinex.EventType, prec, freq string, length uint32) error {
	return s.Send(bitfinex.BookSubscription(symbol, et, prec, freq, length))
}

func (s Sender) SubscribeRawBook(symbol string, et bitfinex.EventType) error {
	return s.Send(bitfinex.RawBookSubscription(symbol, et))
}
