package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/circuitbreaker"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/sirupsen/logrus"
)

const defaultWorkerSendTimeout = 2 * time.Second

// Worker drains a message channel into a MessageSender. Sends go through a
// circuit breaker shared by all the workers of a handler so that a dead
// cluster does not stall the channel.
type Worker struct {
	// id is the worker's unique identifier
	id     int
	sender MessageSender
	// msgChan receives messages to be sent to Kafka
	msgChan <-chan Message
	// errChan receives send failures. It may be nil, otherwise it must be drained.
	errChan     chan<- error
	breaker     *circuitbreaker.CircuitBreaker
	sendTimeout time.Duration
	logger      *logrus.Entry
	// done is closed once the worker returned
	done chan struct{}
}

// NewWorker creates a worker. breaker may be shared between workers.
func NewWorker(id int, sender MessageSender, msgChan <-chan Message, breaker *circuitbreaker.CircuitBreaker, errChan chan<- error) *Worker {
	return &Worker{
		id:          id,
		sender:      sender,
		msgChan:     msgChan,
		errChan:     errChan,
		breaker:     breaker,
		sendTimeout: defaultWorkerSendTimeout,
		logger:      logger.WithField("component", "kafka_worker").WithField("worker_id", id),
		done:        make(chan struct{}),
	}
}

// Start runs the worker loop until the message channel is closed or ctx is
// cancelled. Messages still queued when ctx is cancelled are dropped.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer func() {
		close(w.done)
		if wg != nil {
			wg.Done()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Context cancelled, stopping worker")
			return
		case msg, ok := <-w.msgChan:
			if !ok {
				w.logger.Debug("Message channel closed, stopping worker")
				return
			}
			w.logger.WithField("topic", msg.Topic).Trace("Sending message to Kafka")
			if err := w.send(ctx, msg); err != nil {
				w.report(ctx, err)
			}
		}
	}
}

func (w *Worker) send(ctx context.Context, msg Message) error {
	return w.breaker.Execute(func() error {
		sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
		defer cancel()

		if err := w.sender.Send(sendCtx, msg); err != nil {
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
		return nil
	})
}

func (w *Worker) report(ctx context.Context, err error) {
	w.logger.WithError(err).Warn("Failed to send message")
	if w.errChan == nil {
		return
	}
	select {
	case w.errChan <- err:
	case <-ctx.Done():
	}
}

// Done is closed when the worker loop has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}
