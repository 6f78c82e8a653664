package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestWorkerDrainsChannel(t *testing.T) {
	var mu sync.Mutex
	var got []string
	sender := senderFunc(func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg.Topic)
		return nil
	})

	msgs := make(chan Message, 3)
	w := NewWorker(1, sender, msgs, circuitbreaker.NewCircuitBreaker(3, time.Second), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go w.Start(context.Background(), &wg)

	msgs <- Message{Topic: "a"}
	msgs <- Message{Topic: "b"}
	msgs <- Message{Topic: "c"}
	close(msgs)

	wg.Wait()
	<-w.Done()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestWorkerReportsErrorsAndOpensBreaker(t *testing.T) {
	boom := errors.New("broker down")
	calls := 0
	sender := senderFunc(func(context.Context, Message) error {
		calls++
		return boom
	})

	msgs := make(chan Message, 4)
	errs := make(chan error, 4)
	w := NewWorker(2, sender, msgs, circuitbreaker.NewCircuitBreaker(2, time.Hour), errs)

	for i := 0; i < 4; i++ {
		msgs <- Message{Topic: "t"}
	}
	close(msgs)
	w.Start(context.Background(), nil)

	// two real failures, then the open breaker rejects the rest
	assert.Equal(t, 2, calls)
	require.Len(t, errs, 4)
	assert.ErrorIs(t, <-errs, boom)
	assert.ErrorIs(t, <-errs, boom)
	assert.ErrorIs(t, <-errs, circuitbreaker.ErrOpen)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	msgs := make(chan Message)
	w := NewWorker(3, senderFunc(func(context.Context, Message) error { return nil }), msgs,
		circuitbreaker.NewCircuitBreaker(1, time.Second), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx, nil)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
