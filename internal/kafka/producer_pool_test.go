package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu     sync.Mutex
	sent   []Message
	err    error
	closed bool
}

func (f *fakeProducer) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type countingRecorder struct {
	mu        sync.Mutex
	sent      map[string]int
	errors    map[string]int
	available int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{sent: map[string]int{}, errors: map[string]int{}}
}

func (r *countingRecorder) RecordKafkaMessageSent(topic string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[topic]++
}

func (r *countingRecorder) RecordKafkaError(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[reason]++
}

func (r *countingRecorder) UpdateKafkaPoolAvailable(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available = n
}

func TestNewProducerPoolValidation(t *testing.T) {
	_, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}})
	assert.Error(t, err)

	_, err = NewProducerPool(ProducerConfig{PoolSize: 1})
	assert.Error(t, err)

	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}, PoolSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, pool.config.MaxRetries)
}

func TestProducerPoolLifecycle(t *testing.T) {
	rec := newCountingRecorder()
	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}, PoolSize: 2, Recorder: rec})
	require.NoError(t, err)

	var producers []*fakeProducer
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) {
		p := &fakeProducer{}
		producers = append(producers, p)
		return p, nil
	}

	assert.ErrorIs(t, pool.Send(context.Background(), Message{Topic: "t"}), ErrPoolClosed)

	require.NoError(t, pool.Start())
	assert.Error(t, pool.Start(), "double start")
	assert.Equal(t, 2, rec.available)

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Send(context.Background(), Message{Topic: "bfx.trades", Payload: []byte("x")}))
	}
	assert.Equal(t, 5, rec.sent["bfx.trades"])

	total := 0
	for _, p := range producers {
		total += len(p.sent)
	}
	assert.Equal(t, 5, total)

	require.NoError(t, pool.Stop())
	for _, p := range producers {
		assert.True(t, p.closed)
	}
	assert.ErrorIs(t, pool.Send(context.Background(), Message{Topic: "t"}), ErrPoolClosed)
	assert.Equal(t, 2, rec.errors["pool_closed"])
	assert.Error(t, pool.Stop(), "double stop")
}

func TestProducerPoolSendError(t *testing.T) {
	rec := newCountingRecorder()
	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}, PoolSize: 1, Recorder: rec})
	require.NoError(t, err)

	boom := errors.New("broker down")
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) {
		return &fakeProducer{err: boom}, nil
	}
	require.NoError(t, pool.Start())
	defer pool.Stop()

	err = pool.Send(context.Background(), Message{Topic: "t"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.errors["send_failed"])

	// the producer went back to the pool
	assert.Len(t, pool.producers, 1)
}

func TestProducerPoolStartFailureClosesCreated(t *testing.T) {
	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}, PoolSize: 3})
	require.NoError(t, err)

	var created []*fakeProducer
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) {
		if len(created) == 2 {
			return nil, errors.New("dial")
		}
		p := &fakeProducer{}
		created = append(created, p)
		return p, nil
	}

	assert.Error(t, pool.Start())
	for _, p := range created {
		assert.True(t, p.closed)
	}
}

func TestProducerPoolCallerCancelled(t *testing.T) {
	rec := newCountingRecorder()
	pool, err := NewProducerPool(ProducerConfig{BrokerList: []string{"b"}, PoolSize: 1, Recorder: rec})
	require.NoError(t, err)
	pool.newProducer = func(ProducerConfig) (KafkaProducer, error) { return &fakeProducer{}, nil }
	require.NoError(t, pool.Start())
	defer pool.Stop()

	// hold the only producer
	held := <-pool.producers
	defer func() { pool.producers <- held }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pool.Send(ctx, Message{Topic: "t"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rec.errors["context_cancelled"])
}
