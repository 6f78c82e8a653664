package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	defaultAcquireTimeout = 3 * time.Second
	defaultSendTimeout    = 5 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// ErrPoolClosed is returned by Send when the pool is not running.
var ErrPoolClosed = errors.New("producer pool is not running")

// Message represents a message to be sent to Kafka
type Message struct {
	Topic   string
	Key     string
	Payload []byte
	Headers map[string]string
}

// ProducerConfig holds configuration for the producer pool
type ProducerConfig struct {
	BrokerList []string // List of Kafka brokers (i.e. ["localhost:9092"])
	PoolSize   int      // Number of producers in the pool
	ClientID   string
	MaxRetries int
	Recorder   Recorder
}

// producerPool hands out a fixed set of producers to concurrent senders.
type producerPool struct {
	producers   chan KafkaProducer
	config      ProducerConfig
	newProducer func(ProducerConfig) (KafkaProducer, error)
	recorder    Recorder
	logger      *logrus.Entry
	wg          sync.WaitGroup // in-flight sends
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.RWMutex // protects started
}

// NewProducerPool creates a new pool of Kafka producers. Producers are
// connected by Start.
func NewProducerPool(config ProducerConfig) (*producerPool, error) {
	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be greater than 0")
	}
	if len(config.BrokerList) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	recorder := config.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &producerPool{
		producers:   make(chan KafkaProducer, config.PoolSize),
		config:      config,
		newProducer: newSaramaProducer,
		recorder:    recorder,
		logger:      logger.WithField("component", "kafka_producer_pool"),
	}, nil
}

// Start initializes the producer pool and creates all producers
func (p *producerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("producer pool already started")
	}

	created := make([]KafkaProducer, 0, p.config.PoolSize)
	for i := 0; i < p.config.PoolSize; i++ {
		producer, err := p.newProducer(p.config)
		if err != nil {
			for _, pr := range created {
				pr.Close()
			}
			return fmt.Errorf("failed to create producer %d: %w", i, err)
		}
		created = append(created, producer)
	}
	for _, pr := range created {
		p.producers <- pr
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.started = true
	p.recorder.UpdateKafkaPoolAvailable(len(p.producers))
	p.logger.WithField("producers", p.config.PoolSize).Info("Producer pool started successfully")
	return nil
}

// Stop waits for in-flight sends and closes every producer.
func (p *producerPool) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return fmt.Errorf("producer pool not started")
	}
	p.started = false
	p.cancel()
	p.mu.Unlock()

	p.logger.Info("Stopping producer pool...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("timeout while stopping producer pool")
	}

	var closeErr error
	for i := 0; i < p.config.PoolSize; i++ {
		producer := <-p.producers
		if err := producer.Close(); err != nil {
			p.logger.WithError(err).Error("Failed to close producer")
			closeErr = err
		}
	}
	p.recorder.UpdateKafkaPoolAvailable(0)

	if closeErr != nil {
		return fmt.Errorf("failed to close producers: %w", closeErr)
	}
	p.logger.Info("Producer pool stopped successfully")
	return nil
}

// Send sends a message to Kafka using an available producer from the pool.
//
// The method:
//  1. Acquires a producer from the pool channel
//  2. Ensures the producer is returned to the pool using defer
//  3. Sends the message under a send timeout
//
// Returns an error if ctx is cancelled, no producer is available in time,
// the pool is stopping, or the send fails.
func (p *producerPool) Send(ctx context.Context, msg Message) error {
	p.mu.RLock()
	if !p.started {
		p.mu.RUnlock()
		p.recorder.RecordKafkaError("pool_closed")
		return ErrPoolClosed
	}
	poolCtx := p.ctx
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	start := time.Now()

	select {
	case producer := <-p.producers:
		p.recorder.UpdateKafkaPoolAvailable(len(p.producers))
		defer func() {
			p.producers <- producer
		}()

		sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()

		if err := producer.Send(sendCtx, msg); err != nil {
			p.recorder.RecordKafkaError("send_failed")
			return fmt.Errorf("failed to send message to %s: %w", msg.Topic, err)
		}

		p.recorder.RecordKafkaMessageSent(msg.Topic, time.Since(start))
		return nil

	case <-time.After(defaultAcquireTimeout):
		p.recorder.RecordKafkaError("pool_exhausted")
		return fmt.Errorf("no producer available after %s", defaultAcquireTimeout)

	case <-ctx.Done():
		p.recorder.RecordKafkaError("context_cancelled")
		return fmt.Errorf("operation cancelled by caller: %w", ctx.Err())

	case <-poolCtx.Done():
		p.recorder.RecordKafkaError("producer_pool_shutdown")
		return ErrPoolClosed
	}
}
