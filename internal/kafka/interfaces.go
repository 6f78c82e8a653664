package kafka

import (
	"context"
	"time"
)

type MessageSender interface {
	Send(ctx context.Context, msg Message) error
}

type PoolController interface {
	Start() error
	Stop() error
}

// ProducerPool defines the interface for a pool of Kafka producers.
// It provides methods to start the pool, send messages, and gracefully stop.
type ProducerPool interface {
	MessageSender
	PoolController
}

// KafkaProducer defines the interface for a single producer
type KafkaProducer interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Recorder receives producer metrics. The metrics recorder implements it.
type Recorder interface {
	RecordKafkaMessageSent(topic string, latency time.Duration)
	RecordKafkaError(reason string)
	UpdateKafkaPoolAvailable(n int)
}

type noopRecorder struct{}

func (noopRecorder) RecordKafkaMessageSent(string, time.Duration) {}
func (noopRecorder) RecordKafkaError(string)                      {}
func (noopRecorder) UpdateKafkaPoolAvailable(int)                 {}
