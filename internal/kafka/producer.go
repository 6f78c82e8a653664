package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

// saramaProducer implements KafkaProducer on top of a sarama.SyncProducer:
// every send waits for the acknowledgment of all in-sync replicas.
type saramaProducer struct {
	producer sarama.SyncProducer
}

// newSaramaConfig returns the producer configuration shared by the pool:
//   - RequiredAcks=WaitForAll ensures message is written to all replicas
//   - Automatic retries for transient failures
//   - Hash partitioner so that messages with the same key keep their order
func newSaramaConfig(config ProducerConfig) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = config.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = config.MaxRetries
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

// newSaramaProducer connects a synchronous producer to the brokers.
func newSaramaProducer(config ProducerConfig) (KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(config.BrokerList, newSaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	return &saramaProducer{producer: producer}, nil
}

// Send sends a message to the Kafka topic using the Sarama producer.
// It handles message serialization, headers, and context-based operations.
func (p *saramaProducer) Send(ctx context.Context, msg Message) error {
	saramaMsg := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Payload),
	}
	if msg.Key != "" {
		saramaMsg.Key = sarama.StringEncoder(msg.Key)
	}

	for k, v := range msg.Headers {
		saramaMsg.Headers = append(saramaMsg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	// SendMessage is not cancellable, run it aside and honour ctx
	done := make(chan error, 1)
	go func() {
		_, _, err := p.producer.SendMessage(saramaMsg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the Sarama producer, releasing all associated resources.
func (p *saramaProducer) Close() error {
	return p.producer.Close()
}
