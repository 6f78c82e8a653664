package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
)

// CheckClusterAvailability verifies if the Kafka cluster is available and responsive
func CheckClusterAvailability(brokers []string, timeout time.Duration) error {
	log := logger.WithField("component", "kafka_tools")

	config := sarama.NewConfig()
	config.Net.DialTimeout = timeout
	config.Net.ReadTimeout = timeout
	config.Net.WriteTimeout = timeout

	log.Tracef("Checking Kafka cluster availability with brokers: %v", brokers)
	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return fmt.Errorf("failed to create kafka client: %w", err)
	}
	defer client.Close()

	availableBrokers := client.Brokers()
	if len(availableBrokers) == 0 {
		return fmt.Errorf("no brokers available in the cluster")
	}
	log.Tracef("Kafka brokers available: %v", len(availableBrokers))

	for _, broker := range availableBrokers {
		if err := broker.Open(config); err != nil {
			return fmt.Errorf("failed to connect to broker %s: %w", broker.Addr(), err)
		}
		connected, err := broker.Connected()
		if err != nil {
			broker.Close()
			return fmt.Errorf("failed to check connection to broker %s: %w", broker.Addr(), err)
		}
		broker.Close()
		if !connected {
			return fmt.Errorf("broker %s is not connected", broker.Addr())
		}
		log.Tracef("Broker %s is connected", broker.Addr())
	}

	return nil
}
