package events

import "github.com/alejoacosta74/bitfinex-ws/internal/common"

// Bus defines the interface for event bus operations
type Bus interface {
	// Publish sends an event to all subscribers of the specified topic
	Publish(topic common.Topic, event interface{})
	// Subscribe returns a channel that receives events for the specified topic
	Subscribe(topic common.Topic) <-chan interface{}
	// Unsubscribe removes a subscriber channel from the specified topic
	Unsubscribe(topic common.Topic, ch <-chan interface{})
}
