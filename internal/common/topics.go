package common

import "github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"

// Topic is an event bus topic.
type Topic string

// Topics published by the bus handler
const (
	TopicInfo       Topic = "info"       // *bitfinex.InfoEvent
	TopicAuth       Topic = "auth"       // *bitfinex.AuthEvent
	TopicSubscribed Topic = "subscribed" // *bitfinex.SubscribedEvent
	TopicError      Topic = "error"      // error
)

// DataTopic returns the topic carrying the data events of a channel kind.
func DataTopic(kind bitfinex.ChannelKind) Topic {
	return Topic("data." + string(kind))
}

// DataTopics lists the data topics of every channel kind.
func DataTopics() []Topic {
	return []Topic{
		DataTopic(bitfinex.ChannelTicker),
		DataTopic(bitfinex.ChannelTrades),
		DataTopic(bitfinex.ChannelBook),
		DataTopic(bitfinex.ChannelRawBook),
		DataTopic(bitfinex.ChannelCandles),
		DataTopic(bitfinex.ChannelAccount),
	}
}
