// Package bitfinex holds the Bitfinex v2 websocket wire types: outbound commands,
// inbound notifications and the positional data events.
package bitfinex

import "fmt"

// WebsocketURL is the public streaming gateway.
const WebsocketURL = "wss://api.bitfinex.com/ws/2"

// DeadManSwitchFlag is the "dms" value that asks the venue to cancel all
// account orders when the authenticated socket closes.
const DeadManSwitchFlag = 4

// Event names used in the "event" field of object frames.
const (
	EventInfo       = "info"
	EventSubscribed = "subscribed"
	EventAuth       = "auth"
	EventSubscribe  = "subscribe"
)

// HeartbeatLabel is the bare second element of a heartbeat data frame.
const HeartbeatLabel = "hb"

// RawBookPrecision is the book precision that selects the raw (per order) book.
const RawBookPrecision = "R0"

// ChannelKind names a subscription channel.
type ChannelKind string

const (
	ChannelTicker  ChannelKind = "ticker"
	ChannelTrades  ChannelKind = "trades"
	ChannelCandles ChannelKind = "candles"
	ChannelBook    ChannelKind = "book"
	// ChannelRawBook is not a wire value: raw book subscriptions are acknowledged
	// as "book" with precision R0.
	ChannelRawBook ChannelKind = "rawbook"
	// ChannelAccount is the authenticated account channel, always chan_id 0.
	ChannelAccount ChannelKind = "account"
)

// EventType selects between trading pairs and funding currencies.
type EventType int

const (
	Trading EventType = iota
	Funding
)

func (e EventType) String() string {
	switch e {
	case Trading:
		return "trading"
	case Funding:
		return "funding"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// ParseEventType maps "trading"/"funding" (or "t"/"f") to an EventType.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "", "trading", "t":
		return Trading, nil
	case "funding", "f":
		return Funding, nil
	default:
		return Trading, fmt.Errorf("invalid event type: %s", s)
	}
}

// FormatSymbol prefixes symbol with "t" for trading pairs or "f" for funding currencies.
func FormatSymbol(symbol string, et EventType) string {
	if et == Funding {
		return "f" + symbol
	}
	return "t" + symbol
}
