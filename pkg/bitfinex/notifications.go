package bitfinex

import "strings"

// NotificationEvent is a control message carrying no channel data. It is one of
// *InfoEvent, *SubscribedEvent or *AuthEvent.
type NotificationEvent interface {
	notification()
}

// InfoEvent is sent by the gateway right after the connection is established.
type InfoEvent struct {
	Event    string   `json:"event"`
	Version  int      `json:"version"`
	ServerID string   `json:"serverId"`
	Platform Platform `json:"platform"`
}

// Platform status: 1 operative, 0 maintenance.
type Platform struct {
	Status int `json:"status"`
}

func (*InfoEvent) notification() {}

// SubscribedEvent acknowledges a subscription and carries the server assigned chan_id.
type SubscribedEvent struct {
	Event    string `json:"event"`
	Channel  string `json:"channel"`
	ChanID   int64  `json:"chanId"`
	Symbol   string `json:"symbol,omitempty"`
	Pair     string `json:"pair,omitempty"`
	Currency string `json:"currency,omitempty"`
	Key      string `json:"key,omitempty"`
	Prec     string `json:"prec,omitempty"`
	Freq     string `json:"freq,omitempty"`
	Len      string `json:"len,omitempty"`
}

func (*SubscribedEvent) notification() {}

// ChannelKind returns the kind of the acknowledged subscription. Book
// subscriptions with precision R0 are reported as ChannelRawBook.
func (e *SubscribedEvent) ChannelKind() ChannelKind {
	kind := ChannelKind(e.Channel)
	if kind == ChannelBook && e.Prec == RawBookPrecision {
		return ChannelRawBook
	}
	return kind
}

// EventType reports whether the subscription is for a funding currency.
// Candle keys always refer to trading pairs.
func (e *SubscribedEvent) EventType() EventType {
	symbol := e.Symbol
	if symbol == "" {
		symbol = e.Pair
	}
	if strings.HasPrefix(symbol, "f") {
		return Funding
	}
	return Trading
}

// AuthEvent is the reply to an auth command.
type AuthEvent struct {
	Event  string  `json:"event"`
	Status string  `json:"status"`
	ChanID int64   `json:"chanId"`
	Code   *int    `json:"code,omitempty"`
	Msg    *string `json:"msg,omitempty"`
	UserID *int64  `json:"userId,omitempty"`
	AuthID *string `json:"authId,omitempty"`
}

func (*AuthEvent) notification() {}

// IsOK reports whether the venue accepted the credentials.
func (e *AuthEvent) IsOK() bool {
	return e.Status == "OK"
}

// Subscription is what a consumer needs to remember about an acknowledged
// channel in order to interpret its data frames.
type Subscription struct {
	ChanID    int64       `json:"chan_id"`
	Kind      ChannelKind `json:"kind"`
	EventType EventType   `json:"event_type"`
	Symbol    string      `json:"symbol,omitempty"`
	Key       string      `json:"key,omitempty"`
}

// Subscription extracts the chan_id mapping from the acknowledgment.
func (e *SubscribedEvent) Subscription() Subscription {
	symbol := e.Symbol
	if symbol == "" {
		symbol = e.Pair
	}
	return Subscription{
		ChanID:    e.ChanID,
		Kind:      e.ChannelKind(),
		EventType: e.EventType(),
		Symbol:    symbol,
		Key:       e.Key,
	}
}
