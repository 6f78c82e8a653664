package dispatcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
)

// Row widths used to infer the channel of a data frame whose chan_id is not
// known to the resolver.
const (
	bookLevelWidth     = 3
	tradeWidth         = 4
	fundingTradeWidth  = 5
	candleWidth        = 6
	tickerWidth        = 10
	fundingTickerMin   = 13
	fundingTickerWidth = 16
)

// accountChanID is the chan_id of the authenticated account channel.
const accountChanID = 0

// ChannelResolver maps a chan_id to the subscription it was acknowledged for.
type ChannelResolver interface {
	Lookup(chanID int64) (bitfinex.Subscription, bool)
}

// DecodeNotification decodes a frame already classified as kind into its
// notification event.
func DecodeNotification(kind MessageKind, frame []byte) (bitfinex.NotificationEvent, error) {
	var ev bitfinex.NotificationEvent
	switch kind {
	case KindInfo:
		ev = &bitfinex.InfoEvent{}
	case KindSubscribed:
		ev = &bitfinex.SubscribedEvent{}
	case KindAuth:
		ev = &bitfinex.AuthEvent{}
	default:
		return nil, newDecodeError(frame, fmt.Errorf("%s is not a notification", kind))
	}
	if err := json.Unmarshal(frame, ev); err != nil {
		return nil, newDecodeError(frame, err)
	}
	return ev, nil
}

// DecodeData decodes a positional data frame [chanId, ...].
//
// Frames carrying a string label are heartbeats, trade updates or account
// events. Otherwise the second element is the payload: an array of arrays is a
// snapshot, a flat array an update. When the resolver knows the chan_id its
// subscription decides the schema, else the payload width does.
func DecodeData(frame []byte, resolver ChannelResolver) (bitfinex.DataEvent, error) {
	ev, err := decodeData(frame, resolver)
	if err != nil {
		return nil, newDecodeError(frame, err)
	}
	return ev, nil
}

func decodeData(frame []byte, resolver ChannelResolver) (bitfinex.DataEvent, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(frame, &elems); err != nil {
		return nil, err
	}
	if len(elems) < 2 {
		return nil, fmt.Errorf("data frame has %d elements, want at least 2", len(elems))
	}

	var chanID int64
	if err := json.Unmarshal(elems[0], &chanID); err != nil {
		return nil, fmt.Errorf("chan_id: %w", err)
	}
	header := bitfinex.DataHeader{ChanID: chanID}

	var sub *bitfinex.Subscription
	if resolver != nil {
		if s, ok := resolver.Lookup(chanID); ok {
			sub = &s
		}
	}

	second := bytes.TrimSpace(elems[1])
	if len(second) == 0 {
		return nil, errors.New("empty payload")
	}

	switch second[0] {
	case '"':
		var label string
		if err := json.Unmarshal(second, &label); err != nil {
			return nil, err
		}
		if label == bitfinex.HeartbeatLabel {
			return bitfinex.HeartbeatEvent{DataHeader: header}, nil
		}
		if len(elems) < 3 {
			return nil, fmt.Errorf("label %q without payload", label)
		}
		return decodeLabelled(header, label, elems[2])
	case '[':
		return decodePayload(header, second, sub)
	default:
		return nil, fmt.Errorf("unexpected payload %s", second)
	}
}

func decodeLabelled(h bitfinex.DataHeader, label string, payload json.RawMessage) (bitfinex.DataEvent, error) {
	switch label {
	case bitfinex.LabelTradeExecuted, bitfinex.LabelTradeUpdate:
		if h.ChanID == accountChanID {
			// own trades on the account channel have their own schema
			return bitfinex.AccountEvent{DataHeader: h, Label: label, Payload: payload}, nil
		}
		return update(payload, func(t bitfinex.Trade) bitfinex.DataEvent {
			return bitfinex.TradeUpdateEvent{DataHeader: h, Label: label, Trade: t}
		})
	case bitfinex.LabelFundingTradeExecuted, bitfinex.LabelFundingTradeUpdate:
		if h.ChanID == accountChanID {
			return bitfinex.AccountEvent{DataHeader: h, Label: label, Payload: payload}, nil
		}
		return update(payload, func(t bitfinex.FundingTrade) bitfinex.DataEvent {
			return bitfinex.FundingTradeUpdateEvent{DataHeader: h, Label: label, Trade: t}
		})
	case bitfinex.LabelPositionSnapshot:
		return snapshot(payload, func(p []bitfinex.Position) bitfinex.DataEvent {
			return bitfinex.PositionsSnapshotEvent{DataHeader: h, Label: label, Positions: p}
		})
	case bitfinex.LabelWalletSnapshot:
		return snapshot(payload, func(w []bitfinex.Wallet) bitfinex.DataEvent {
			return bitfinex.WalletsSnapshotEvent{DataHeader: h, Label: label, Wallets: w}
		})
	case bitfinex.LabelWalletUpdate:
		return update(payload, func(w bitfinex.Wallet) bitfinex.DataEvent {
			return bitfinex.WalletUpdateEvent{DataHeader: h, Label: label, Wallet: w}
		})
	case bitfinex.LabelBalanceUpdate:
		return update(payload, func(b bitfinex.Balance) bitfinex.DataEvent {
			return bitfinex.BalanceUpdateEvent{DataHeader: h, Label: label, Balance: b}
		})
	}

	if h.ChanID == accountChanID {
		return bitfinex.AccountEvent{DataHeader: h, Label: label, Payload: payload}, nil
	}
	return nil, fmt.Errorf("unsupported label %q on channel %d", label, h.ChanID)
}

func decodePayload(h bitfinex.DataHeader, payload json.RawMessage, sub *bitfinex.Subscription) (bitfinex.DataEvent, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}

	isSnapshot := len(rows) == 0
	width := len(rows)
	if len(rows) > 0 {
		first := bytes.TrimSpace(rows[0])
		if len(first) > 0 && first[0] == '[' {
			isSnapshot = true
			var fields []json.RawMessage
			if err := json.Unmarshal(first, &fields); err != nil {
				return nil, err
			}
			width = len(fields)
		}
	}

	var (
		kind bitfinex.ChannelKind
		et   bitfinex.EventType
		ok   bool
	)
	if sub != nil {
		kind, et, ok = sub.Kind, sub.EventType, true
	} else if isSnapshot {
		kind, et, ok = inferSnapshot(width)
	} else {
		kind, et, ok = inferUpdate(width)
	}
	if !ok {
		return nil, fmt.Errorf("cannot infer channel of chan_id %d from width %d", h.ChanID, width)
	}

	if isSnapshot {
		return decodeSnapshot(h, kind, et, payload)
	}
	return decodeUpdate(h, kind, et, payload)
}

func inferSnapshot(width int) (bitfinex.ChannelKind, bitfinex.EventType, bool) {
	switch width {
	case bookLevelWidth:
		return bitfinex.ChannelBook, bitfinex.Trading, true
	case tradeWidth:
		return bitfinex.ChannelTrades, bitfinex.Trading, true
	case fundingTradeWidth:
		return bitfinex.ChannelTrades, bitfinex.Funding, true
	case candleWidth:
		return bitfinex.ChannelCandles, bitfinex.Trading, true
	}
	return "", bitfinex.Trading, false
}

func inferUpdate(width int) (bitfinex.ChannelKind, bitfinex.EventType, bool) {
	switch {
	case width == bookLevelWidth:
		return bitfinex.ChannelBook, bitfinex.Trading, true
	case width == tradeWidth:
		return bitfinex.ChannelBook, bitfinex.Funding, true
	case width == candleWidth:
		return bitfinex.ChannelCandles, bitfinex.Trading, true
	case width == tickerWidth:
		return bitfinex.ChannelTicker, bitfinex.Trading, true
	case width >= fundingTickerMin && width <= fundingTickerWidth:
		return bitfinex.ChannelTicker, bitfinex.Funding, true
	}
	return "", bitfinex.Trading, false
}

func decodeSnapshot(h bitfinex.DataHeader, kind bitfinex.ChannelKind, et bitfinex.EventType, payload json.RawMessage) (bitfinex.DataEvent, error) {
	funding := et == bitfinex.Funding
	switch {
	case kind == bitfinex.ChannelTrades && funding:
		return snapshot(payload, func(t []bitfinex.FundingTrade) bitfinex.DataEvent {
			return bitfinex.FundingTradesSnapshotEvent{DataHeader: h, Trades: t}
		})
	case kind == bitfinex.ChannelTrades:
		return snapshot(payload, func(t []bitfinex.Trade) bitfinex.DataEvent {
			return bitfinex.TradesSnapshotEvent{DataHeader: h, Trades: t}
		})
	case kind == bitfinex.ChannelBook && funding:
		return snapshot(payload, func(l []bitfinex.FundingBookLevel) bitfinex.DataEvent {
			return bitfinex.FundingBookSnapshotEvent{DataHeader: h, Levels: l}
		})
	case kind == bitfinex.ChannelBook:
		return snapshot(payload, func(l []bitfinex.BookLevel) bitfinex.DataEvent {
			return bitfinex.BookSnapshotEvent{DataHeader: h, Levels: l}
		})
	case kind == bitfinex.ChannelRawBook && funding:
		return snapshot(payload, func(o []bitfinex.FundingRawBookEntry) bitfinex.DataEvent {
			return bitfinex.FundingRawBookSnapshotEvent{DataHeader: h, Offers: o}
		})
	case kind == bitfinex.ChannelRawBook:
		return snapshot(payload, func(o []bitfinex.RawBookEntry) bitfinex.DataEvent {
			return bitfinex.RawBookSnapshotEvent{DataHeader: h, Orders: o}
		})
	case kind == bitfinex.ChannelCandles:
		return snapshot(payload, func(c []bitfinex.Candle) bitfinex.DataEvent {
			return bitfinex.CandlesSnapshotEvent{DataHeader: h, Candles: c}
		})
	}
	return nil, fmt.Errorf("%s channel %d does not send snapshots", kind, h.ChanID)
}

func decodeUpdate(h bitfinex.DataHeader, kind bitfinex.ChannelKind, et bitfinex.EventType, payload json.RawMessage) (bitfinex.DataEvent, error) {
	funding := et == bitfinex.Funding
	switch {
	case kind == bitfinex.ChannelTicker && funding:
		return update(payload, func(t bitfinex.FundingTicker) bitfinex.DataEvent {
			return bitfinex.FundingTickerEvent{DataHeader: h, Ticker: t}
		})
	case kind == bitfinex.ChannelTicker:
		return update(payload, func(t bitfinex.Ticker) bitfinex.DataEvent {
			return bitfinex.TickerEvent{DataHeader: h, Ticker: t}
		})
	case kind == bitfinex.ChannelBook && funding:
		return update(payload, func(l bitfinex.FundingBookLevel) bitfinex.DataEvent {
			return bitfinex.FundingBookUpdateEvent{DataHeader: h, Level: l}
		})
	case kind == bitfinex.ChannelBook:
		return update(payload, func(l bitfinex.BookLevel) bitfinex.DataEvent {
			return bitfinex.BookUpdateEvent{DataHeader: h, Level: l}
		})
	case kind == bitfinex.ChannelRawBook && funding:
		return update(payload, func(o bitfinex.FundingRawBookEntry) bitfinex.DataEvent {
			return bitfinex.FundingRawBookUpdateEvent{DataHeader: h, Offer: o}
		})
	case kind == bitfinex.ChannelRawBook:
		return update(payload, func(o bitfinex.RawBookEntry) bitfinex.DataEvent {
			return bitfinex.RawBookUpdateEvent{DataHeader: h, Order: o}
		})
	case kind == bitfinex.ChannelCandles:
		return update(payload, func(c bitfinex.Candle) bitfinex.DataEvent {
			return bitfinex.CandleUpdateEvent{DataHeader: h, Candle: c}
		})
	}
	return nil, fmt.Errorf("unlabelled %s update on channel %d", kind, h.ChanID)
}

func snapshot[T any](payload json.RawMessage, build func([]T) bitfinex.DataEvent) (bitfinex.DataEvent, error) {
	rows := []T{}
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}
	return build(rows), nil
}

func update[T any](payload json.RawMessage, build func(T) bitfinex.DataEvent) (bitfinex.DataEvent, error) {
	var row T
	if err := json.Unmarshal(payload, &row); err != nil {
		return nil, err
	}
	return build(row), nil
}
