package bitfinex

import "encoding/json"

// Labels carried as second element of labelled data frames.
const (
	LabelTradeExecuted        = "te"
	LabelTradeUpdate          = "tu"
	LabelFundingTradeExecuted = "fte"
	LabelFundingTradeUpdate   = "ftu"
	LabelPositionSnapshot     = "ps"
	LabelWalletSnapshot       = "ws"
	LabelWalletUpdate         = "wu"
	LabelBalanceUpdate        = "bu"
)

// DataEvent is a decoded positional data frame [chanId, ...].
type DataEvent interface {
	ChannelID() int64
	Channel() ChannelKind
}

// DataHeader carries the chan_id common to every data event.
type DataHeader struct {
	ChanID int64 `json:"chan_id"`
}

func (h DataHeader) ChannelID() int64 { return h.ChanID }

type TickerEvent struct {
	DataHeader
	Ticker Ticker `json:"ticker"`
}

func (TickerEvent) Channel() ChannelKind { return ChannelTicker }

type FundingTickerEvent struct {
	DataHeader
	Ticker FundingTicker `json:"ticker"`
}

func (FundingTickerEvent) Channel() ChannelKind { return ChannelTicker }

type TradesSnapshotEvent struct {
	DataHeader
	Trades []Trade `json:"trades"`
}

func (TradesSnapshotEvent) Channel() ChannelKind { return ChannelTrades }

// TradeUpdateEvent is a single trade labelled "te" (executed) or "tu" (updated).
type TradeUpdateEvent struct {
	DataHeader
	Label string `json:"label"`
	Trade Trade  `json:"trade"`
}

func (TradeUpdateEvent) Channel() ChannelKind { return ChannelTrades }

type FundingTradesSnapshotEvent struct {
	DataHeader
	Trades []FundingTrade `json:"trades"`
}

func (FundingTradesSnapshotEvent) Channel() ChannelKind { return ChannelTrades }

type FundingTradeUpdateEvent struct {
	DataHeader
	Label string       `json:"label"`
	Trade FundingTrade `json:"trade"`
}

func (FundingTradeUpdateEvent) Channel() ChannelKind { return ChannelTrades }

type BookSnapshotEvent struct {
	DataHeader
	Levels []BookLevel `json:"levels"`
}

func (BookSnapshotEvent) Channel() ChannelKind { return ChannelBook }

type BookUpdateEvent struct {
	DataHeader
	Level BookLevel `json:"level"`
}

func (BookUpdateEvent) Channel() ChannelKind { return ChannelBook }

type FundingBookSnapshotEvent struct {
	DataHeader
	Levels []FundingBookLevel `json:"levels"`
}

func (FundingBookSnapshotEvent) Channel() ChannelKind { return ChannelBook }

type FundingBookUpdateEvent struct {
	DataHeader
	Level FundingBookLevel `json:"level"`
}

func (FundingBookUpdateEvent) Channel() ChannelKind { return ChannelBook }

type RawBookSnapshotEvent struct {
	DataHeader
	Orders []RawBookEntry `json:"orders"`
}

func (RawBookSnapshotEvent) Channel() ChannelKind { return ChannelRawBook }

type RawBookUpdateEvent struct {
	DataHeader
	Order RawBookEntry `json:"order"`
}

func (RawBookUpdateEvent) Channel() ChannelKind { return ChannelRawBook }

type FundingRawBookSnapshotEvent struct {
	DataHeader
	Offers []FundingRawBookEntry `json:"offers"`
}

func (FundingRawBookSnapshotEvent) Channel() ChannelKind { return ChannelRawBook }

type FundingRawBookUpdateEvent struct {
	DataHeader
	Offer FundingRawBookEntry `json:"offer"`
}

func (FundingRawBookUpdateEvent) Channel() ChannelKind { return ChannelRawBook }

type CandlesSnapshotEvent struct {
	DataHeader
	Candles []Candle `json:"candles"`
}

func (CandlesSnapshotEvent) Channel() ChannelKind { return ChannelCandles }

type CandleUpdateEvent struct {
	DataHeader
	Candle Candle `json:"candle"`
}

func (CandleUpdateEvent) Channel() ChannelKind { return ChannelCandles }

// HeartbeatEvent is a keep-alive frame [chanId,"hb"]. It is never dispatched.
type HeartbeatEvent struct {
	DataHeader
}

func (HeartbeatEvent) Channel() ChannelKind { return "" }

type PositionsSnapshotEvent struct {
	DataHeader
	Label     string     `json:"label"`
	Positions []Position `json:"positions"`
}

func (PositionsSnapshotEvent) Channel() ChannelKind { return ChannelAccount }

type WalletsSnapshotEvent struct {
	DataHeader
	Label   string   `json:"label"`
	Wallets []Wallet `json:"wallets"`
}

func (WalletsSnapshotEvent) Channel() ChannelKind { return ChannelAccount }

type WalletUpdateEvent struct {
	DataHeader
	Label  string `json:"label"`
	Wallet Wallet `json:"wallet"`
}

func (WalletUpdateEvent) Channel() ChannelKind { return ChannelAccount }

type BalanceUpdateEvent struct {
	DataHeader
	Label   string  `json:"label"`
	Balance Balance `json:"balance"`
}

func (BalanceUpdateEvent) Channel() ChannelKind { return ChannelAccount }

// AccountEvent is an account channel frame whose label has no typed schema
// (orders, notifications, own trades...). The payload is kept undecoded.
type AccountEvent struct {
	DataHeader
	Label   string          `json:"label"`
	Payload json.RawMessage `json:"payload"`
}

func (AccountEvent) Channel() ChannelKind { return ChannelAccount }
