package bitfinex

import (
	"encoding/json"
	"fmt"
)

// Payload schemas. Every payload is a positional JSON array; nulls and missing
// trailing fields leave the Go field at its zero value.

// decodeFields unmarshals the array in data element by element into dst. A nil
// destination skips that position.
func decodeFields(data []byte, min int, dst ...interface{}) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < min {
		return fmt.Errorf("expected at least %d fields, got %d", min, len(raw))
	}
	for i, d := range dst {
		if i >= len(raw) {
			break
		}
		if d == nil {
			continue
		}
		if err := json.Unmarshal(raw[i], d); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// Ticker is a trading pair ticker: [BID, BID_SIZE, ASK, ASK_SIZE, DAILY_CHANGE,
// DAILY_CHANGE_RELATIVE, LAST_PRICE, VOLUME, HIGH, LOW].
type Ticker struct {
	Bid             float64 `json:"bid"`
	BidSize         float64 `json:"bid_size"`
	Ask             float64 `json:"ask"`
	AskSize         float64 `json:"ask_size"`
	DailyChange     float64 `json:"daily_change"`
	DailyChangePerc float64 `json:"daily_change_perc"`
	LastPrice       float64 `json:"last_price"`
	Volume          float64 `json:"volume"`
	High            float64 `json:"high"`
	Low             float64 `json:"low"`
}

const tickerFields = 10

func (t *Ticker) UnmarshalJSON(data []byte) error {
	return decodeFields(data, tickerFields,
		&t.Bid, &t.BidSize, &t.Ask, &t.AskSize, &t.DailyChange,
		&t.DailyChangePerc, &t.LastPrice, &t.Volume, &t.High, &t.Low)
}

// FundingTicker is a funding currency ticker.
type FundingTicker struct {
	FRR                float64 `json:"frr"`
	Bid                float64 `json:"bid"`
	BidPeriod          int64   `json:"bid_period"`
	BidSize            float64 `json:"bid_size"`
	Ask                float64 `json:"ask"`
	AskPeriod          int64   `json:"ask_period"`
	AskSize            float64 `json:"ask_size"`
	DailyChange        float64 `json:"daily_change"`
	DailyChangePerc    float64 `json:"daily_change_perc"`
	LastPrice          float64 `json:"last_price"`
	Volume             float64 `json:"volume"`
	High               float64 `json:"high"`
	Low                float64 `json:"low"`
	FRRAmountAvailable float64 `json:"frr_amount_available"`
}

// The last three funding ticker fields are optional.
const fundingTickerMinFields = 13

func (t *FundingTicker) UnmarshalJSON(data []byte) error {
	return decodeFields(data, fundingTickerMinFields,
		&t.FRR, &t.Bid, &t.BidPeriod, &t.BidSize, &t.Ask, &t.AskPeriod, &t.AskSize,
		&t.DailyChange, &t.DailyChangePerc, &t.LastPrice, &t.Volume, &t.High, &t.Low,
		nil, nil, &t.FRRAmountAvailable)
}

// Trade is a public trade on a trading pair: [ID, MTS, AMOUNT, PRICE].
type Trade struct {
	ID     int64   `json:"id"`
	MTS    int64   `json:"mts"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

const tradeFields = 4

func (t *Trade) UnmarshalJSON(data []byte) error {
	return decodeFields(data, tradeFields, &t.ID, &t.MTS, &t.Amount, &t.Price)
}

// FundingTrade is a public funding trade: [ID, MTS, AMOUNT, RATE, PERIOD].
type FundingTrade struct {
	ID     int64   `json:"id"`
	MTS    int64   `json:"mts"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Period int64   `json:"period"`
}

const fundingTradeFields = 5

func (t *FundingTrade) UnmarshalJSON(data []byte) error {
	return decodeFields(data, fundingTradeFields, &t.ID, &t.MTS, &t.Amount, &t.Rate, &t.Period)
}

// BookLevel is an aggregated trading book level: [PRICE, COUNT, AMOUNT].
// A zero count removes the level.
type BookLevel struct {
	Price  float64 `json:"price"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

const bookLevelFields = 3

func (l *BookLevel) UnmarshalJSON(data []byte) error {
	return decodeFields(data, bookLevelFields, &l.Price, &l.Count, &l.Amount)
}

// FundingBookLevel is an aggregated funding book level: [RATE, PERIOD, COUNT, AMOUNT].
type FundingBookLevel struct {
	Rate   float64 `json:"rate"`
	Period int64   `json:"period"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

const fundingBookLevelFields = 4

func (l *FundingBookLevel) UnmarshalJSON(data []byte) error {
	return decodeFields(data, fundingBookLevelFields, &l.Rate, &l.Period, &l.Count, &l.Amount)
}

// RawBookEntry is a single order of the raw trading book: [ORDER_ID, PRICE, AMOUNT].
// A zero price removes the order.
type RawBookEntry struct {
	OrderID int64   `json:"order_id"`
	Price   float64 `json:"price"`
	Amount  float64 `json:"amount"`
}

func (e *RawBookEntry) UnmarshalJSON(data []byte) error {
	return decodeFields(data, 3, &e.OrderID, &e.Price, &e.Amount)
}

// FundingRawBookEntry is a single offer of the raw funding book:
// [OFFER_ID, PERIOD, RATE, AMOUNT].
type FundingRawBookEntry struct {
	OfferID int64   `json:"offer_id"`
	Period  int64   `json:"period"`
	Rate    float64 `json:"rate"`
	Amount  float64 `json:"amount"`
}

func (e *FundingRawBookEntry) UnmarshalJSON(data []byte) error {
	return decodeFields(data, 4, &e.OfferID, &e.Period, &e.Rate, &e.Amount)
}

// Candle is [MTS, OPEN, CLOSE, HIGH, LOW, VOLUME].
type Candle struct {
	MTS    int64   `json:"mts"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

const candleFields = 6

func (c *Candle) UnmarshalJSON(data []byte) error {
	return decodeFields(data, candleFields, &c.MTS, &c.Open, &c.Close, &c.High, &c.Low, &c.Volume)
}

// Position is a margin position from the account channel.
type Position struct {
	Symbol            string          `json:"symbol"`
	Status            string          `json:"status"`
	Amount            float64         `json:"amount"`
	BasePrice         float64         `json:"base_price"`
	MarginFunding     float64         `json:"margin_funding"`
	MarginFundingType int64           `json:"margin_funding_type"`
	PL                float64         `json:"pl"`
	PLPerc            float64         `json:"pl_perc"`
	PriceLiq          float64         `json:"price_liq"`
	Leverage          float64         `json:"leverage"`
	PositionID        int64           `json:"position_id"`
	MTSCreate         int64           `json:"mts_create"`
	MTSUpdate         int64           `json:"mts_update"`
	Type              int64           `json:"type"`
	Collateral        float64         `json:"collateral"`
	CollateralMin     float64         `json:"collateral_min"`
	Meta              json.RawMessage `json:"meta,omitempty"`
}

func (p *Position) UnmarshalJSON(data []byte) error {
	return decodeFields(data, 6,
		&p.Symbol, &p.Status, &p.Amount, &p.BasePrice, &p.MarginFunding,
		&p.MarginFundingType, &p.PL, &p.PLPerc, &p.PriceLiq, &p.Leverage,
		nil, &p.PositionID, &p.MTSCreate, &p.MTSUpdate, nil, &p.Type, nil,
		&p.Collateral, &p.CollateralMin, &p.Meta)
}

// Wallet is [WALLET_TYPE, CURRENCY, BALANCE, UNSETTLED_INTEREST,
// BALANCE_AVAILABLE, DESCRIPTION, META]. BalanceAvailable is null until the
// venue computes it.
type Wallet struct {
	WalletType        string          `json:"wallet_type"`
	Currency          string          `json:"currency"`
	Balance           float64         `json:"balance"`
	UnsettledInterest float64         `json:"unsettled_interest"`
	BalanceAvailable  *float64        `json:"balance_available,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Meta              json.RawMessage `json:"meta,omitempty"`
}

func (w *Wallet) UnmarshalJSON(data []byte) error {
	return decodeFields(data, 4,
		&w.WalletType, &w.Currency, &w.Balance, &w.UnsettledInterest,
		&w.BalanceAvailable, &w.Description, &w.Meta)
}

// Balance is [AUM, AUM_NET].
type Balance struct {
	AUM    float64 `json:"aum"`
	AUMNet float64 `json:"aum_net"`
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	return decodeFields(data, 2, &b.AUM, &b.AUMNet)
}
