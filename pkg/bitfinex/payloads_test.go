package bitfinex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletNullableFields(t *testing.T) {
	var w Wallet
	require.NoError(t, json.Unmarshal([]byte(`["exchange","BTC",1.5,0,null]`), &w))

	assert.Equal(t, "exchange", w.WalletType)
	assert.Equal(t, "BTC", w.Currency)
	assert.Equal(t, 1.5, w.Balance)
	assert.Nil(t, w.BalanceAvailable)
	assert.Nil(t, w.Description)

	require.NoError(t, json.Unmarshal([]byte(`["margin","USD",100,0.1,90,"desc",{"reason":"x"}]`), &w))
	require.NotNil(t, w.BalanceAvailable)
	assert.Equal(t, 90.0, *w.BalanceAvailable)
	require.NotNil(t, w.Description)
	assert.Equal(t, "desc", *w.Description)
	assert.JSONEq(t, `{"reason":"x"}`, string(w.Meta))
}

func TestPosition(t *testing.T) {
	frame := `["tBTCUSD","ACTIVE",0.5,7000,-0.1,0,12.5,0.01,6000,2.5,null,142,1573000000000,1573000001000,null,0,null,3500,3000,null]`

	var p Position
	require.NoError(t, json.Unmarshal([]byte(frame), &p))

	assert.Equal(t, "tBTCUSD", p.Symbol)
	assert.Equal(t, "ACTIVE", p.Status)
	assert.Equal(t, 0.5, p.Amount)
	assert.Equal(t, 2.5, p.Leverage)
	assert.Equal(t, int64(142), p.PositionID)
	assert.Equal(t, int64(1573000001000), p.MTSUpdate)
	assert.Equal(t, 3500.0, p.Collateral)
	assert.Equal(t, 3000.0, p.CollateralMin)
}

func TestPayloadFieldErrors(t *testing.T) {
	var c Candle
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &c), "too few fields")

	var tr Trade
	assert.Error(t, json.Unmarshal([]byte(`["id",1,2,3]`), &tr), "wrong field type")

	var b Balance
	require.NoError(t, json.Unmarshal([]byte(`[1000.5,990.25]`), &b))
	assert.Equal(t, Balance{AUM: 1000.5, AUMNet: 990.25}, b)
}

func TestSubscribedEventKind(t *testing.T) {
	tests := []struct {
		frame string
		kind  ChannelKind
		et    EventType
	}{
		{`{"event":"subscribed","channel":"ticker","chanId":1,"symbol":"tBTCUSD","pair":"BTCUSD"}`, ChannelTicker, Trading},
		{`{"event":"subscribed","channel":"trades","chanId":2,"symbol":"fUSD","currency":"USD"}`, ChannelTrades, Funding},
		{`{"event":"subscribed","channel":"candles","chanId":3,"key":"trade:1m:tBTCUSD"}`, ChannelCandles, Trading},
		{`{"event":"subscribed","channel":"book","chanId":4,"symbol":"tBTCUSD","prec":"P0","freq":"F0","len":"25","pair":"BTCUSD"}`, ChannelBook, Trading},
		{`{"event":"subscribed","channel":"book","chanId":5,"prec":"R0","pair":"fUSD"}`, ChannelRawBook, Funding},
	}

	for _, tt := range tests {
		var ev SubscribedEvent
		require.NoError(t, json.Unmarshal([]byte(tt.frame), &ev))
		assert.Equal(t, tt.kind, ev.ChannelKind(), tt.frame)
		assert.Equal(t, tt.et, ev.EventType(), tt.frame)
	}
}
