package registry

import (
	"testing"

	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher/handlers"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ dispatcher.ChannelResolver = (*Registry)(nil)

func TestRegistryRecordsAcknowledgments(t *testing.T) {
	r := New()

	r.OnSubscribed(&bitfinex.SubscribedEvent{Channel: "book", ChanID: 9, Prec: "R0", Pair: "fUSD"})
	r.OnSubscribed(&bitfinex.SubscribedEvent{Channel: "ticker", ChanID: 4, Symbol: "tBTCUSD"})
	r.OnAuth(&bitfinex.AuthEvent{Status: "FAILED"})
	assert.Equal(t, 2, r.Len())

	r.OnAuth(&bitfinex.AuthEvent{Status: "OK", ChanID: 0})

	sub, ok := r.Lookup(9)
	require.True(t, ok)
	assert.Equal(t, bitfinex.Subscription{ChanID: 9, Kind: bitfinex.ChannelRawBook, EventType: bitfinex.Funding, Symbol: "fUSD"}, sub)

	_, ok = r.Lookup(99)
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int64{0, 4, 9}, []int64{all[0].ChanID, all[1].ChanID, all[2].ChanID})
	assert.Equal(t, bitfinex.ChannelAccount, all[0].Kind)

	r.OnConnect(&bitfinex.InfoEvent{})
	assert.Zero(t, r.Len())
}

func TestRegistryResolvesFramesThroughDispatcher(t *testing.T) {
	r := New()
	var got []bitfinex.DataEvent
	sink := &collector{events: &got}

	d := dispatcher.NewDispatcher(handlers.NewChain(r, sink), dispatcher.WithResolver(r))

	// width 4 updates would be inferred as a funding book level without the ack
	require.NoError(t, d.Dispatch([]byte(`{"event":"subscribed","channel":"book","chanId":7,"prec":"R0","pair":"fUSD"}`)))
	require.NoError(t, d.Dispatch([]byte(`[7,[123,30,0.0002,-50]]`)))

	require.Len(t, got, 1)
	ev, ok := got[0].(bitfinex.FundingRawBookUpdateEvent)
	require.True(t, ok, "%T", got[0])
	assert.Equal(t, int64(123), ev.Offer.OfferID)
	assert.Equal(t, int64(30), ev.Offer.Period)
}

type collector struct {
	handlers.BaseHandler
	events *[]bitfinex.DataEvent
}

func (c *collector) OnDataEvent(ev bitfinex.DataEvent) {
	*c.events = append(*c.events, ev)
}
