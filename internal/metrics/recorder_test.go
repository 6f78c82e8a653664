package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/common"
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher/mocks"
	"github.com/alejoacosta74/bitfinex-ws/internal/events"
	"github.com/alejoacosta74/bitfinex-ws/internal/ws"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, nil)

	r.record(&bitfinex.InfoEvent{})
	r.record(&bitfinex.AuthEvent{Status: "OK"})
	r.record(&bitfinex.SubscribedEvent{Channel: "ticker", ChanID: 10, Symbol: "tBTCUSD"})
	r.record(&bitfinex.SubscribedEvent{Channel: "book", ChanID: 11, Symbol: "tETHUSD"})
	r.record(bitfinex.TickerEvent{
		DataHeader: bitfinex.DataHeader{ChanID: 10},
		Ticker:     bitfinex.Ticker{Bid: 100, Ask: 100.5, LastPrice: 100.25},
	})
	r.record(bitfinex.FundingTickerEvent{
		DataHeader: bitfinex.DataHeader{ChanID: 12},
		Ticker:     bitfinex.FundingTicker{Bid: 0.0001, Ask: 0.0003},
	})
	r.record(bitfinex.BookUpdateEvent{DataHeader: bitfinex.DataHeader{ChanID: 11}})
	r.record(bitfinex.BookUpdateEvent{DataHeader: bitfinex.DataHeader{ChanID: 11}})
	r.record("not an event")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.wsMetrics.notifications.WithLabelValues("info")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.wsMetrics.notifications.WithLabelValues("subscribed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.wsMetrics.subscriptions))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.wsMetrics.dataEvents.WithLabelValues("book", "BookUpdateEvent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.wsMetrics.dataEvents.WithLabelValues("ticker", "TickerEvent")))

	assert.Equal(t, 0.5, testutil.ToFloat64(r.marketMetrics.spread.WithLabelValues("tBTCUSD")))
	assert.Equal(t, 100.25, testutil.ToFloat64(r.marketMetrics.lastPrice.WithLabelValues("tBTCUSD")))
	// unknown chan_id falls back to the id
	assert.Equal(t, 0.0002, testutil.ToFloat64(r.marketMetrics.spread.WithLabelValues("12")))

	// a new connection resets the subscription gauge
	r.record(&bitfinex.InfoEvent{})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.wsMetrics.subscriptions))
}

func TestRecorderErrorKinds(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry(), nil)

	r.record(&ws.TransportError{Op: "read", Err: errors.New("reset")})
	r.record(&ws.CloseError{Code: 1013, Text: "try again later"})
	r.record(&bitfinex.AuthError{Code: 10100, Msg: "apikey: invalid"})
	r.record(errors.New("boom"))

	_, err := dispatcher.DecodeData([]byte(`[1,{}]`), nil)
	require.Error(t, err)
	r.record(err)

	for _, kind := range []string{"transport", "close", "auth", "other", "decode"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(r.wsMetrics.errors.WithLabelValues(kind)), kind)
	}
}

func TestRecorderKafkaMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, nil)

	r.RecordKafkaMessageSent("bfx.ticker", 3*time.Millisecond)
	r.RecordKafkaMessageSent("bfx.ticker", 5*time.Millisecond)
	r.RecordKafkaError("send_failed")
	r.UpdateKafkaPoolAvailable(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.kafkaMetrics.messagesSent.WithLabelValues("bfx.ticker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.kafkaMetrics.sendErrors.WithLabelValues("send_failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.kafkaMetrics.poolAvailable))
	assert.Equal(t, 1, testutil.CollectAndCount(r.kafkaMetrics.sendLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "bitfinex_kafka_messages_sent_total" {
			assert.Equal(t, 2.0, sumCounters(mf))
		}
	}
	r.logSummary()
}

func TestRecorderConsumesBus(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Shutdown()

	r := NewRecorder(prometheus.NewRegistry(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))

	// Start subscribed synchronously, so nothing published from here is lost
	bus.Publish(common.DataTopic(bitfinex.ChannelCandles), bitfinex.CandleUpdateEvent{})
	bus.Publish(common.TopicError, errors.New("boom"))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(r.wsMetrics.dataEvents.WithLabelValues("candles", "CandleUpdateEvent")) == 1 &&
			testutil.ToFloat64(r.wsMetrics.errors.WithLabelValues("other")) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
	assert.Zero(t, bus.TopicSubscriberCount(common.TopicError))
}

func TestRecorderUnsubscribesOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bus := mocks.NewMockBus(ctrl)
	channels := map[common.Topic]chan interface{}{}
	bus.EXPECT().Subscribe(gomock.Any()).AnyTimes().DoAndReturn(func(topic common.Topic) <-chan interface{} {
		ch := make(chan interface{})
		channels[topic] = ch
		return ch
	})
	bus.EXPECT().Unsubscribe(gomock.Any(), gomock.Any()).Times(4 + len(common.DataTopics()))

	r := NewRecorder(prometheus.NewRegistry(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	assert.Len(t, channels, 4+len(common.DataTopics()))

	cancel()
	<-r.Done()
}
