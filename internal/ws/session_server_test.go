package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/ws/test"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects events from the session goroutine.
type recordingHandler struct {
	mu         sync.Mutex
	info       []*bitfinex.InfoEvent
	subscribed []*bitfinex.SubscribedEvent
	auth       []*bitfinex.AuthEvent
	data       []bitfinex.DataEvent
	errs       []error
	dataCh     chan bitfinex.DataEvent
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{dataCh: make(chan bitfinex.DataEvent, 16)}
}

func (h *recordingHandler) OnConnect(ev *bitfinex.InfoEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = append(h.info, ev)
}

func (h *recordingHandler) OnAuth(ev *bitfinex.AuthEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.auth = append(h.auth, ev)
}

func (h *recordingHandler) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribed = append(h.subscribed, ev)
}

func (h *recordingHandler) OnDataEvent(ev bitfinex.DataEvent) {
	h.mu.Lock()
	h.data = append(h.data, ev)
	h.mu.Unlock()
	h.dataCh <- ev
}

func (h *recordingHandler) OnError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func newGateway(t *testing.T) *test.MockWebSocketServer {
	t.Helper()
	server := test.NewMockWebSocketServer()
	t.Cleanup(server.Close)

	server.QueueMessage([]byte(`{"event":"info","version":2,"serverId":"mock","platform":{"status":1}}`))
	server.RegisterHandler(bitfinex.EventSubscribe, func(msg []byte) []interface{} {
		var req map[string]interface{}
		if err := json.Unmarshal(msg, &req); err != nil {
			return nil
		}
		req["event"] = bitfinex.EventSubscribed
		req["chanId"] = 15
		return []interface{}{
			req,
			[]interface{}{15, "hb"},
			json.RawMessage(`[15,[7616.7,0.2,7617,0.3,-130,-0.017,7617,10000,7800,7500]]`),
		}
	})
	server.RegisterHandler(bitfinex.EventAuth, func(msg []byte) []interface{} {
		return []interface{}{
			map[string]interface{}{"event": "auth", "status": "OK", "chanId": 0, "userId": 7, "authId": "abc"},
			json.RawMessage(`[0,"bu",[1000.5,990.25]]`),
		}
	})
	return server
}

func waitData(t *testing.T, h *recordingHandler) bitfinex.DataEvent {
	t.Helper()
	select {
	case ev := <-h.dataCh:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for data event")
		return nil
	}
}

func TestSessionAgainstGateway(t *testing.T) {
	server := newGateway(t)
	handler := newRecordingHandler()

	s := NewSession(handler, WithURL(server.URL), WithSigner(stubSigner{}))
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Authenticate("key", "secret", false, []string{"wallet"}))

	sender := s.Sender()
	require.NoError(t, sender.SubscribeTicker("BTCUSD", bitfinex.Trading))

	done := runAsync(s, context.Background())

	first := waitData(t, handler)
	second := waitData(t, handler)
	events := []bitfinex.DataEvent{first, second}
	assert.Contains(t, events, bitfinex.DataEvent(bitfinex.BalanceUpdateEvent{
		DataHeader: bitfinex.DataHeader{ChanID: 0}, Label: "bu",
		Balance: bitfinex.Balance{AUM: 1000.5, AUMNet: 990.25},
	}))

	require.NoError(t, sender.Close())
	require.NoError(t, waitRun(t, done))

	handler.mu.Lock()
	require.Len(t, handler.info, 1)
	assert.Equal(t, "mock", handler.info[0].ServerID)
	require.Len(t, handler.auth, 1)
	assert.True(t, handler.auth[0].IsOK())
	require.Len(t, handler.subscribed, 1)
	assert.Equal(t, int64(15), handler.subscribed[0].ChanID)
	assert.Equal(t, bitfinex.ChannelTicker, handler.subscribed[0].ChannelKind())
	assert.Empty(t, handler.errs)
	handler.mu.Unlock()

	received := server.GetReceivedMessages()
	require.Len(t, received, 2)
	assert.Contains(t, string(received[0]), `"authPayload":"AUTH1000"`)
	assert.JSONEq(t, `{"event":"subscribe","channel":"ticker","symbol":"tBTCUSD"}`, string(received[1]))

	assert.Eventually(t, func() bool {
		codes := server.GetCloseCodes()
		return len(codes) == 1 && codes[0] == websocket.CloseNormalClosure
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionPeerClose(t *testing.T) {
	server := newGateway(t)
	handler := newRecordingHandler()

	s := NewSession(handler, WithURL(server.URL))
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Sender().SubscribeTicker("BTCUSD", bitfinex.Trading))

	done := runAsync(s, context.Background())
	waitData(t, handler)

	server.CloseConnections(websocket.CloseTryAgainLater, "maintenance")

	var closeErr *CloseError
	require.ErrorAs(t, waitRun(t, done), &closeErr)
	assert.Equal(t, websocket.CloseTryAgainLater, closeErr.Code)
	assert.Equal(t, "maintenance", closeErr.Text)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.errs, 1)
	assert.ErrorAs(t, handler.errs[0], &closeErr)
}
