package handlers

import (
	"github.com/alejoacosta74/bitfinex-ws/internal/common"
	"github.com/alejoacosta74/bitfinex-ws/internal/events"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
)

// BusHandler publishes session events on the event bus. Data events go to
// the topic of their channel kind.
type BusHandler struct {
	bus events.Bus
}

func NewBusHandler(bus events.Bus) *BusHandler {
	return &BusHandler{bus: bus}
}

func (h *BusHandler) OnConnect(ev *bitfinex.InfoEvent) {
	h.bus.Publish(common.TopicInfo, ev)
}

func (h *BusHandler) OnAuth(ev *bitfinex.AuthEvent) {
	h.bus.Publish(common.TopicAuth, ev)
}

func (h *BusHandler) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	h.bus.Publish(common.TopicSubscribed, ev)
}

func (h *BusHandler) OnDataEvent(ev bitfinex.DataEvent) {
	h.bus.Publish(common.DataTopic(ev.Channel()), ev)
}

func (h *BusHandler) OnError(err error) {
	h.bus.Publish(common.TopicError, err)
}
