package handlers

import (
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
)

// Chain forwards every callback to each handler in order.
type Chain []dispatcher.EventHandler

func NewChain(handlers ...dispatcher.EventHandler) Chain {
	return Chain(handlers)
}

func (c Chain) OnConnect(ev *bitfinex.InfoEvent) {
	for _, h := range c {
		h.OnConnect(ev)
	}
}

func (c Chain) OnAuth(ev *bitfinex.AuthEvent) {
	for _, h := range c {
		h.OnAuth(ev)
	}
}

func (c Chain) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	for _, h := range c {
		h.OnSubscribed(ev)
	}
}

func (c Chain) OnDataEvent(ev bitfinex.DataEvent) {
	for _, h := range c {
		h.OnDataEvent(ev)
	}
}

func (c Chain) OnError(err error) {
	for _, h := range c {
		h.OnError(err)
	}
}
