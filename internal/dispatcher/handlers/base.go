package handlers

import (
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
)

// BaseHandler implements dispatcher.EventHandler with no-op callbacks.
// Handlers embed it and override the callbacks they care about.
type BaseHandler struct{}

var _ dispatcher.EventHandler = BaseHandler{}

func (BaseHandler) OnConnect(*bitfinex.InfoEvent)          {}
func (BaseHandler) OnAuth(*bitfinex.AuthEvent)             {}
func (BaseHandler) OnSubscribed(*bitfinex.SubscribedEvent) {}
func (BaseHandler) OnDataEvent(bitfinex.DataEvent)         {}
func (BaseHandler) OnError(error)                          {}
