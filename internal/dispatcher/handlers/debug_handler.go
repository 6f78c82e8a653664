package handlers

import (
	"encoding/json"
	"reflect"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/sirupsen/logrus"
)

// DebugHandler logs every event. Data events are printed as indented JSON
// at trace level.
type DebugHandler struct {
	logger *logrus.Entry
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler() *DebugHandler {
	return &DebugHandler{
		logger: logger.WithField("component", "debug_handler"),
	}
}

func (h *DebugHandler) OnConnect(ev *bitfinex.InfoEvent) {
	h.logger.WithFields(logger.Fields{
		"version":  ev.Version,
		"platform": ev.Platform.Status,
	}).Info("Connected to Bitfinex")
}

func (h *DebugHandler) OnAuth(ev *bitfinex.AuthEvent) {
	entry := h.logger.WithField("status", ev.Status)
	if ev.IsOK() {
		entry.Info("Authenticated")
		return
	}
	if ev.Msg != nil {
		entry = entry.WithField("msg", *ev.Msg)
	}
	entry.Warn("Authentication rejected")
}

func (h *DebugHandler) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	sub := ev.Subscription()
	h.logger.WithFields(logger.Fields{
		"chan_id": sub.ChanID,
		"channel": sub.Kind,
		"symbol":  sub.Symbol,
		"key":     sub.Key,
	}).Info("Subscribed")
}

func (h *DebugHandler) OnDataEvent(ev bitfinex.DataEvent) {
	entry := h.logger.WithFields(logger.Fields{
		"chan_id": ev.ChannelID(),
		"channel": ev.Channel(),
		"type":    eventTypeName(ev),
	})
	if !h.logger.Logger.IsLevelEnabled(logrus.TraceLevel) {
		entry.Debug("Received data event")
		return
	}

	pretty, err := json.MarshalIndent(ev, "", "    ")
	if err != nil {
		entry.WithError(err).Warn("Error formatting data event")
		return
	}
	entry.Trace("Received data event:\n", string(pretty))
}

func (h *DebugHandler) OnError(err error) {
	h.logger.WithError(err).Error("Session error")
}

// eventTypeName returns the unqualified Go type name of a data event.
func eventTypeName(ev bitfinex.DataEvent) string {
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
