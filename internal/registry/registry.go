// Package registry keeps the chan_id mapping of the acknowledged subscriptions
// of a session.
package registry

import (
	"sort"
	"sync"

	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher/handlers"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/sirupsen/logrus"
)

// Registry records subscription acknowledgments. It is an EventHandler that
// must sit in the handler chain of the session whose frames it resolves, and
// a dispatcher.ChannelResolver for that session's decoder.
type Registry struct {
	handlers.BaseHandler
	mu     sync.RWMutex
	subs   map[int64]bitfinex.Subscription
	logger *logrus.Entry
}

func New() *Registry {
	return &Registry{
		subs:   make(map[int64]bitfinex.Subscription),
		logger: logger.WithField("component", "registry"),
	}
}

// OnConnect forgets every subscription: chan_ids are only valid for the
// connection that assigned them.
func (r *Registry) OnConnect(*bitfinex.InfoEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) > 0 {
		r.logger.WithField("count", len(r.subs)).Debug("Clearing subscriptions of previous connection")
	}
	r.subs = make(map[int64]bitfinex.Subscription)
}

func (r *Registry) OnSubscribed(ev *bitfinex.SubscribedEvent) {
	sub := ev.Subscription()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ChanID] = sub
	r.logger.WithFields(logger.Fields{
		"chan_id": sub.ChanID,
		"channel": sub.Kind,
	}).Trace("Subscription recorded")
}

// OnAuth records the account channel once the credentials are accepted.
func (r *Registry) OnAuth(ev *bitfinex.AuthEvent) {
	if !ev.IsOK() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[ev.ChanID] = bitfinex.Subscription{ChanID: ev.ChanID, Kind: bitfinex.ChannelAccount}
}

// Lookup implements dispatcher.ChannelResolver.
func (r *Registry) Lookup(chanID int64) (bitfinex.Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[chanID]
	return sub, ok
}

// All returns the known subscriptions ordered by chan_id.
func (r *Registry) All() []bitfinex.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]bitfinex.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChanID < out[j].ChanID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
