//go:generate mockgen -destination=mock_event_handler.go -package=mocks github.com/alejoacosta74/bitfinex-ws/internal/dispatcher EventHandler,ChannelResolver
//go:generate mockgen -destination=mock_event_bus.go -package=mocks github.com/alejoacosta74/bitfinex-ws/internal/events Bus
//go:generate mockgen -destination=mock_message_sender.go -package=mocks github.com/alejoacosta74/bitfinex-ws/internal/kafka MessageSender

package mocks
