package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: debug
session:
  read_timeout: 30s
auth:
  api_key: key
  api_secret: secret
  dead_man_switch: true
  filters: [trading, wallet]
subscriptions:
  - channel: ticker
    symbol: BTCUSD
  - channel: Book
    symbol: USD
    type: funding
  - channel: candles
    symbol: ETHUSD
    timeframe: 5m
kafka:
  enabled: true
  brokers: [k1:9092, k2:9092]
metrics:
  enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(viper.New(), writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, bitfinex.WebsocketURL, cfg.Session.URL)
	assert.Equal(t, 30*time.Second, cfg.Session.ReadTimeout)

	assert.True(t, cfg.Auth.Enabled())
	assert.True(t, cfg.Auth.DeadManSwitch)
	assert.Equal(t, []string{"trading", "wallet"}, cfg.Auth.Filters)

	require.Len(t, cfg.Subscriptions, 3)
	book := cfg.Subscriptions[1]
	assert.Equal(t, "book", book.Channel)
	assert.Equal(t, "P0", book.Precision)
	assert.Equal(t, uint32(25), book.Length)
	assert.Equal(t, "5m", cfg.Subscriptions[2].Timeframe)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "bitfinex", cfg.Kafka.TopicPrefix)
	assert.Equal(t, 10*time.Second, cfg.Kafka.BreakerTimeout)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
	assert.Equal(t, 2048, cfg.System.MemoryLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BFX_AUTH_API_KEY", "env-key")
	t.Setenv("BFX_AUTH_API_SECRET", "env-secret")
	t.Setenv("BFX_KAFKA_TOPIC_PREFIX", "prod")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Auth.APIKey)
	assert.Equal(t, "env-secret", cfg.Auth.APISecret)
	assert.Equal(t, "prod", cfg.Kafka.TopicPrefix)
	assert.Empty(t, cfg.Subscriptions)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := map[string]string{
		"key without secret": "auth:\n  api_key: k\n",
		"unknown channel":    "subscriptions:\n  - channel: status\n    symbol: BTCUSD\n",
		"missing symbol":     "subscriptions:\n  - channel: ticker\n",
		"bad type":           "subscriptions:\n  - channel: ticker\n    symbol: BTCUSD\n    type: margin\n",
		"funding candles":    "subscriptions:\n  - channel: candles\n    symbol: USD\n    type: funding\n",
		"kafka without pool": "kafka:\n  enabled: true\n  pool_size: 0\n",
		"negative timeout":   "session:\n  read_timeout: -1s\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestSubscriptionCommand(t *testing.T) {
	tests := []struct {
		sub  SubscriptionConfig
		want bitfinex.SubscribeCommand
	}{
		{SubscriptionConfig{Channel: "ticker", Symbol: "BTCUSD", Type: "trading"}, bitfinex.TickerSubscription("BTCUSD", bitfinex.Trading)},
		{SubscriptionConfig{Channel: "trades", Symbol: "USD", Type: "funding"}, bitfinex.TradesSubscription("USD", bitfinex.Funding)},
		{SubscriptionConfig{Channel: "candles", Symbol: "BTCUSD", Timeframe: "1h"}, bitfinex.CandlesSubscription("BTCUSD", "1h")},
		{SubscriptionConfig{Channel: "book", Symbol: "BTCUSD", Precision: "P1", Frequency: "F1", Length: 100}, bitfinex.BookSubscription("BTCUSD", bitfinex.Trading, "P1", "F1", 100)},
		{SubscriptionConfig{Channel: "rawbook", Symbol: "BTCUSD"}, bitfinex.RawBookSubscription("BTCUSD", bitfinex.Trading)},
	}
	for _, tt := range tests {
		got, err := tt.sub.Command()
		require.NoError(t, err, tt.sub.Channel)
		assert.Equal(t, tt.want, got, tt.sub.Channel)
	}
}
