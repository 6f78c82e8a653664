// Package config loads the process configuration from a YAML file, BFX_
// environment variables and command line flags bound by the cmd package.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/pkg/bitfinex"
	"github.com/spf13/viper"
)

const EnvPrefix = "BFX"

type Config struct {
	Log           logger.Config        `mapstructure:"log"`
	Session       SessionConfig        `mapstructure:"session"`
	Auth          AuthConfig           `mapstructure:"auth"`
	Subscriptions []SubscriptionConfig `mapstructure:"subscriptions"`
	Kafka         KafkaConfig          `mapstructure:"kafka"`
	Metrics       MetricsConfig        `mapstructure:"metrics"`
	System        SystemConfig         `mapstructure:"system"`
}

type SessionConfig struct {
	URL         string        `mapstructure:"url"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"` // 0 disables the idle timeout
}

// AuthConfig holds the API credentials. Authentication is attempted when
// both key and secret are set.
type AuthConfig struct {
	APIKey        string   `mapstructure:"api_key"`
	APISecret     string   `mapstructure:"api_secret"`
	DeadManSwitch bool     `mapstructure:"dead_man_switch"`
	Filters       []string `mapstructure:"filters"`
}

func (a AuthConfig) Enabled() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// SubscriptionConfig describes one channel subscription.
//
//	channel: ticker | trades | candles | book | rawbook
type SubscriptionConfig struct {
	Channel   string `mapstructure:"channel"`
	Symbol    string `mapstructure:"symbol"` // without the t/f prefix
	Type      string `mapstructure:"type"`   // trading (default) or funding
	Timeframe string `mapstructure:"timeframe"`
	Precision string `mapstructure:"precision"`
	Frequency string `mapstructure:"frequency"`
	Length    uint32 `mapstructure:"length"`
}

type KafkaConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Brokers          []string      `mapstructure:"brokers"`
	TopicPrefix      string        `mapstructure:"topic_prefix"`
	ClientID         string        `mapstructure:"client_id"`
	PoolSize         int           `mapstructure:"pool_size"`
	Workers          int           `mapstructure:"workers"`
	BufferSize       int           `mapstructure:"buffer_size"`
	MaxRetries       int           `mapstructure:"max_retries"`
	CheckTimeout     time.Duration `mapstructure:"check_timeout"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// StatsInterval is the period of the runtime statistics log line.
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

type SystemConfig struct {
	MaxProcs    int    `mapstructure:"max_procs"`
	GCPercent   int    `mapstructure:"gc_percent"`
	MaxThreads  int    `mapstructure:"max_threads"`
	MemoryLimit int    `mapstructure:"memory_limit"` // MB
	CPUProfile  string `mapstructure:"cpu_profile"`
	MemProfile  string `mapstructure:"mem_profile"`
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// registered so that AutomaticEnv sees them during Unmarshal
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_secret", "")
	v.SetDefault("auth.dead_man_switch", false)

	v.SetDefault("session.url", bitfinex.WebsocketURL)
	v.SetDefault("session.read_timeout", "0s")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "bitfinex")
	v.SetDefault("kafka.client_id", "bitfinex-ws")
	v.SetDefault("kafka.pool_size", 4)
	v.SetDefault("kafka.workers", 4)
	v.SetDefault("kafka.buffer_size", 1024)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.check_timeout", "5s")
	v.SetDefault("kafka.breaker_threshold", 5)
	v.SetDefault("kafka.breaker_timeout", "10s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":2112")
	v.SetDefault("metrics.stats_interval", "1m")

	v.SetDefault("system.gc_percent", 100)
	v.SetDefault("system.max_threads", 10000)
	v.SetDefault("system.memory_limit", 2048)
}

// Load reads path (when not empty) into v, then decodes and validates the
// result. Environment variables override the file: kafka.brokers is read
// from BFX_KAFKA_BROKERS.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills values that viper defaults cannot express, such as
// fields of list entries.
func (c *Config) ApplyDefaults() {
	if c.Session.URL == "" {
		c.Session.URL = bitfinex.WebsocketURL
	}
	for i := range c.Subscriptions {
		s := &c.Subscriptions[i]
		s.Channel = strings.ToLower(s.Channel)
		if s.Type == "" {
			s.Type = "trading"
		}
		switch bitfinex.ChannelKind(s.Channel) {
		case bitfinex.ChannelCandles:
			if s.Timeframe == "" {
				s.Timeframe = "1m"
			}
		case bitfinex.ChannelBook:
			if s.Precision == "" {
				s.Precision = "P0"
			}
			if s.Frequency == "" {
				s.Frequency = "F0"
			}
			if s.Length == 0 {
				s.Length = 25
			}
		}
	}
}

func (c *Config) Validate() error {
	if c.Session.URL == "" {
		return errors.New("session.url is required")
	}
	if c.Session.ReadTimeout < 0 {
		return errors.New("session.read_timeout must be >= 0")
	}
	if (c.Auth.APIKey == "") != (c.Auth.APISecret == "") {
		return errors.New("auth.api_key and auth.api_secret must be set together")
	}
	for i, s := range c.Subscriptions {
		if _, err := s.Command(); err != nil {
			return fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers must contain at least one entry")
		}
		if c.Kafka.PoolSize <= 0 {
			return errors.New("kafka.pool_size must be > 0")
		}
		if c.Kafka.Workers <= 0 {
			return errors.New("kafka.workers must be > 0")
		}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required")
	}
	return nil
}

// Command builds the subscribe command of the entry.
func (s SubscriptionConfig) Command() (bitfinex.SubscribeCommand, error) {
	if s.Symbol == "" {
		return bitfinex.SubscribeCommand{}, errors.New("symbol is required")
	}
	et, err := bitfinex.ParseEventType(s.Type)
	if err != nil {
		return bitfinex.SubscribeCommand{}, err
	}

	switch bitfinex.ChannelKind(s.Channel) {
	case bitfinex.ChannelTicker:
		return bitfinex.TickerSubscription(s.Symbol, et), nil
	case bitfinex.ChannelTrades:
		return bitfinex.TradesSubscription(s.Symbol, et), nil
	case bitfinex.ChannelCandles:
		if et == bitfinex.Funding {
			return bitfinex.SubscribeCommand{}, errors.New("candles are only available for trading pairs")
		}
		return bitfinex.CandlesSubscription(s.Symbol, s.Timeframe), nil
	case bitfinex.ChannelBook:
		return bitfinex.BookSubscription(s.Symbol, et, s.Precision, s.Frequency, s.Length), nil
	case bitfinex.ChannelRawBook:
		return bitfinex.RawBookSubscription(s.Symbol, et), nil
	default:
		return bitfinex.SubscribeCommand{}, fmt.Errorf("unknown channel %q", s.Channel)
	}
}
