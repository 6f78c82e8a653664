package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejoacosta74/bitfinex-ws/internal/config"
	"github.com/alejoacosta74/bitfinex-ws/internal/dispatcher/handlers"
	"github.com/alejoacosta74/bitfinex-ws/internal/events"
	"github.com/alejoacosta74/bitfinex-ws/internal/kafka"
	"github.com/alejoacosta74/bitfinex-ws/internal/logger"
	"github.com/alejoacosta74/bitfinex-ws/internal/metrics"
	"github.com/alejoacosta74/bitfinex-ws/internal/registry"
	"github.com/alejoacosta74/bitfinex-ws/internal/system"
	"github.com/alejoacosta74/bitfinex-ws/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownGrace = 10 * time.Second

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Connect and stream the configured channels",
	Long: `Connect to the Bitfinex gateway, authenticate when credentials are
configured and subscribe to every configured channel. The first SIGINT closes
the session gracefully, a second one forces the exit.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().String("url", "", "websocket endpoint")
	startCmd.Flags().Duration("read-timeout", 0, "fail when no frame is received for this long (0 disables)")
	startCmd.Flags().Bool("kafka", false, "forward events to Kafka")
	startCmd.Flags().StringSlice("brokers", nil, "Kafka brokers")
	startCmd.Flags().Bool("metrics", false, "expose Prometheus metrics")
	startCmd.Flags().String("metrics-addr", "", "metrics listen address")
	startCmd.Flags().String("cpuprofile", "", "write a CPU profile to this file")
	startCmd.Flags().String("memprofile", "", "write a heap profile to this file on exit")

	bindFlag("session.url", "url")
	bindFlag("session.read_timeout", "read-timeout")
	bindFlag("kafka.enabled", "kafka")
	bindFlag("kafka.brokers", "brokers")
	bindFlag("metrics.enabled", "metrics")
	bindFlag("metrics.addr", "metrics-addr")
	bindFlag("system.cpu_profile", "cpuprofile")
	bindFlag("system.mem_profile", "memprofile")
}

// bindFlag binds a start flag to a config key. Unset flags leave the file,
// environment or default value in place.
func bindFlag(key, flag string) {
	viper.BindPFlag(key, startCmd.Flags().Lookup(flag))
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.Log); err != nil {
		return err
	}
	log := logger.WithField("component", "start")

	system.FromConfig(cfg.System).Apply()

	stopProfile, err := system.StartProfiling(cfg.System.CPUProfile)
	if err != nil {
		return err
	}
	defer stopProfile()
	defer func() {
		if err := system.WriteHeapProfile(cfg.System.MemProfile); err != nil {
			log.WithError(err).Error("Failed to write heap profile")
		}
	}()

	// ctx drives the background components; the session itself is closed
	// gracefully through its sender
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := events.NewEventBus()
	defer bus.Shutdown()

	subs := registry.New()
	chain := handlers.NewChain(subs, handlers.NewDebugHandler(), handlers.NewBusHandler(bus))

	var recorder kafka.Recorder
	if cfg.Metrics.Enabled {
		rec, err := startMetrics(ctx, cfg.Metrics, bus)
		if err != nil {
			return err
		}
		recorder = rec
	}

	if cfg.Kafka.Enabled {
		kh, stop, err := startKafka(ctx, cfg.Kafka, recorder)
		if err != nil {
			return err
		}
		defer stop()
		chain = append(chain, kh)
	}

	session := ws.NewSession(chain,
		ws.WithURL(cfg.Session.URL),
		ws.WithReadTimeout(cfg.Session.ReadTimeout),
		ws.WithResolver(subs),
	)
	sender := session.Sender()

	if err := session.Connect(ctx); err != nil {
		return err
	}

	if cfg.Auth.Enabled() {
		if err := session.Authenticate(cfg.Auth.APIKey, cfg.Auth.APISecret, cfg.Auth.DeadManSwitch, cfg.Auth.Filters); err != nil {
			return err
		}
	}

	for i, sub := range cfg.Subscriptions {
		command, err := sub.Command()
		if err != nil {
			return fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
		if err := sender.Send(command); err != nil {
			return err
		}
	}
	logger.Infof("Queued %d subscriptions", len(cfg.Subscriptions))

	go handleSignals(ctx, func() {
		if err := sender.Close(); err != nil {
			log.WithError(err).Debug("Close not queued")
		}
	}, cancel)

	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.WithField("subscriptions", len(subs.All())).Info("Client shutdown")
	return err
}

func startMetrics(ctx context.Context, cfg config.MetricsConfig, bus events.Bus) (*metrics.Recorder, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector, err := metrics.NewSystemCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("register system collector: %w", err)
	}
	collector.Start(ctx, cfg.StatsInterval)

	recorder := metrics.NewRecorder(reg, bus)
	if err := recorder.Start(ctx); err != nil {
		return nil, err
	}

	server := metrics.NewMetricsServer(cfg.Addr, reg)
	go func() {
		if err := server.Start(ctx); err != nil {
			logger.WithField("component", "start").WithError(err).Error("Metrics server stopped")
		}
	}()
	return recorder, nil
}

// startKafka returns the running handler and the function flushing and
// stopping it together with the producer pool.
func startKafka(ctx context.Context, cfg config.KafkaConfig, recorder kafka.Recorder) (*handlers.KafkaHandler, func(), error) {
	if err := kafka.CheckClusterAvailability(cfg.Brokers, cfg.CheckTimeout); err != nil {
		return nil, nil, fmt.Errorf("kafka cluster not available: %w", err)
	}

	pool, err := kafka.NewProducerPool(kafka.ProducerConfig{
		BrokerList: cfg.Brokers,
		PoolSize:   cfg.PoolSize,
		ClientID:   cfg.ClientID,
		MaxRetries: cfg.MaxRetries,
		Recorder:   recorder,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Start(); err != nil {
		return nil, nil, err
	}

	kh := handlers.NewKafkaHandler(pool, handlers.KafkaConfig{
		TopicPrefix:      cfg.TopicPrefix,
		BufferSize:       cfg.BufferSize,
		Workers:          cfg.Workers,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerTimeout:   cfg.BreakerTimeout,
	})
	if err := kh.Start(ctx); err != nil {
		pool.Stop()
		return nil, nil, err
	}

	log := logger.WithField("component", "start")
	logger.WithFields(logger.Fields{
		"component":  "start",
		"session_id": kh.SessionID(),
		"brokers":    cfg.Brokers,
		"workers":    cfg.Workers,
	}).Info("Forwarding events to Kafka")

	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := kh.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("Kafka handler did not flush in time")
		}
		if err := pool.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop producer pool")
		}
	}
	return kh, stop, nil
}
