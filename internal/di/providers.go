package di

import (
	"context"
	"fmt"
	"time"

	"VesselPulse/internal/domain/repository"
	"VesselPulse/internal/engine"
	"VesselPulse/internal/handler/ws"
	mid "VesselPulse/internal/middleware"
	internalrepo "VesselPulse/internal/repository"
	"VesselPulse/internal/service/aisstream"
	svcmetrics "VesselPulse/internal/service/metrics"
	"VesselPulse/internal/usecase"
	"VesselPulse/pkg/cache"
	pkgch "VesselPulse/pkg/clickhouse"
	"VesselPulse/pkg/config"
	pkgkafka "VesselPulse/pkg/kafka"
	pkgmetrics "VesselPulse/pkg/metrics"
	"VesselPulse/pkg/server"
)

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return pkgmetrics.NewRecorder()
}

// ProvideEngineConfig maps YAML engine settings onto engine defaults.
func ProvideEngineConfig(cfg *config.Config) engine.Config {
	ec := engine.Defaults()
	if cfg.Engine.WindowDuration > 0 {
		ec.WindowDuration = cfg.Engine.WindowDuration
	}
	if cfg.Engine.EvictionInterval > 0 {
		ec.EvictionInterval = cfg.Engine.EvictionInterval
	}
	if cfg.Engine.SpeedThresholds.Moderate > 0 {
		ec.SpeedThresholds = engine.SpeedThresholds{
			Stationary: cfg.Engine.SpeedThresholds.Stationary,
			Slow:       cfg.Engine.SpeedThresholds.Slow,
			Moderate:   cfg.Engine.SpeedThresholds.Moderate,
		}
	}
	if cfg.Engine.TrendEpsilon > 0 {
		ec.TrendEpsilon = cfg.Engine.TrendEpsilon
	}
	if cfg.Engine.OutOfOrder != "" {
		ec.OutOfOrder = engine.OutOfOrderPolicy(cfg.Engine.OutOfOrder)
	}
	if cfg.Engine.SpeedPolicy != "" {
		ec.SpeedPolicy = engine.SpeedPolicy(cfg.Engine.SpeedPolicy)
	}
	if cfg.Engine.CourseHandling != "" {
		ec.CourseHandling = engine.CourseHandling(cfg.Engine.CourseHandling)
	}
	ec.RetainEmpty = cfg.Engine.RetainEmpty
	return ec
}

// ProvideEngine creates the aggregation engine. Fails fast on an invalid
// configuration before any record is accepted.
func ProvideEngine(ec engine.Config, m repository.Metrics) (*engine.Engine, error) {
	eng, err := engine.New(ec,
		engine.WithMetrics(m),
		engine.WithObserver(svcmetrics.NewEngineObserver()),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return eng, nil
}

// ProvideValidator creates a standalone record validator for the transport
// paths that need a TelemetryRecord outside the engine.
func ProvideValidator(ec engine.Config) *engine.Validator {
	return engine.NewValidator(ec.SpeedPolicy)
}

// ProvideClickHouseClient creates a ClickHouse client when the archive is
// enabled; otherwise the app runs without one.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Archive.Host),
		pkgch.WithPort(cfg.Archive.Port),
		pkgch.WithDatabase(cfg.Archive.Database),
		pkgch.WithCredentials(cfg.Archive.User, cfg.Archive.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.Archive.UseHTTP),
		pkgch.WithAsyncInsert(cfg.Archive.AsyncInsert, cfg.Archive.WaitForAsync),
		pkgch.WithTimeouts(cfg.Archive.DialTimeout, cfg.Archive.ReadTimeout, cfg.Archive.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.Archive.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.Archive.Database)},
		internalrepo.ArchiveSchema(cfg.Archive.Database+".vessel_positions")...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the ClickHouse archive repository.
func ProvideArchive(chClient *pkgch.Client, cfg *config.Config) repository.Archive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseArchive(chClient.DB(), cfg.Archive.Database+".vessel_positions")
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPositionsHandler registers the handler for the positions topic.
func ProvideKafkaPositionsHandler(
	eng *engine.Engine,
	archive repository.Archive,
	metrics repository.Metrics,
	validator *engine.Validator,
	cfg *config.Config,
) *usecase.KafkaPositionsHandler {
	return usecase.NewKafkaPositionsHandler(cfg.Kafka.Topic, eng, archive, metrics, validator)
}

// ProvideAISStream creates the aisstream.io WebSocket client.
func ProvideAISStream(cfg *config.Config) repository.TelemetryStream {
	if !cfg.Stream.Enabled {
		return nil
	}
	return aisstream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.BoundingBox,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideTelemetryProcessor creates the backend-routing processor.
func ProvideTelemetryProcessor(
	eng *engine.Engine,
	pub repository.Publisher,
	archive repository.Archive,
	metrics repository.Metrics,
	validator *engine.Validator,
	cfg *config.Config,
) *usecase.TelemetryProcessor {
	return usecase.NewTelemetryProcessor(
		eng,
		pub,
		archive,
		metrics,
		validator,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTelemetryCollector creates the stream collector with the realtime
// pipeline in front of the processor.
func ProvideTelemetryCollector(
	stream repository.TelemetryStream,
	processor *usecase.TelemetryProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TelemetryCollector {
	if stream == nil {
		return nil
	}
	maxRPS := cfg.Stream.MaxRPS
	if maxRPS <= 0 {
		maxRPS = 50
	}
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTelemetryCollector(stream, processor, metrics, pipe)
}

// ProvideCache builds the fleet snapshot cache: layered when Redis is
// configured, plain memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideHub creates the snapshot push hub.
func ProvideHub(eng *engine.Engine, cfg *config.Config) *ws.Hub {
	if !cfg.Push.Enabled {
		return nil
	}
	interval := cfg.Push.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return ws.New(eng, interval)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	eng *engine.Engine,
	collector *usecase.TelemetryCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPositionsHandler,
	chClient *pkgch.Client,
	hub *ws.Hub,
	cacheSvc cache.Service,
	processor *usecase.TelemetryProcessor,
	producer *pkgkafka.Producer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, eng, collector, consumer, kh, chClient, hub)
	app.SetCache(cacheSvc)
	app.Proc = processor
	if producer != nil {
		app.SetLogShipper(producer)
	}
	return app
}
