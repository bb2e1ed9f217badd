package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"CrashLens/internal/domain/repository"
	"CrashLens/internal/handler/api"
	internalrepo "CrashLens/internal/repository"
	"CrashLens/internal/service/ratelimit"
	"CrashLens/internal/service/yahoo"
	"CrashLens/internal/usecase"
	"CrashLens/pkg/cache"
	pkgch "CrashLens/pkg/clickhouse"
	"CrashLens/pkg/config"
	pkgkafka "CrashLens/pkg/kafka"
	applogger "CrashLens/pkg/logger"
	"CrashLens/pkg/metrics"
	pkgqueue "CrashLens/pkg/queue"
	"CrashLens/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the cache service: layered memory-over-Redis when
// Redis is enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}

	c, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(c), nil
}

// ProvideClickHouseClient creates a ClickHouse client, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates the ClickHouse-backed store, nil when disabled.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) repository.CandleStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHCandleStore(chClient)
	if s, ok := store.(interface{ SetLogger(*applogger.Logger) }); ok {
		s.SetLogger(l)
	}
	return store
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
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

// ProvideEventPublisher creates the Kafka event publisher, nil when disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer, nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
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

// ProvideKafkaEventsHandler registers the handler for the events topic; nil
// when there is no store to mirror into.
func ProvideKafkaEventsHandler(store repository.CandleStore, m repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if store == nil || !cfg.Kafka.Consumer.Enabled {
		return nil
	}
	return usecase.NewKafkaEventsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideMarketData creates the Yahoo candle provider.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return yahoo.New(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout)
}

// ProvideSettingsStore creates the per-profile settings store.
func ProvideSettingsStore(c cache.Service) repository.SettingsStore {
	return internalrepo.NewCacheSettingsStore(c)
}

// ProvideAnalysisUseCase creates the pipeline orchestrator.
func ProvideAnalysisUseCase(
	market repository.MarketData,
	store repository.CandleStore,
	publisher repository.EventPublisher,
	settings repository.SettingsStore,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(market, store, publisher, settings, c, m, l, cfg.Yahoo.CacheTTL)
}

// ProvideScannerUseCase creates the watchlist scanner.
func ProvideScannerUseCase(analysis *usecase.AnalysisUseCase, l *applogger.Logger, cfg *config.Config) *usecase.ScannerUseCase {
	return usecase.NewScannerUseCase(
		analysis,
		ratelimit.New(),
		l,
		cfg.Scanner.Symbols,
		repository.NormalizeRange(cfg.Scanner.Range),
		cfg.Scanner.Workers,
		cfg.Scanner.FetchPerSec,
	)
}

// ProvideRedisClient creates a shared Redis client for the job queue, nil
// when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideScanQueue creates the background scan queue, nil when Redis is
// disabled.
func ProvideScanQueue(l *applogger.Logger, client *redis.Client, scanner *usecase.ScannerUseCase) *pkgqueue.RedisQueue {
	if client == nil {
		return nil
	}
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{Workers: 2, RetryLimit: 3}, client)
	q.RegisterJob(usecase.NewScanJob(scanner))
	return q
}

// ProvideHTTPHandler creates the echo route handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analysis *usecase.AnalysisUseCase,
	scanner *usecase.ScannerUseCase,
	settings repository.SettingsStore,
	q *pkgqueue.RedisQueue,
) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(l, analysis, scanner, settings)
	if q != nil {
		h.SetQueue(q)
	}
	return h
}

// logPublisher adapts the Kafka producer to the log collector sink.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisEchoHandler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	store repository.CandleStore,
	publisher repository.EventPublisher,
	producer *pkgkafka.Producer,
	q *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, handler, consumer, kh, chClient)
	if store != nil {
		app.OnInit(store.Init)
	}
	if publisher != nil {
		app.OnClose(publisher.Close)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      logPublisher{producer: producer},
		})
		app.OnClose(func() error {
			l.RemoveCollector()
			return nil
		})
	}
	if q != nil {
		app.SetQueue(q)
	}
	return app
}
