package di

import (
	"context"
	"fmt"
	"time"

	"TradeDesk/internal/broker/alpaca"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/handler/api"
	"TradeDesk/internal/monitor"
	internalrepo "TradeDesk/internal/repository"
	"TradeDesk/internal/scheduler"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	"TradeDesk/pkg/cache"
	pkgch "TradeDesk/pkg/clickhouse"
	"TradeDesk/pkg/config"
	xhttp "TradeDesk/pkg/http"
	pkgkafka "TradeDesk/pkg/kafka"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/metrics"
	pkgqueue "TradeDesk/pkg/queue"
	"TradeDesk/pkg/server"
)

// ProvideLogger creates the application logger. Production gets JSON, all
// other environments console output.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideBaseContext is the root context for long-lived loops started over
// the API.
func ProvideBaseContext() context.Context {
	return context.Background()
}

// ProvideRedisCache connects to Redis, nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideCache creates the shared cache: a memory layer over Redis when Redis
// is enabled, in-process only otherwise.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// trading schema. Returns nil when ClickHouse is disabled.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates the order-event producer, nil when disabled.
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
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
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

// ProvideMetrics creates the Prometheus trading metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the shared REST rate limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideBroker creates the Alpaca REST client.
func ProvideBroker(cfg *config.Config, limiter *ratelimit.Limiter, log *applogger.Logger) repository.Broker {
	return alpaca.NewClient(alpaca.Config{
		BaseURL: cfg.Alpaca.BaseURL,
		DataURL: cfg.Alpaca.DataURL,
		Feed:    cfg.Alpaca.Feed,
		Key:     cfg.Alpaca.Key,
		Secret:  cfg.Alpaca.Secret,
		Timeout: cfg.Alpaca.Timeout,
	}, limiter, log)
}

// ProvideQuoteStream creates the live quote websocket, nil when disabled.
func ProvideQuoteStream(cfg *config.Config, log *applogger.Logger) repository.QuoteStream {
	if !cfg.Stream.Enabled || cfg.Alpaca.StreamURL == "" {
		return nil
	}
	return alpaca.NewStream(alpaca.StreamConfig{
		URL:          cfg.Alpaca.StreamURL,
		Key:          cfg.Alpaca.Key,
		Secret:       cfg.Alpaca.Secret,
		PingInterval: cfg.Stream.PingInterval,
	}, log)
}

// ProvideMonitor creates the position monitor.
func ProvideMonitor(broker repository.Broker, log *applogger.Logger) *monitor.Monitor {
	return monitor.New(broker, log)
}

// ProvideStrategyStore persists strategy configs in the cache backend.
func ProvideStrategyStore(c cache.Service) repository.StrategyStore {
	return internalrepo.NewRedisStrategyStore(c)
}

// ProvideOrderStore creates the ClickHouse order log, nil without ClickHouse.
func ProvideOrderStore(ch *pkgch.Client) repository.OrderStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseOrderStore(ch.DB(), "")
}

// ProvideBacktestStore creates the ClickHouse backtest archive, nil without
// ClickHouse.
func ProvideBacktestStore(ch *pkgch.Client) repository.BacktestStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseBacktestStore(ch.DB(), "")
}

// ProvidePublisher creates the Kafka order-event publisher, nil without a
// producer.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideScheduler creates the strategy execution engine.
func ProvideScheduler(
	cfg *config.Config,
	broker repository.Broker,
	mon *monitor.Monitor,
	orders repository.OrderStore,
	pub repository.Publisher,
	m repository.Metrics,
	bars cache.Service,
	log *applogger.Logger,
) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		MonitorInterval: cfg.Scheduler.MonitorInterval,
		HistoryDays:     cfg.Scheduler.HistoryDays,
		BarCacheTTL:     cfg.Scheduler.BarCacheTTL,
	}, broker, mon, orders, pub, m, bars, log)
}

// ProvideStrategyService creates the strategy lifecycle usecase.
func ProvideStrategyService(sched *scheduler.Scheduler, store repository.StrategyStore, log *applogger.Logger) *usecase.StrategyService {
	return usecase.NewStrategyService(sched, store, log)
}

// ProvideBacktestService creates the backtest usecase.
func ProvideBacktestService(broker repository.Broker, store repository.BacktestStore, log *applogger.Logger) *usecase.BacktestService {
	return usecase.NewBacktestService(broker, store, log)
}

// ProvideAccountService creates the account passthrough usecase.
func ProvideAccountService(broker repository.Broker, orders repository.OrderStore, log *applogger.Logger) *usecase.AccountService {
	return usecase.NewAccountService(broker, orders, log)
}

// ProvideJobQueue creates the Redis-backed background job queue with the
// backtest runner registered. Requires Redis; nil otherwise.
func ProvideJobQueue(cfg *config.Config, rc *cache.RedisCache, backtests *usecase.BacktestService, log *applogger.Logger) *pkgqueue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := pkgqueue.NewRedisQueue(log, &pkgqueue.QueueConfig{
		Workers:    2,
		RetryLimit: 1,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), pkgqueue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewBacktestJob(backtests, log))
	return q
}

// ProvideHTTPHandler assembles the API surface.
func ProvideHTTPHandler(
	log *applogger.Logger,
	baseCtx context.Context,
	sched *scheduler.Scheduler,
	strategies *usecase.StrategyService,
	backtests *usecase.BacktestService,
	account *usecase.AccountService,
	jobQueue *pkgqueue.RedisQueue,
) xhttp.Handler {
	var jobs pkgqueue.QueueService
	if jobQueue != nil {
		jobs = jobQueue
	}
	return xhttp.Handlers{
		api.NewStrategiesHandler(log, strategies),
		api.NewSchedulerHandler(log, sched, baseCtx),
		api.NewBacktestsHandler(log, backtests, jobs),
		api.NewAccountHandler(log, account),
	}
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	strategies *usecase.StrategyService,
	mon *monitor.Monitor,
	handler xhttp.Handler,
	stream repository.QuoteStream,
	jobQueue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, log, sched, strategies, mon)
	app.SetHTTPHandler(handler)
	if stream != nil {
		app.SetQuoteStream(stream)
	}
	if jobQueue != nil {
		app.SetJobQueue(jobQueue)
	}
	if chClient != nil {
		app.SetClickHouse(chClient)
	}
	if producer != nil {
		app.SetKafkaProducer(producer)
	}
	return app
}
