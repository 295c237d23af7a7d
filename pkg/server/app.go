package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/monitor"
	"TradeDesk/internal/scheduler"
	"TradeDesk/internal/usecase"
	pkgch "TradeDesk/pkg/clickhouse"
	"TradeDesk/pkg/config"
	xhttp "TradeDesk/pkg/http"
	pkgkafka "TradeDesk/pkg/kafka"
	applogger "TradeDesk/pkg/logger"
	pkgqueue "TradeDesk/pkg/queue"
)

// App encapsulates the application lifecycle: load persisted strategies,
// start the scheduler and quote stream, serve HTTP, and shut everything down
// on SIGINT/SIGTERM.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sched      *scheduler.Scheduler
	strategies *usecase.StrategyService
	mon        *monitor.Monitor

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	stream   repository.QuoteStream
	jobQueue *pkgqueue.RedisQueue
	chClient *pkgch.Client
	producer *pkgkafka.Producer
}

// New creates an App. Optional infrastructure is attached via setters.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	strategies *usecase.StrategyService,
	mon *monitor.Monitor,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		sched:      sched,
		strategies: strategies,
		mon:        mon,
	}
}

// SetHTTPHandler injects the API route registrar.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQuoteStream attaches a live quote stream feeding the position monitor.
func (a *App) SetQuoteStream(s repository.QuoteStream) { a.stream = s }

// SetJobQueue attaches the background job queue.
func (a *App) SetJobQueue(q *pkgqueue.RedisQueue) { a.jobQueue = q }

// SetClickHouse keeps the client for shutdown.
func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// SetKafkaProducer keeps the producer for shutdown.
func (a *App) SetKafkaProducer(p *pkgkafka.Producer) { a.producer = p }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.strategies.LoadPersisted(ctx); err != nil {
		a.log.Warn("strategy recovery failed", applogger.Error(err))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, 0),
	)

	if a.stream != nil {
		a.startStream(ctx)
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			a.log.Warn("job queue start error", applogger.Error(err))
		}
	}

	a.sched.Start(ctx)
	a.log.Info("scheduler started", applogger.Int("strategies", len(a.sched.List())))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startStream connects the quote stream, subscribes every configured symbol,
// and pipes quotes into the monitor. Failure is non-fatal: the monitor falls
// back to REST quote lookups.
func (a *App) startStream(ctx context.Context) {
	if err := a.stream.Connect(ctx); err != nil {
		a.log.Warn("quote stream connect error", applogger.Error(err))
		return
	}

	symbols := make([]string, 0)
	seen := make(map[string]bool)
	for _, cfg := range a.sched.List() {
		for _, sym := range cfg.Symbols {
			if !seen[sym] {
				seen[sym] = true
				symbols = append(symbols, sym)
			}
		}
	}
	if len(symbols) > 0 {
		if err := a.stream.Subscribe(ctx, symbols); err != nil {
			a.log.Warn("quote stream subscribe error", applogger.Error(err))
		}
	}

	go a.mon.ConsumeQuotes(ctx, a.stream)
	a.log.Info("quote stream attached", applogger.Strings("symbols", symbols))
}

// shutdown stops services in reverse dependency order.
func (a *App) shutdown(ctx context.Context) error {
	a.sched.Stop()

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.log.Warn("quote stream close error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
