//go:build wireinject
// +build wireinject

package di

import (
	"TradeDesk/pkg/config"
	"TradeDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideBaseContext,
		ProvideMetrics,
		ProvideRateLimiter,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Brokerage
		ProvideBroker,
		ProvideQuoteStream,

		// Repositories
		ProvideStrategyStore,
		ProvideOrderStore,
		ProvideBacktestStore,
		ProvidePublisher,

		// Core engine
		ProvideMonitor,
		ProvideScheduler,

		// Use cases
		ProvideStrategyService,
		ProvideBacktestService,
		ProvideAccountService,
		ProvideJobQueue,

		// HTTP surface and application
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
