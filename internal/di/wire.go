//go:build wireinject
// +build wireinject

package di

import (
	"CrashLens/pkg/config"
	"CrashLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideMarketData,
		ProvideCandleStore,
		ProvideEventPublisher,
		ProvideSettingsStore,

		// Use cases
		ProvideAnalysisUseCase,
		ProvideScannerUseCase,
		ProvideKafkaEventsHandler,
		ProvideScanQueue,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
