//go:build wireinject
// +build wireinject

package di

import (
	"VesselPulse/pkg/config"
	"VesselPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Core engine
		ProvideEngineConfig,
		ProvideEngine,
		ProvideValidator,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideArchive,
		ProvidePublisher,
		ProvideAISStream,

		// Use cases
		ProvideTelemetryProcessor,
		ProvideTelemetryCollector,
		ProvideKafkaPositionsHandler,

		// Push hub and application server
		ProvideHub,
		ProvideApp,
	)
	return &server.App{}, nil
}
