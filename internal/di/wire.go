//go:build wireinject

package di

import (
	"github.com/google/wire"

	"nabot/internal/adapter/logging"
	"nabot/internal/app"
	"nabot/internal/config"
	"nabot/internal/domain/ports"
	"nabot/internal/transport"
	"nabot/internal/usecase"
)

// InitializeApp wires the listing watcher together from an already loaded config.
func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(
		provideSlogLogger,
		logging.New,
		wire.Bind(new(ports.Logger), new(*logging.SLogger)),
		provideLimiter,
		provideListingProvider,
		provideNotifier,
		provideReporter,
		provideDigestConfig,
		usecase.NewListingDigest,
		wire.Bind(new(app.Runner), new(*usecase.ListingDigest)),
		provideSchedule,
		app.New,
	)
	return nil, nil
}

// InitializeSimulation wires the transport run and its GIF outputs.
func InitializeSimulation(cfg *config.Simulation) (*transport.Simulation, error) {
	wire.Build(
		provideSimSlogLogger,
		logging.New,
		wire.Bind(new(ports.Logger), new(*logging.SLogger)),
		provideMesh,
		provideFrames,
		provideParams,
		provideProgress,
		transport.New,
	)
	return nil, nil
}
