//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"mindrise-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideStreakRepository,
	ProvideEntryStore,
	ProvideSentimentStore,
	ProvideLockManager,
	ProvideConnectionStore,
	ProvideEventPublisher,
	ProvideStreakNotifier,
	ProvideMetrics,
	ProvideTracer,
	ProvideComposer,
	ProvideDistributedRateLimiter,
	ProvideInMemoryCache,
	ProvideRecordEntryDayHandler,
	ProvideRecordSentimentHandler,
	ProvidePopulateLedgerHandler,
	ProvideGetStreakHandler,
	ProvideGetNudgesHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideAuthMiddleware,
	ProvideEntryHandler,
	ProvideStreakHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
