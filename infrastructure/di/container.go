package di

import (
	"mindrise-backend/application/commands"
	"mindrise-backend/application/commands/bus"
	"mindrise-backend/application/ports"
	querybus "mindrise-backend/application/queries/bus"
	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/persistence/dynamodb"
	"mindrise-backend/interfaces/http/rest"
	"mindrise-backend/pkg/auth"
	"mindrise-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	StreakRepo     ports.StreakRepository
	EntryStore     ports.EntryStore
	SentimentStore ports.SentimentStore
	Locks          ports.LockManager
	Connections    *dynamodb.ConnectionStore
	EventPublisher ports.EventPublisher
	Notifier       ports.StreakNotifier
	RecordEntry    *commands.RecordEntryDayHandler
	Populate       *commands.PopulateLedgerHandler
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Cache          ports.Cache
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
	RateLimiter    *auth.DistributedRateLimiter
	Router         *rest.Router
}
