package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"mindrise-backend/application/commands"
	"mindrise-backend/application/commands/bus"
	"mindrise-backend/application/ports"
	"mindrise-backend/application/queries"
	querybus "mindrise-backend/application/queries/bus"
	"mindrise-backend/domain/insight"
	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/messaging/eventbridge"
	"mindrise-backend/infrastructure/messaging/websocket"
	"mindrise-backend/infrastructure/persistence/dynamodb"
	"mindrise-backend/interfaces/http/rest"
	"mindrise-backend/interfaces/http/rest/handlers"
	"mindrise-backend/interfaces/http/rest/middleware"
	"mindrise-backend/pkg/auth"
	"mindrise-backend/pkg/observability"
)

// nudgeCacheTTLSeconds is how long a composed nudge list may be served
// from cache. Nudges depend on slow-moving history, so a short TTL only
// delays new insights by a minute.
const nudgeCacheTTLSeconds = 60

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideStreakRepository creates the streak repository
func ProvideStreakRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.StreakRepository {
	return dynamodb.NewStreakRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEntryStore creates the journal entry store
func ProvideEntryStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EntryStore {
	return dynamodb.NewEntryStore(client, cfg.DynamoDBTable, logger)
}

// ProvideSentimentStore creates the sentiment store
func ProvideSentimentStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SentimentStore {
	return dynamodb.NewSentimentStore(client, cfg.DynamoDBTable, logger)
}

// ProvideLockManager creates the advisory lock manager
func ProvideLockManager(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.LockManager {
	return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)
}

// ProvideConnectionStore creates the WebSocket connection store
func ProvideConnectionStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.ConnectionStore {
	return dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.UserIndexName, logger)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideStreakNotifier creates the WebSocket streak notifier. Without a
// configured endpoint the API runs without live pushes; the ws-send-message
// consumer still delivers them from the event feed.
func ProvideStreakNotifier(
	ctx context.Context,
	cfg *config.Config,
	connections *dynamodb.ConnectionStore,
	logger *zap.Logger,
) (ports.StreakNotifier, error) {
	if cfg.WebSocketEndpoint == "" {
		return nil, nil
	}
	return websocket.NewNotifier(ctx, cfg.WebSocketEndpoint, connections, logger)
}

// ProvideMetrics creates the metrics sink. Nil is a valid sink; every
// recording method is a no-op on it.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics(client, "MindRise", cfg.Environment, logger)
}

// ProvideTracer creates the X-Ray tracer, nil when tracing is disabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("mindrise-backend")
}

// ProvideComposer creates the nudge composer
func ProvideComposer(logger *zap.Logger) *insight.Composer {
	return insight.NewComposer(logger)
}

// ProvideDistributedRateLimiter creates the backfill rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		cfg.PopulateRateLimit,
		time.Duration(cfg.PopulateRateWindow)*time.Second,
		"POPULATE",
	)
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideRecordEntryDayHandler creates the entry day command handler
func ProvideRecordEntryDayHandler(
	streakRepo ports.StreakRepository,
	entryStore ports.EntryStore,
	publisher ports.EventPublisher,
	notifier ports.StreakNotifier,
	logger *zap.Logger,
) *commands.RecordEntryDayHandler {
	return commands.NewRecordEntryDayHandler(streakRepo, entryStore, publisher, notifier, logger)
}

// ProvideRecordSentimentHandler creates the sentiment command handler
func ProvideRecordSentimentHandler(
	sentimentStore ports.SentimentStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *commands.RecordSentimentHandler {
	return commands.NewRecordSentimentHandler(sentimentStore, publisher, logger)
}

// ProvidePopulateLedgerHandler creates the backfill command handler
func ProvidePopulateLedgerHandler(
	streakRepo ports.StreakRepository,
	entryStore ports.EntryStore,
	locks ports.LockManager,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *commands.PopulateLedgerHandler {
	return commands.NewPopulateLedgerHandler(streakRepo, entryStore, locks, publisher, logger)
}

// ProvideGetStreakHandler creates the streak query handler
func ProvideGetStreakHandler(
	streakRepo ports.StreakRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *queries.GetStreakHandler {
	return queries.NewGetStreakHandler(streakRepo, publisher, metrics, logger)
}

// ProvideGetNudgesHandler creates the nudge query handler
func ProvideGetNudgesHandler(
	streakRepo ports.StreakRepository,
	sentimentStore ports.SentimentStore,
	composer *insight.Composer,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *queries.GetNudgesHandler {
	return queries.NewGetNudgesHandler(streakRepo, sentimentStore, composer, tracer, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers. The
// typed handlers stay reachable for callers that need results; the bus
// serves fire-and-forget dispatch, chiefly the event worker.
func ProvideCommandBus(
	recordEntry *commands.RecordEntryDayHandler,
	recordSentiment *commands.RecordSentimentHandler,
	populate *commands.PopulateLedgerHandler,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()
	logging := bus.LoggingMiddleware(logger)

	commandBus.Register(commands.RecordEntryDayCommand{}, logging(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			entryCmd, ok := cmd.(commands.RecordEntryDayCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := recordEntry.Handle(ctx, entryCmd)
			return err
		},
	}))

	commandBus.Register(commands.RecordSentimentCommand{}, logging(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			sentimentCmd, ok := cmd.(commands.RecordSentimentCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return recordSentiment.Handle(ctx, sentimentCmd)
		},
	}))

	commandBus.Register(commands.PopulateLedgerCommand{}, logging(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			populateCmd, ok := cmd.(commands.PopulateLedgerCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			_, err := populate.Handle(ctx, populateCmd)
			return err
		},
	}))

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	getStreak *queries.GetStreakHandler,
	getNudges *queries.GetNudgesHandler,
	cache ports.Cache,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()
	logging := querybus.LoggingMiddleware(logger)

	queryBus.Register(queries.GetStreakQuery{}, logging(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			streakQuery, ok := query.(queries.GetStreakQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getStreak.Handle(ctx, streakQuery)
		},
	}))

	// Nudges are served through a short cache: composition fans out five
	// analyzers over up to 90 days of history per call.
	caching := querybus.NewCachingMiddleware(cache, nudgeCacheTTLSeconds)
	queryBus.Register(queries.GetNudgesQuery{}, logging(caching.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			nudgesQuery, ok := query.(queries.GetNudgesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getNudges.Handle(ctx, nudgesQuery)
		},
	})))

	return queryBus
}

// ProvideAuthMiddleware creates the authentication middleware
func ProvideAuthMiddleware(cfg *config.Config, logger *zap.Logger) (*middleware.AuthMiddleware, error) {
	return middleware.NewAuthMiddleware(cfg, logger)
}

// ProvideEntryHandler creates the entry REST handler
func ProvideEntryHandler(recordEntry *commands.RecordEntryDayHandler, logger *zap.Logger) *handlers.EntryHandler {
	return handlers.NewEntryHandler(recordEntry, logger)
}

// ProvideStreakHandler creates the streak REST handler
func ProvideStreakHandler(
	queryBus *querybus.QueryBus,
	populate *commands.PopulateLedgerHandler,
	populateLimit *auth.DistributedRateLimiter,
	logger *zap.Logger,
) *handlers.StreakHandler {
	return handlers.NewStreakHandler(queryBus, populate, populateLimit, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	queryBus *querybus.QueryBus,
	entryHandler *handlers.EntryHandler,
	streakHandler *handlers.StreakHandler,
	authMW *middleware.AuthMiddleware,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(queryBus, entryHandler, streakHandler, authMW, logger)
}
