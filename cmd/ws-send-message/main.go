// Package main implements the streak push Lambda. It consumes the domain
// event feed and forwards the affected user's current streak state to
// their live WebSocket connections.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/streak"
	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/messaging/websocket"
	"mindrise-backend/infrastructure/persistence/dynamodb"
)

var (
	logger     *zap.Logger
	streakRepo ports.StreakRepository
	notifier   *websocket.Notifier
)

// streakEventDetail is the slice of any streak-bearing event we care
// about: only the user matters, the state is re-read from the store.
type streakEventDetail struct {
	UserID string `json:"user_id"`
}

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.WebSocketEndpoint == "" {
		log.Fatal("WEBSOCKET_ENDPOINT is required")
	}

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	client := awsdynamodb.NewFromConfig(awsCfg)
	streakRepo = dynamodb.NewStreakRepository(client, cfg.DynamoDBTable, logger)
	connections := dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.UserIndexName, logger)

	notifier, err = websocket.NewNotifier(ctx, cfg.WebSocketEndpoint, connections, logger)
	if err != nil {
		logger.Fatal("Failed to build notifier", zap.Error(err))
	}

	logger.Info("Streak push handler initialized")
}

func handler(ctx context.Context, event events.CloudWatchEvent) error {
	switch event.DetailType {
	case "entry.recorded", "streak.corrected", "ledger.populated":
	default:
		logger.Debug("ignoring event",
			zap.String("detailType", event.DetailType),
			zap.String("requestID", websocket.RequestID(ctx)),
		)
		return nil
	}

	var detail streakEventDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		logger.Warn("unreadable event detail",
			zap.String("detailType", event.DetailType),
			zap.Error(err),
		)
		return nil
	}
	if detail.UserID == "" {
		return nil
	}

	// The event payload carries counters too, but the store is the
	// authority: events can arrive out of order.
	record, err := streakRepo.Get(ctx, detail.UserID)
	if err != nil {
		logger.Error("streak read failed",
			zap.String("userID", detail.UserID),
			zap.Error(err),
		)
		return err
	}

	var state streak.State
	if record != nil {
		state = record.State
	}

	if err := notifier.NotifyStreak(ctx, detail.UserID, state); err != nil {
		logger.Error("streak push failed",
			zap.String("userID", detail.UserID),
			zap.String("requestID", websocket.RequestID(ctx)),
			zap.Error(err),
		)
		return err
	}

	logger.Info("streak pushed",
		zap.String("userID", detail.UserID),
		zap.String("trigger", event.DetailType),
		zap.Uint("currentStreak", uint(state.CurrentStreak)),
	)
	return nil
}

func main() {
	lambda.Start(handler)
}
