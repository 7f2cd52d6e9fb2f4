// Package main implements the event worker Lambda. It ingests the
// journaling platform's entry and sentiment feeds from EventBridge and
// dispatches the matching commands.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mindrise-backend/application/commands"
	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/di"
)

// selfSource is the event source this service publishes under. Events we
// emitted ourselves already reflect applied state and must not be
// reapplied.
const selfSource = "mindrise.backend"

var container *di.Container

// entryRecordedDetail is the inbound entry feed payload
type entryRecordedDetail struct {
	UserID    string `json:"user_id"`
	EntryID   string `json:"entry_id"`
	EntryDate string `json:"entry_date"`
}

// sentimentRecordedDetail is the inbound sentiment feed payload
type sentimentRecordedDetail struct {
	UserID      string    `json:"user_id"`
	EntryID     string    `json:"entry_id"`
	ProcessedAt time.Time `json:"processed_at"`
	Score       float64   `json:"score"`
}

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	container.Logger.Info("Event worker initialized")
}

func handler(ctx context.Context, event events.CloudWatchEvent) error {
	logger := container.Logger

	if event.Source == selfSource {
		logger.Debug("skipping own event", zap.String("detailType", event.DetailType))
		return nil
	}

	switch event.DetailType {
	case "entry.recorded":
		var detail entryRecordedDetail
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			logger.Warn("unreadable entry.recorded detail", zap.Error(err))
			return nil
		}
		return container.CommandBus.Send(ctx, commands.RecordEntryDayCommand{
			UserID:    detail.UserID,
			EntryID:   detail.EntryID,
			EntryDate: detail.EntryDate,
		})

	case "sentiment.recorded":
		var detail sentimentRecordedDetail
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			logger.Warn("unreadable sentiment.recorded detail", zap.Error(err))
			return nil
		}
		if detail.ProcessedAt.IsZero() {
			detail.ProcessedAt = event.Time
		}
		return container.CommandBus.Send(ctx, commands.RecordSentimentCommand{
			UserID:      detail.UserID,
			EntryID:     detail.EntryID,
			ProcessedAt: detail.ProcessedAt,
			Score:       detail.Score,
		})

	default:
		logger.Debug("ignoring event", zap.String("detailType", event.DetailType))
		return nil
	}
}

func main() {
	lambda.Start(handler)
}
