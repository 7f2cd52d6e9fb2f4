package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/streak"
	"mindrise-backend/infrastructure/persistence/dynamodb"
)

// streakMessage is the frame pushed to live clients
type streakMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      struct {
		UserID          string `json:"user_id"`
		CurrentStreak   uint   `json:"current_streak"`
		LongestStreak   uint   `json:"longest_streak"`
		LastJournalDate string `json:"last_journal_date,omitempty"`
	} `json:"data"`
}

// Notifier pushes streak updates to a user's live WebSocket connections
// through the API Gateway management API. It implements
// ports.StreakNotifier; delivery is best effort and stale connections
// are pruned as they are discovered.
type Notifier struct {
	client      *apigatewaymanagementapi.Client
	connections *dynamodb.ConnectionStore
	logger      *zap.Logger
}

var _ ports.StreakNotifier = (*Notifier)(nil)

// NewNotifier creates a notifier for the given WebSocket endpoint
func NewNotifier(ctx context.Context, endpoint string, connections *dynamodb.ConnectionStore, logger *zap.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Notifier{
		client:      client,
		connections: connections,
		logger:      logger,
	}, nil
}

// NotifyStreak sends the user's current streak state to every live
// connection. A GoneException prunes the stale connection record; other
// send failures are logged and skipped.
func (n *Notifier) NotifyStreak(ctx context.Context, userID string, state streak.State) error {
	connectionIDs, err := n.connections.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	msg := streakMessage{
		Type:      "streak.updated",
		Timestamp: time.Now().Unix(),
	}
	msg.Data.UserID = userID
	msg.Data.CurrentStreak = state.CurrentStreak
	msg.Data.LongestStreak = state.LongestStreak
	if state.LastJournalDate != nil {
		msg.Data.LastJournalDate = state.LastJournalDate.String()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	for _, connID := range connectionIDs {
		_, err := n.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(connID),
			Data:         payload,
		})
		if err != nil {
			var gone *apigwtypes.GoneException
			if errors.As(err, &gone) {
				n.logger.Debug("pruning stale connection", zap.String("connectionID", connID))
				if delErr := n.connections.Delete(ctx, connID); delErr != nil {
					n.logger.Warn("stale connection not removed",
						zap.String("connectionID", connID),
						zap.Error(delErr),
					)
				}
				continue
			}
			n.logger.Warn("streak push failed",
				zap.String("connectionID", connID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// RequestID surfaces the Lambda request id for log correlation when the
// notifier runs inside a Lambda handler.
func RequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
