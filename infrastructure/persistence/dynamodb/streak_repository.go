package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

// StreakRepository implements ports.StreakRepository using DynamoDB. One
// item per user holds the counters and the full day ledger, so a streak
// read or write is always a single-item operation.
type StreakRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewStreakRepository creates a new StreakRepository
func NewStreakRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.StreakRepository {
	return &StreakRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// streakItem represents the DynamoDB item structure for a streak
type streakItem struct {
	PK              string          `dynamodbav:"PK"`
	SK              string          `dynamodbav:"SK"`
	EntityType      string          `dynamodbav:"EntityType"`
	UserID          string          `dynamodbav:"UserID"`
	CurrentStreak   uint            `dynamodbav:"CurrentStreak"`
	LongestStreak   uint            `dynamodbav:"LongestStreak"`
	LastJournalDate string          `dynamodbav:"LastJournalDate,omitempty"`
	Days            map[string]bool `dynamodbav:"Days"`
	UpdatedAt       string          `dynamodbav:"UpdatedAt"`
	Version         int64           `dynamodbav:"Version"`
}

func streakKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		"SK": &types.AttributeValueMemberS{Value: "STREAK"},
	}
}

// Get retrieves the streak record for a user
func (r *StreakRepository) Get(ctx context.Context, userID string) (*ports.StreakRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            streakKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get streak", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("streak")
	}

	var item streakItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal streak", err)
	}

	record := &ports.StreakRecord{
		UserID: userID,
		State: streak.State{
			CurrentStreak: item.CurrentStreak,
			LongestStreak: item.LongestStreak,
		},
		Ledger:  streak.LedgerFromDays(item.Days),
		Version: item.Version,
	}
	if item.LastJournalDate != "" {
		last, err := streak.ParseDate(item.LastJournalDate)
		if err != nil {
			// A malformed stored date degrades to "no last date"; the
			// next recalculation rebuilds the counters from the ledger.
			r.logger.Warn("stored last journal date unreadable",
				zap.String("userID", userID),
				zap.String("lastJournalDate", item.LastJournalDate),
			)
		} else {
			record.State.LastJournalDate = &last
		}
	}
	return record, nil
}

// Save persists a streak record, conditional on the stored version still
// matching the one the record was read at. The version is bumped on the
// way in; a mismatch surfaces as a conflict error.
func (r *StreakRepository) Save(ctx context.Context, record *ports.StreakRecord) error {
	item := streakItem{
		PK:            fmt.Sprintf("USER#%s", record.UserID),
		SK:            "STREAK",
		EntityType:    "STREAK",
		UserID:        record.UserID,
		CurrentStreak: record.State.CurrentStreak,
		LongestStreak: record.State.LongestStreak,
		Days:          record.Ledger.Days(),
		UpdatedAt:     time.Now().Format(time.RFC3339),
		Version:       record.Version + 1,
	}
	if record.State.LastJournalDate != nil {
		item.LastJournalDate = record.State.LastJournalDate.String()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal streak", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if record.Version == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(PK) OR Version = :v")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: "0"},
		}
	} else {
		input.ConditionExpression = aws.String("Version = :v")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(record.Version, 10)},
		}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return apperrors.NewConflictError("streak modified concurrently").
				WithDetails(map[string]interface{}{"user_id": record.UserID})
		}
		return apperrors.NewDatabaseError("put streak", err)
	}

	record.Version = item.Version
	return nil
}
