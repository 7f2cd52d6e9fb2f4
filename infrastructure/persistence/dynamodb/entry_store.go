package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

// EntryStore implements ports.EntryStore using DynamoDB. Entry items sort
// under the user partition as ENTRY#<date>#<id>, so the full date history
// comes back in ascending order from a single key-condition query.
type EntryStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEntryStore creates a new EntryStore
func NewEntryStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.EntryStore {
	return &EntryStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// entryItem represents the DynamoDB item structure for a journal entry
// reference
type entryItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EntryID    string `dynamodbav:"EntryID"`
	UserID     string `dynamodbav:"UserID"`
	EntryDate  string `dynamodbav:"EntryDate"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// Save persists an entry reference
func (s *EntryStore) Save(ctx context.Context, entry *ports.Entry) error {
	item := entryItem{
		PK:         fmt.Sprintf("USER#%s", entry.UserID),
		SK:         fmt.Sprintf("ENTRY#%s#%s", entry.EntryDate.String(), entry.EntryID),
		EntityType: "ENTRY",
		EntryID:    entry.EntryID,
		UserID:     entry.UserID,
		EntryDate:  entry.EntryDate.String(),
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal entry", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewDatabaseError("put entry", err)
	}
	return nil
}

// ListDates retrieves all distinct entry dates for a user in ascending
// order, paging through the partition.
func (s *EntryStore) ListDates(ctx context.Context, userID string) ([]streak.Date, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("ENTRY#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build entry query", err)
	}

	var dates []streak.Date
	var lastDate string
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
			ScanIndexForward:          aws.Bool(true),
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("query entries", err)
		}

		for _, raw := range out.Items {
			var item entryItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("skipping unreadable entry item",
					zap.String("userID", userID),
					zap.Error(err),
				)
				continue
			}
			if item.EntryDate == lastDate {
				continue
			}
			d, err := streak.ParseDate(item.EntryDate)
			if err != nil {
				s.logger.Warn("skipping entry with malformed date",
					zap.String("userID", userID),
					zap.String("entryDate", item.EntryDate),
				)
				continue
			}
			dates = append(dates, d)
			lastDate = item.EntryDate
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return dates, nil
}
