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
	"mindrise-backend/domain/insight"
	apperrors "mindrise-backend/pkg/errors"
)

// SentimentStore implements ports.SentimentStore using DynamoDB.
// Sentiment items sort under the user partition by processing time
// (SENTIMENT#<rfc3339nano>), which makes the windowed reads the
// analyzers need a single range query.
type SentimentStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSentimentStore creates a new SentimentStore
func NewSentimentStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SentimentStore {
	return &SentimentStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// sentimentItem represents the DynamoDB item structure for a sentiment
// record
type sentimentItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	UserID      string  `dynamodbav:"UserID"`
	ProcessedAt string  `dynamodbav:"ProcessedAt"`
	Score       float64 `dynamodbav:"Score"`
}

// sentimentTimeLayout is fixed-width so the SK sorts lexicographically
// in time order; RFC3339Nano trims trailing zeros and would not.
const sentimentTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sentimentSK(t time.Time) string {
	return "SENTIMENT#" + t.UTC().Format(sentimentTimeLayout)
}

// Save persists a scored entry
func (s *SentimentStore) Save(ctx context.Context, record *insight.SentimentRecord) error {
	item := sentimentItem{
		PK:          fmt.Sprintf("USER#%s", record.UserID),
		SK:          sentimentSK(record.ProcessedAt),
		EntityType:  "SENTIMENT",
		UserID:      record.UserID,
		ProcessedAt: record.ProcessedAt.UTC().Format(sentimentTimeLayout),
		Score:       record.Score,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal sentiment", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewDatabaseError("put sentiment", err)
	}
	return nil
}

// ListSince retrieves a user's scores processed at or after the cutoff,
// ascending by time.
func (s *SentimentStore) ListSince(ctx context.Context, userID string, since time.Time) ([]insight.SentimentRecord, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").GreaterThanEqual(expression.Value(sentimentSK(since))))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build sentiment query", err)
	}

	var records []insight.SentimentRecord
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
			return nil, apperrors.NewDatabaseError("query sentiments", err)
		}

		for _, raw := range out.Items {
			var item sentimentItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("skipping unreadable sentiment item",
					zap.String("userID", userID),
					zap.Error(err),
				)
				continue
			}
			processedAt, err := time.Parse(time.RFC3339Nano, item.ProcessedAt)
			if err != nil {
				s.logger.Warn("skipping sentiment with malformed timestamp",
					zap.String("userID", userID),
					zap.String("processedAt", item.ProcessedAt),
				)
				continue
			}
			records = append(records, insight.SentimentRecord{
				UserID:      item.UserID,
				ProcessedAt: processedAt,
				Score:       item.Score,
			})
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return records, nil
}
