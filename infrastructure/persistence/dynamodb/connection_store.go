package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	apperrors "mindrise-backend/pkg/errors"
)

// connectionTTL is how long a stale WebSocket connection record lingers
// before DynamoDB expires it.
const connectionTTL = 2 * time.Hour

// Connection is one live WebSocket connection for a user
type Connection struct {
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

// ConnectionStore tracks live WebSocket connections in DynamoDB, keyed
// by connection ID with a GSI for lookups by user.
type ConnectionStore struct {
	client        *dynamodb.Client
	tableName     string
	userIndexName string
	logger        *zap.Logger
}

// NewConnectionStore creates a new ConnectionStore
func NewConnectionStore(client *dynamodb.Client, tableName, userIndexName string, logger *zap.Logger) *ConnectionStore {
	return &ConnectionStore{
		client:        client,
		tableName:     tableName,
		userIndexName: userIndexName,
		logger:        logger,
	}
}

// Put registers a connection for a user
func (s *ConnectionStore) Put(ctx context.Context, connectionID, userID string) error {
	now := time.Now()
	av, err := attributevalue.MarshalMap(Connection{
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  now.Format(time.RFC3339),
		TTL:          now.Add(connectionTTL).Unix(),
	})
	if err != nil {
		return apperrors.NewDatabaseError("marshal connection", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.NewDatabaseError("put connection", err)
	}
	return nil
}

// Delete removes a connection record
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"ConnectionID": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	if err != nil {
		return apperrors.NewDatabaseError("delete connection", err)
	}
	return nil
}

// ListByUser retrieves the live connection IDs for a user
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]string, error) {
	keyCond := expression.Key("UserID").Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build connection query", err)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.userIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("query connections", err)
	}

	ids := make([]string, 0, len(out.Items))
	for _, raw := range out.Items {
		var conn Connection
		if err := attributevalue.UnmarshalMap(raw, &conn); err != nil {
			s.logger.Warn("skipping unreadable connection item", zap.Error(err))
			continue
		}
		ids = append(ids, conn.ConnectionID)
	}
	return ids, nil
}
