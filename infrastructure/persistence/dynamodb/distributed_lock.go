package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "mindrise-backend/pkg/errors"
)

// DistributedLock provides advisory locking using DynamoDB conditional
// writes. Ledger backfills take a per-user lock through it so that two
// populate runs can never interleave, regardless of which process they
// land on.
type DistributedLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client *dynamodb.Client, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Acquire takes the named lock for at most ttl, implementing
// ports.LockManager. The returned release function deletes the lock item
// only when this acquisition still owns it; an expired lock that another
// process has since reclaimed is left alone.
func (dl *DistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	lockID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(ttl)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: "LOCK#" + name},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := dl.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			dl.logger.Debug("lock already held",
				zap.String("lock", name),
			)
			return nil, apperrors.NewConflictError("lock already held: " + name)
		}
		return nil, apperrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("lock acquired",
		zap.String("lock", name),
		zap.String("lockID", lockID),
		zap.Duration("ttl", ttl),
	)

	release := func(ctx context.Context) error {
		return dl.release(ctx, name, lockID)
	}
	return release, nil
}

func (dl *DistributedLock) release(ctx context.Context, name, lockID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + name},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	}

	if _, err := dl.client.DeleteItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Expired and reclaimed elsewhere; nothing to release.
			dl.logger.Warn("lock no longer owned at release",
				zap.String("lock", name),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return apperrors.NewDatabaseError("release lock", err)
	}

	dl.logger.Debug("lock released",
		zap.String("lock", name),
		zap.String("lockID", lockID),
	)
	return nil
}
