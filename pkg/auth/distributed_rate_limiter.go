package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DistributedRateLimiter implements rate limiting using DynamoDB as the
// state store, so limits hold across Lambda invocations and instances.
// The ledger backfill endpoint uses one: a populate run is expensive and
// must stay rare per user no matter which process serves the request.
type DistributedRateLimiter struct {
	client    *dynamodb.Client
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
}

// RateLimitEntry represents a rate limit entry in DynamoDB
type RateLimitEntry struct {
	PK        string    `dynamodbav:"PK"`
	Count     int       `dynamodbav:"Count"`
	WindowEnd time.Time `dynamodbav:"WindowEnd"`
	TTL       int64     `dynamodbav:"TTL"`
}

// NewDistributedRateLimiter creates a distributed rate limiter
func NewDistributedRateLimiter(client *dynamodb.Client, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

// Allow checks if a request is allowed under the rate limit
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		// No DynamoDB configured (local development): allow everything.
		return true, nil
	}

	now := time.Now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	pk := fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())

	// Atomically increment the window counter, but only while it is
	// below the limit.
	update := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
		},
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :incr, WindowEnd = :window_end, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":       &types.AttributeValueMemberN{Value: "0"},
			":incr":       &types.AttributeValueMemberN{Value: "1"},
			":limit":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.limit)},
			":window_end": &types.AttributeValueMemberS{Value: windowEnd.Format(time.RFC3339)},
			":ttl":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", windowEnd.Add(time.Hour).Unix())},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := r.client.UpdateItem(ctx, update)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		// Fail open on store errors to avoid blocking legitimate traffic.
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	var entry RateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Attributes, &entry); err != nil {
		return true, fmt.Errorf("failed to parse rate limit entry (failing open): %w", err)
	}

	return entry.Count <= r.limit, nil
}

// GetRemaining returns the number of requests remaining in the current window
func (r *DistributedRateLimiter) GetRemaining(ctx context.Context, key string) (int, time.Duration, error) {
	if r.client == nil {
		return r.limit, r.window, nil
	}

	now := time.Now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	pk := fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil || result.Item == nil {
		return r.limit, time.Until(windowEnd), nil
	}

	var entry RateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return r.limit, time.Until(windowEnd), fmt.Errorf("failed to parse rate limit entry: %w", err)
	}

	remaining := r.limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, time.Until(entry.WindowEnd), nil
}

// GetLimit returns the configured rate limit
func (r *DistributedRateLimiter) GetLimit() int {
	return r.limit
}

// GetWindow returns the configured time window
func (r *DistributedRateLimiter) GetWindow() time.Duration {
	return r.window
}
