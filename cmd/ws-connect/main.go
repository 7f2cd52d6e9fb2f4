// Package main implements the WebSocket connect/disconnect Lambda. It
// authenticates the connecting client and tracks the connection so streak
// updates can be pushed to it later.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/persistence/dynamodb"
	"mindrise-backend/pkg/auth"
)

var (
	logger      *zap.Logger
	connections *dynamodb.ConnectionStore
	validator   *auth.JWTValidator
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	client := awsdynamodb.NewFromConfig(awsCfg)
	connections = dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.UserIndexName, logger)

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		logger.Fatal("Failed to build token validator", zap.Error(err))
	}

	logger.Info("WebSocket connect handler initialized")
}

func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID

	switch request.RequestContext.RouteKey {
	case "$disconnect":
		if err := connections.Delete(ctx, connectionID); err != nil {
			logger.Warn("connection record not removed",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
		}
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil

	default:
		// Browsers cannot set headers on the WebSocket handshake, so the
		// token arrives as a query parameter.
		token := request.QueryStringParameters["token"]
		if token == "" {
			token = request.Headers["Authorization"]
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			logger.Debug("connection rejected",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusUnauthorized,
				Body:       `{"error": "unauthorized"}`,
			}, nil
		}

		if err := connections.Put(ctx, connectionID, claims.UserID); err != nil {
			logger.Error("connection record not stored",
				zap.String("connectionID", connectionID),
				zap.String("userID", claims.UserID),
				zap.Error(err),
			)
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Body:       `{"error": "internal server error"}`,
			}, nil
		}

		logger.Info("WebSocket connection established",
			zap.String("connectionID", connectionID),
			zap.String("userID", claims.UserID),
		)

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":      "connection_established",
			"timestamp": time.Now().Unix(),
		})
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Body:       string(welcome),
		}, nil
	}
}

func main() {
	lambda.Start(handler)
}
