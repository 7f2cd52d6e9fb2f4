package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindrise-backend/infrastructure/config"
	"mindrise-backend/infrastructure/di"
)

// Global variables for Lambda lifecycle management
var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	handler := container.Router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 500 && container != nil && container.Logger != nil {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	return resp, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
