package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	UserIndexName string // GSI - connection lookups by user
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string
	ConnectionsTable  string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Rate limiting (backfill endpoint)
	PopulateRateLimit  int
	PopulateRateWindow int // seconds

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "mindrise")),
		UserIndexName: getEnv("USER_INDEX_NAME", "UserIndex"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "mindrise-events"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// WebSocket configuration
		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", "mindrise-connections"),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "mindrise-backend"),

		// Rate limiting
		PopulateRateLimit:  getEnvInt("POPULATE_RATE_LIMIT", 3),
		PopulateRateWindow: getEnvInt("POPULATE_RATE_WINDOW", 3600),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}
	if c.PopulateRateLimit <= 0 || c.PopulateRateWindow <= 0 {
		return fmt.Errorf("populate rate limit and window must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
