package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandBus dispatches commands to their handlers
type CommandBus struct {
	handlers map[reflect.Type]CommandHandler
	mu       sync.RWMutex
}

// NewCommandBus creates a new command bus
func NewCommandBus() *CommandBus {
	return &CommandBus{
		handlers: make(map[reflect.Type]CommandHandler),
	}
}

// Register registers a handler for a command type
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}

	b.handlers[t] = handler
	return nil
}

// Send dispatches a command to its handler
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for command type %T", cmd)
	}

	if err := handler.Handle(ctx, cmd); err != nil {
		return fmt.Errorf("command handler failed: %w", err)
	}

	return nil
}

// Middleware defines command middleware
type Middleware func(next CommandHandler) CommandHandler

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// LoggingMiddleware logs command execution
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			cmdType := reflect.TypeOf(cmd).Name()
			logger.Info("executing command", zap.String("type", cmdType))

			err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Error("command failed", zap.String("type", cmdType), zap.Error(err))
			} else {
				logger.Info("command succeeded", zap.String("type", cmdType))
			}

			return err
		})
	}
}

// ValidationMiddleware ensures commands are valid
func ValidationMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			if err := cmd.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return next.Handle(ctx, cmd)
		})
	}
}

// Pipeline chains multiple middleware together
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{
		middlewares: middlewares,
	}
}

// Execute runs the command through the pipeline
func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	// Apply middleware in reverse order
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		handler = p.middlewares[i](handler)
	}
	return handler
}

// Errors
var (
	ErrHandlerNotFound  = errors.New("command handler not found")
	ErrValidationFailed = errors.New("command validation failed")
)
