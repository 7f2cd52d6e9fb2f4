package commands

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/insight"
	apperrors "mindrise-backend/pkg/errors"
)

// RecordSentimentCommand persists one sentiment score from the external
// analysis pipeline
type RecordSentimentCommand struct {
	UserID      string    `json:"user_id" validate:"required"`
	EntryID     string    `json:"entry_id" validate:"required"`
	ProcessedAt time.Time `json:"processed_at" validate:"required"`
	Score       float64   `json:"score" validate:"gte=-1,lte=1"`
}

// Validate validates the command. Out-of-range scores are rejected, not
// silently clamped.
func (cmd RecordSentimentCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if cmd.ProcessedAt.IsZero() {
		return errors.New("processed_at is required")
	}
	if cmd.Score < -1 || cmd.Score > 1 {
		return errors.New("score must be within [-1, 1]")
	}
	return nil
}

// RecordSentimentHandler handles the RecordSentimentCommand
type RecordSentimentHandler struct {
	sentimentStore ports.SentimentStore
	eventBus       ports.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewRecordSentimentHandler creates a new handler instance
func NewRecordSentimentHandler(
	sentimentStore ports.SentimentStore,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *RecordSentimentHandler {
	return &RecordSentimentHandler{
		sentimentStore: sentimentStore,
		eventBus:       eventBus,
		logger:         logger,
		now:            time.Now,
	}
}

// Handle executes the record sentiment command
func (h *RecordSentimentHandler) Handle(ctx context.Context, cmd RecordSentimentCommand) error {
	if err := cmd.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	record := &insight.SentimentRecord{
		UserID:      cmd.UserID,
		ProcessedAt: cmd.ProcessedAt.UTC(),
		Score:       cmd.Score,
	}
	if err := h.sentimentStore.Save(ctx, record); err != nil {
		return apperrors.NewDatabaseError("save sentiment", err)
	}

	event := events.NewSentimentRecorded(cmd.UserID, cmd.EntryID, cmd.Score, h.now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("sentiment.recorded publish failed",
			zap.String("userID", cmd.UserID),
			zap.Error(err),
		)
	}

	return nil
}
