package queries

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
	"mindrise-backend/pkg/observability"
)

// GetStreakQuery retrieves a user's streak, recalculated against the day
// ledger before it is returned
type GetStreakQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

// Validate validates the query
func (q GetStreakQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// StreakView is the read model returned to callers
type StreakView struct {
	UserID          string `json:"user_id"`
	CurrentStreak   uint   `json:"current_streak"`
	LongestStreak   uint   `json:"longest_streak"`
	LastJournalDate string `json:"last_journal_date,omitempty"`
}

// GetStreakHandler handles the GetStreakQuery
type GetStreakHandler struct {
	streakRepo ports.StreakRepository
	eventBus   ports.EventPublisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewGetStreakHandler creates a new handler instance
func NewGetStreakHandler(
	streakRepo ports.StreakRepository,
	eventBus ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *GetStreakHandler {
	return &GetStreakHandler{
		streakRepo: streakRepo,
		eventBus:   eventBus,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle executes the get streak query. A user with no record reads as a
// zero streak. When the stored counter has decayed, the corrected value
// is persisted and a streak.corrected event records the repair; failures
// on that write never block the read.
func (h *GetStreakHandler) Handle(ctx context.Context, query GetStreakQuery) (*StreakView, error) {
	record, err := h.streakRepo.Get(ctx, query.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &StreakView{UserID: query.UserID}, nil
		}
		return nil, apperrors.NewDatabaseError("load streak", err)
	}

	today := streak.DateOf(h.now().UTC())
	previous := record.State.CurrentStreak
	if record.State.Reconcile(record.Ledger, today) {
		h.logger.Info("streak corrected on read",
			zap.String("userID", query.UserID),
			zap.Uint("previous", previous),
			zap.Uint("current", record.State.CurrentStreak),
		)
		h.metrics.IncrementCounter(ctx, "StreakCorrections", 1)

		if err := h.streakRepo.Save(ctx, record); err != nil {
			h.logger.Warn("streak correction not persisted",
				zap.String("userID", query.UserID),
				zap.Error(err),
			)
		} else {
			event := events.NewStreakCorrected(query.UserID, previous, record.State.CurrentStreak, h.now())
			if err := h.eventBus.Publish(ctx, event); err != nil {
				h.logger.Warn("streak.corrected publish failed",
					zap.String("userID", query.UserID),
					zap.Error(err),
				)
			}
		}
	}

	view := &StreakView{
		UserID:        query.UserID,
		CurrentStreak: record.State.CurrentStreak,
		LongestStreak: record.State.LongestStreak,
	}
	if record.State.LastJournalDate != nil {
		view.LastJournalDate = record.State.LastJournalDate.String()
	}
	return view, nil
}
