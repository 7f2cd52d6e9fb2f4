package queries

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/insight"
	apperrors "mindrise-backend/pkg/errors"
	"mindrise-backend/pkg/observability"
)

// snapshotWindowDays is how far back the sentiment series reaches. Every
// analyzer horizon fits inside it with margin.
const snapshotWindowDays = 90

// composeTimeout caps the analyzer fan-out per request.
const composeTimeout = 2 * time.Second

// GetNudgesQuery retrieves up to three ranked nudges for a user
type GetNudgesQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

// Validate validates the query
func (q GetNudgesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// NudgesView is the read model returned to callers
type NudgesView struct {
	UserID string          `json:"user_id"`
	Nudges []insight.Nudge `json:"nudges"`
}

// GetNudgesHandler handles the GetNudgesQuery
type GetNudgesHandler struct {
	streakRepo     ports.StreakRepository
	sentimentStore ports.SentimentStore
	composer       *insight.Composer
	tracer         *observability.Tracer
	logger         *zap.Logger
	now            func() time.Time
}

// NewGetNudgesHandler creates a new handler instance
func NewGetNudgesHandler(
	streakRepo ports.StreakRepository,
	sentimentStore ports.SentimentStore,
	composer *insight.Composer,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *GetNudgesHandler {
	return &GetNudgesHandler{
		streakRepo:     streakRepo,
		sentimentStore: sentimentStore,
		composer:       composer,
		tracer:         tracer,
		logger:         logger,
		now:            time.Now,
	}
}

// Handle executes the get nudges query. Store failures degrade the
// snapshot instead of failing the request: the composer always returns a
// well-formed, possibly empty, list.
func (h *GetNudgesHandler) Handle(ctx context.Context, query GetNudgesQuery) (*NudgesView, error) {
	now := h.now().UTC()
	snapshot := &insight.Snapshot{
		UserID: query.UserID,
		Now:    now,
	}

	record, err := h.streakRepo.Get(ctx, query.UserID)
	switch {
	case err == nil:
		snapshot.LastJournalDate = record.State.LastJournalDate
	case apperrors.IsNotFound(err):
		// No record means the user never journaled, which is itself a
		// signal; a nil last date carries it.
	default:
		snapshot.StreakUnavailable = true
		h.logger.Warn("streak unavailable for nudge snapshot",
			zap.String("userID", query.UserID),
			zap.Error(err),
		)
	}

	since := now.AddDate(0, 0, -snapshotWindowDays)
	scores, err := h.sentimentStore.ListSince(ctx, query.UserID, since)
	if err != nil {
		h.logger.Warn("sentiment history unavailable for nudge snapshot",
			zap.String("userID", query.UserID),
			zap.Error(err),
		)
	} else {
		snapshot.Scores = scores
	}

	composeCtx, cancel := context.WithTimeout(ctx, composeTimeout)
	defer cancel()

	var nudges []insight.Nudge
	h.tracer.Capture(composeCtx, "compose_nudges", func(ctx context.Context) error {
		nudges = h.composer.Compose(ctx, snapshot)
		return nil
	})

	return &NudgesView{UserID: query.UserID, Nudges: nudges}, nil
}
