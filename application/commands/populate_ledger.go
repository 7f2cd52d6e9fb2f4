package commands

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

// populateLockTTL bounds how long a crashed backfill can block a retry.
const populateLockTTL = 2 * time.Minute

// PopulateLedgerCommand rebuilds a user's day ledger and streak counters
// from their full journal entry history
type PopulateLedgerCommand struct {
	UserID string `json:"user_id" validate:"required"`
	Force  bool   `json:"force"`
}

// Validate validates the command
func (cmd PopulateLedgerCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// PopulateResult reports what a backfill imported
type PopulateResult struct {
	UserID       string       `json:"user_id"`
	DaysImported int          `json:"days_imported"`
	State        streak.State `json:"state"`
	Skipped      bool         `json:"skipped"`
}

// PopulateLedgerHandler handles the PopulateLedgerCommand
type PopulateLedgerHandler struct {
	streakRepo ports.StreakRepository
	entryStore ports.EntryStore
	locks      ports.LockManager
	eventBus   ports.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPopulateLedgerHandler creates a new handler instance
func NewPopulateLedgerHandler(
	streakRepo ports.StreakRepository,
	entryStore ports.EntryStore,
	locks ports.LockManager,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *PopulateLedgerHandler {
	return &PopulateLedgerHandler{
		streakRepo: streakRepo,
		entryStore: entryStore,
		locks:      locks,
		eventBus:   eventBus,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle executes the backfill. The whole rebuild happens in memory and
// lands in a single write: a failed history read leaves the stored record
// untouched. Concurrent backfills for the same user are rejected by the
// advisory lock; a repeated backfill over the same history is a no-op.
func (h *PopulateLedgerHandler) Handle(ctx context.Context, cmd PopulateLedgerCommand) (*PopulateResult, error) {
	release, err := h.locks.Acquire(ctx, "populate#"+cmd.UserID, populateLockTTL)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.NewConflictError("ledger population already in progress")
		}
		return nil, apperrors.NewDatabaseError("acquire populate lock", err)
	}
	defer func() {
		if rerr := release(ctx); rerr != nil {
			h.logger.Warn("populate lock release failed",
				zap.String("userID", cmd.UserID),
				zap.Error(rerr),
			)
		}
	}()

	existing, err := h.streakRepo.Get(ctx, cmd.UserID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, apperrors.NewDatabaseError("load streak", err)
	}

	dates, err := h.entryStore.ListDates(ctx, cmd.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list entry dates", err)
	}

	if existing != nil && !cmd.Force && existing.Ledger.Len() >= len(dates) {
		h.logger.Info("ledger already populated",
			zap.String("userID", cmd.UserID),
			zap.Int("ledgerDays", existing.Ledger.Len()),
		)
		return &PopulateResult{
			UserID:       cmd.UserID,
			DaysImported: existing.Ledger.Len(),
			State:        existing.State,
			Skipped:      true,
		}, nil
	}

	ledger, state := streak.Rebuild(dates)

	record := &ports.StreakRecord{
		UserID: cmd.UserID,
		State:  state,
		Ledger: ledger,
	}
	if existing != nil {
		record.Version = existing.Version
		// A previously earned longest streak survives gaps in the
		// imported history.
		if existing.State.LongestStreak > record.State.LongestStreak {
			record.State.LongestStreak = existing.State.LongestStreak
		}
	}

	if err := h.streakRepo.Save(ctx, record); err != nil {
		return nil, apperrors.NewDatabaseError("save rebuilt streak", err)
	}

	h.logger.Info("ledger populated",
		zap.String("userID", cmd.UserID),
		zap.Int("daysImported", ledger.Len()),
		zap.Uint("currentStreak", record.State.CurrentStreak),
		zap.Uint("longestStreak", record.State.LongestStreak),
	)

	event := events.NewLedgerPopulated(cmd.UserID, ledger.Len(), record.State, h.now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("ledger.populated publish failed",
			zap.String("userID", cmd.UserID),
			zap.Error(err),
		)
	}

	return &PopulateResult{
		UserID:       cmd.UserID,
		DaysImported: ledger.Len(),
		State:        record.State,
	}, nil
}
