package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

// RecordEntryDayCommand marks a journal entry day for a user and applies
// the incremental streak rule
type RecordEntryDayCommand struct {
	UserID    string `json:"user_id" validate:"required"`
	EntryID   string `json:"entry_id" validate:"required"`
	EntryDate string `json:"entry_date" validate:"required"`
}

// Validate validates the command
func (cmd RecordEntryDayCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.EntryID == "" {
		return errors.New("entry ID is required")
	}
	if _, err := streak.ParseDate(cmd.EntryDate); err != nil {
		return err
	}
	return nil
}

// userLocks serializes streak writes per user within this process. The
// optimistic version condition on the store write covers other processes.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (u *userLocks) get(userID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	if l, ok := u.locks[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	u.locks[userID] = l
	return l
}

// RecordEntryDayHandler handles the RecordEntryDayCommand
type RecordEntryDayHandler struct {
	streakRepo ports.StreakRepository
	entryStore ports.EntryStore
	eventBus   ports.EventPublisher
	notifier   ports.StreakNotifier
	logger     *zap.Logger
	locks      *userLocks
	now        func() time.Time
}

// NewRecordEntryDayHandler creates a new handler instance
func NewRecordEntryDayHandler(
	streakRepo ports.StreakRepository,
	entryStore ports.EntryStore,
	eventBus ports.EventPublisher,
	notifier ports.StreakNotifier,
	logger *zap.Logger,
) *RecordEntryDayHandler {
	return &RecordEntryDayHandler{
		streakRepo: streakRepo,
		entryStore: entryStore,
		eventBus:   eventBus,
		notifier:   notifier,
		logger:     logger,
		locks:      newUserLocks(),
		now:        time.Now,
	}
}

// Handle executes the record entry day command. The entry reference is
// persisted first; a failed streak write after that is logged rather than
// retried, since the next read-triggered recalculation repairs it.
func (h *RecordEntryDayHandler) Handle(ctx context.Context, cmd RecordEntryDayCommand) (*streak.State, error) {
	day, err := streak.ParseDate(cmd.EntryDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid entry date").WithCause(err)
	}

	if err := h.entryStore.Save(ctx, &ports.Entry{
		EntryID:   cmd.EntryID,
		UserID:    cmd.UserID,
		EntryDate: day,
		CreatedAt: h.now(),
	}); err != nil {
		return nil, apperrors.NewDatabaseError("save entry", err)
	}

	lock := h.locks.get(cmd.UserID)
	lock.Lock()
	defer lock.Unlock()

	record, err := h.streakRepo.Get(ctx, cmd.UserID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, apperrors.NewDatabaseError("load streak", err)
		}
		record = &ports.StreakRecord{
			UserID: cmd.UserID,
			Ledger: streak.NewDayLedger(),
		}
	}

	changed := record.State.ApplyDay(record.Ledger, day)
	if !changed {
		h.logger.Debug("duplicate entry day ignored",
			zap.String("userID", cmd.UserID),
			zap.String("entryDate", cmd.EntryDate),
		)
		state := record.State
		return &state, nil
	}

	if err := h.streakRepo.Save(ctx, record); err != nil {
		// The ledger self-heals on the next recalculation.
		h.logger.Error("streak update not persisted",
			zap.String("userID", cmd.UserID),
			zap.String("entryDate", cmd.EntryDate),
			zap.Error(err),
		)
	}

	h.publish(ctx, cmd, day, record.State)

	state := record.State
	return &state, nil
}

func (h *RecordEntryDayHandler) publish(ctx context.Context, cmd RecordEntryDayCommand, day streak.Date, state streak.State) {
	event := events.NewEntryRecorded(cmd.UserID, cmd.EntryID, day, state, h.now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("entry.recorded publish failed",
			zap.String("userID", cmd.UserID),
			zap.Error(err),
		)
	}

	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyStreak(ctx, cmd.UserID, state); err != nil {
		h.logger.Debug("streak push skipped",
			zap.String("userID", cmd.UserID),
			zap.Error(err),
		)
	}
}
