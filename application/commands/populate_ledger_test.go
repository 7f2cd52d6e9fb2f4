package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

func newPopulateHandler(repo *memStreakRepo, store *memEntryStore, locks *memLockManager, pub *capturingPublisher) *PopulateLedgerHandler {
	h := NewPopulateLedgerHandler(repo, store, locks, pub, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC) }
	return h
}

func seedEntries(t *testing.T, store *memEntryStore, userID string, days ...string) {
	t.Helper()
	for _, day := range days {
		d, err := streak.ParseDate(day)
		require.NoError(t, err)
		require.NoError(t, store.Save(context.Background(), &ports.Entry{
			EntryID:   "e-" + day,
			UserID:    userID,
			EntryDate: d,
		}))
	}
}

func TestPopulateLedger_RebuildsFromHistory(t *testing.T) {
	repo := newMemStreakRepo()
	store := newMemEntryStore()
	pub := &capturingPublisher{}
	seedEntries(t, store, "u1", "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-07")
	h := newPopulateHandler(repo, store, newMemLockManager(), pub)

	result, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, 4, result.DaysImported)
	assert.Equal(t, uint(1), result.State.CurrentStreak)
	assert.Equal(t, uint(3), result.State.LongestStreak)
	assert.False(t, result.Skipped)
	assert.Equal(t, []string{"ledger.populated"}, pub.types())

	stored, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Ledger.Len())
}

func TestPopulateLedger_Idempotent(t *testing.T) {
	repo := newMemStreakRepo()
	store := newMemEntryStore()
	seedEntries(t, store, "u1", "2024-03-01", "2024-03-02")
	h := newPopulateHandler(repo, store, newMemLockManager(), &capturingPublisher{})

	first, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})
	require.NoError(t, err)

	second, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})
	require.NoError(t, err)

	assert.True(t, second.Skipped)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.DaysImported, second.DaysImported)
	assert.Equal(t, 1, repo.saves, "a repeated backfill must not write again")
}

func TestPopulateLedger_ForceRebuilds(t *testing.T) {
	repo := newMemStreakRepo()
	store := newMemEntryStore()
	seedEntries(t, store, "u1", "2024-03-01")
	h := newPopulateHandler(repo, store, newMemLockManager(), &capturingPublisher{})

	_, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1", Force: true})
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 2, repo.saves)
}

func TestPopulateLedger_ConcurrentRunRejected(t *testing.T) {
	locks := newMemLockManager()
	_, err := locks.Acquire(context.Background(), "populate#u1", time.Minute)
	require.NoError(t, err)

	h := newPopulateHandler(newMemStreakRepo(), newMemEntryStore(), locks, &capturingPublisher{})

	_, err = h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})

	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestPopulateLedger_ReadFailureLeavesStoreUntouched(t *testing.T) {
	repo := newMemStreakRepo()
	store := newMemEntryStore()
	store.failList = errors.New("dynamo down")
	h := newPopulateHandler(repo, store, newMemLockManager(), &capturingPublisher{})

	_, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})

	require.Error(t, err)
	assert.Equal(t, 0, repo.saves)
}

func TestPopulateLedger_PreservesEarnedLongestStreak(t *testing.T) {
	repo := newMemStreakRepo()
	require.NoError(t, repo.Save(context.Background(), &ports.StreakRecord{
		UserID: "u1",
		State:  streak.State{CurrentStreak: 0, LongestStreak: 9},
		Ledger: streak.NewDayLedger(),
	}))
	store := newMemEntryStore()
	seedEntries(t, store, "u1", "2024-03-01", "2024-03-02")
	h := newPopulateHandler(repo, store, newMemLockManager(), &capturingPublisher{})

	result, err := h.Handle(context.Background(), PopulateLedgerCommand{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, uint(9), result.State.LongestStreak)
	assert.Equal(t, uint(2), result.State.CurrentStreak)
}
