package queries

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
)

func newStreakHandler(repo *memStreakRepo, pub *capturingPublisher) *GetStreakHandler {
	h := NewGetStreakHandler(repo, pub, nil, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC) }
	return h
}

func seedStreak(t *testing.T, repo *memStreakRepo, userID string, current, longest uint, days ...string) {
	t.Helper()
	ledger := streak.NewDayLedger()
	var last *streak.Date
	for _, day := range days {
		d, err := streak.ParseDate(day)
		require.NoError(t, err)
		ledger.Mark(d)
		dd := d
		last = &dd
	}
	require.NoError(t, repo.Save(context.Background(), &ports.StreakRecord{
		UserID: userID,
		State:  streak.State{CurrentStreak: current, LongestStreak: longest, LastJournalDate: last},
		Ledger: ledger,
	}))
	repo.saves = 0
}

func TestGetStreak_UnknownUserReadsAsZero(t *testing.T) {
	h := newStreakHandler(newMemStreakRepo(), &capturingPublisher{})

	view, err := h.Handle(context.Background(), GetStreakQuery{UserID: "ghost"})

	require.NoError(t, err)
	assert.Equal(t, uint(0), view.CurrentStreak)
	assert.Equal(t, uint(0), view.LongestStreak)
	assert.Empty(t, view.LastJournalDate)
}

func TestGetStreak_FreshStateReturnedUnchanged(t *testing.T) {
	repo := newMemStreakRepo()
	pub := &capturingPublisher{}
	// Last day is yesterday relative to the pinned clock, so the streak
	// is still alive.
	seedStreak(t, repo, "u1", 3, 5, "2024-03-08", "2024-03-09", "2024-03-10")
	h := newStreakHandler(repo, pub)

	view, err := h.Handle(context.Background(), GetStreakQuery{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, uint(3), view.CurrentStreak)
	assert.Equal(t, uint(5), view.LongestStreak)
	assert.Equal(t, "2024-03-10", view.LastJournalDate)
	assert.Equal(t, 0, repo.saves, "no write when nothing drifted")
	assert.Empty(t, pub.types())
}

func TestGetStreak_DecayedStreakCorrectedAndPersisted(t *testing.T) {
	repo := newMemStreakRepo()
	pub := &capturingPublisher{}
	// Run ended on 2024-03-05; a stale counter of 3 survived in storage.
	seedStreak(t, repo, "u1", 3, 3, "2024-03-03", "2024-03-04", "2024-03-05")
	h := newStreakHandler(repo, pub)

	view, err := h.Handle(context.Background(), GetStreakQuery{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, uint(0), view.CurrentStreak)
	assert.Equal(t, uint(3), view.LongestStreak, "longest streak survives decay")
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, []string{"streak.corrected"}, pub.types())

	stored, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored.State.CurrentStreak)
}

func TestGetStreak_BackdatedDaysFoldIntoCorrection(t *testing.T) {
	repo := newMemStreakRepo()
	// The counter says 1, but backdated marks completed a 3-day run
	// ending today.
	seedStreak(t, repo, "u1", 1, 1, "2024-03-09", "2024-03-10", "2024-03-11")
	h := newStreakHandler(repo, &capturingPublisher{})

	view, err := h.Handle(context.Background(), GetStreakQuery{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, uint(3), view.CurrentStreak)
	assert.Equal(t, uint(3), view.LongestStreak)
}

func TestGetStreak_CorrectionWriteFailureStillReturnsCorrectedView(t *testing.T) {
	repo := newMemStreakRepo()
	pub := &capturingPublisher{}
	seedStreak(t, repo, "u1", 3, 3, "2024-03-03", "2024-03-04", "2024-03-05")
	repo.failPut = errors.New("dynamo down")
	h := newStreakHandler(repo, pub)

	view, err := h.Handle(context.Background(), GetStreakQuery{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, uint(0), view.CurrentStreak)
	assert.Empty(t, pub.types(), "no corrected event when the repair did not land")
}

func TestGetStreak_StoreFailureSurfaces(t *testing.T) {
	repo := newMemStreakRepo()
	repo.failGet = errors.New("dynamo down")
	h := newStreakHandler(repo, &capturingPublisher{})

	_, err := h.Handle(context.Background(), GetStreakQuery{UserID: "u1"})

	require.Error(t, err)
}
