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
)

func newEntryHandler(repo *memStreakRepo, store *memEntryStore, pub *capturingPublisher, notifier ports.StreakNotifier) *RecordEntryDayHandler {
	h := NewRecordEntryDayHandler(repo, store, pub, notifier, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestRecordEntryDay_FirstEntry(t *testing.T) {
	repo := newMemStreakRepo()
	store := newMemEntryStore()
	pub := &capturingPublisher{}
	notifier := &capturingNotifier{}
	h := newEntryHandler(repo, store, pub, notifier)

	state, err := h.Handle(context.Background(), RecordEntryDayCommand{
		UserID:    "u1",
		EntryID:   "e1",
		EntryDate: "2024-03-11",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(1), state.CurrentStreak)
	assert.Equal(t, uint(1), state.LongestStreak)
	assert.Equal(t, []string{"entry.recorded"}, pub.types())
	assert.Len(t, notifier.pushes, 1)

	dates, err := store.ListDates(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2024-03-11", dates[0].String())
}

func TestRecordEntryDay_ConsecutiveDaysIncrement(t *testing.T) {
	repo := newMemStreakRepo()
	h := newEntryHandler(repo, newMemEntryStore(), &capturingPublisher{}, nil)

	var last uint
	for i, day := range []string{"2024-03-09", "2024-03-10", "2024-03-11"} {
		state, err := h.Handle(context.Background(), RecordEntryDayCommand{
			UserID:    "u1",
			EntryID:   "e" + day,
			EntryDate: day,
		})
		require.NoError(t, err)
		require.Equal(t, uint(i+1), state.CurrentStreak)
		last = state.CurrentStreak
	}
	assert.Equal(t, uint(3), last)
}

func TestRecordEntryDay_DuplicateDayIsNoOp(t *testing.T) {
	repo := newMemStreakRepo()
	pub := &capturingPublisher{}
	h := newEntryHandler(repo, newMemEntryStore(), pub, nil)

	_, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e1", EntryDate: "2024-03-11"})
	require.NoError(t, err)
	savesBefore := repo.saves

	state, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e2", EntryDate: "2024-03-11"})
	require.NoError(t, err)

	assert.Equal(t, uint(1), state.CurrentStreak)
	assert.Equal(t, savesBefore, repo.saves, "no streak write for an already marked day")
	assert.Equal(t, []string{"entry.recorded"}, pub.types(), "no second event for a duplicate day")
}

func TestRecordEntryDay_GapResetsStreak(t *testing.T) {
	h := newEntryHandler(newMemStreakRepo(), newMemEntryStore(), &capturingPublisher{}, nil)

	for _, day := range []string{"2024-03-05", "2024-03-06"} {
		_, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e" + day, EntryDate: day})
		require.NoError(t, err)
	}

	state, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e3", EntryDate: "2024-03-10"})
	require.NoError(t, err)

	assert.Equal(t, uint(1), state.CurrentStreak)
	assert.Equal(t, uint(2), state.LongestStreak)
}

func TestRecordEntryDay_BackdatedEntryKeepsCounters(t *testing.T) {
	h := newEntryHandler(newMemStreakRepo(), newMemEntryStore(), &capturingPublisher{}, nil)

	for _, day := range []string{"2024-03-10", "2024-03-11"} {
		_, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e" + day, EntryDate: day})
		require.NoError(t, err)
	}

	state, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "eb", EntryDate: "2024-03-01"})
	require.NoError(t, err)

	assert.Equal(t, uint(2), state.CurrentStreak)
	assert.Equal(t, "2024-03-11", state.LastJournalDate.String())
}

func TestRecordEntryDay_StreakWriteFailureIsSwallowed(t *testing.T) {
	repo := newMemStreakRepo()
	repo.failPut = errors.New("dynamo down")
	pub := &capturingPublisher{}
	h := newEntryHandler(repo, newMemEntryStore(), pub, nil)

	state, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e1", EntryDate: "2024-03-11"})

	require.NoError(t, err, "a lost streak write self-heals on the next recalculation")
	assert.Equal(t, uint(1), state.CurrentStreak)
	assert.Equal(t, []string{"entry.recorded"}, pub.types())
}

func TestRecordEntryDay_EntryWriteFailureSurfaces(t *testing.T) {
	store := newMemEntryStore()
	store.failSave = errors.New("dynamo down")
	h := newEntryHandler(newMemStreakRepo(), store, &capturingPublisher{}, nil)

	_, err := h.Handle(context.Background(), RecordEntryDayCommand{UserID: "u1", EntryID: "e1", EntryDate: "2024-03-11"})

	require.Error(t, err)
}

func TestRecordEntryDayCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     RecordEntryDayCommand
		wantErr bool
	}{
		{name: "valid", cmd: RecordEntryDayCommand{UserID: "u1", EntryID: "e1", EntryDate: "2024-03-11"}},
		{name: "missing user", cmd: RecordEntryDayCommand{EntryID: "e1", EntryDate: "2024-03-11"}, wantErr: true},
		{name: "missing entry id", cmd: RecordEntryDayCommand{UserID: "u1", EntryDate: "2024-03-11"}, wantErr: true},
		{name: "malformed date", cmd: RecordEntryDayCommand{UserID: "u1", EntryID: "e1", EntryDate: "11-03-2024"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
