package insight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindrise-backend/domain/streak"
)

func testComposer() *Composer {
	return NewComposer(zap.NewNop())
}

// busySnapshot trips every analyzer at once: a week of silence, Mondays
// far below Fridays, a swing in the recent window, weekend brighter than
// the week, and mornings brighter than evenings.
func busySnapshot(t *testing.T) *Snapshot {
	t.Helper()
	last, err := streak.ParseDate("2024-03-04")
	require.NoError(t, err)

	return &Snapshot{
		UserID:          "u1",
		Now:             at(t, "2024-03-11", 12),
		LastJournalDate: &last,
		Scores: scores(t,
			point{"2024-02-26", 9, -0.5}, // Mondays
			point{"2024-03-04", 9, -0.6},
			point{"2024-03-01", 9, 0.4}, // Fridays
			point{"2024-02-23", 9, 0.5},
			point{"2024-03-02", 10, 0.6}, // weekend mornings
			point{"2024-03-03", 10, 0.5},
			point{"2024-02-28", 20, -0.4}, // weekday evenings
			point{"2024-02-29", 20, -0.3},
		),
	}
}

func TestCompose_CapsAndOrders(t *testing.T) {
	nudges := testComposer().Compose(context.Background(), busySnapshot(t))

	require.NotEmpty(t, nudges)
	assert.LessOrEqual(t, len(nudges), MaxNudges)

	for i := 1; i < len(nudges); i++ {
		assert.GreaterOrEqual(t,
			nudges[i-1].Priority.Weight(), nudges[i].Priority.Weight(),
			"nudges must come in non-increasing priority order")
	}
}

func TestCompose_WellFormedNudges(t *testing.T) {
	now := at(t, "2024-03-11", 12)
	snap := busySnapshot(t)
	snap.Now = now

	nudges := testComposer().Compose(context.Background(), snap)

	seen := make(map[string]bool)
	for _, n := range nudges {
		assert.NotEmpty(t, n.ID)
		assert.False(t, seen[n.ID], "nudge IDs must be unique")
		seen[n.ID] = true

		assert.NotEmpty(t, n.Title)
		assert.NotEmpty(t, n.Message)
		assert.NotContains(t, n.Message, "{", "all placeholders must be substituted")
		assert.True(t, n.Action.Valid(), "action must be from the closed set")
		assert.Equal(t, now, n.GeneratedAt)
	}
}

func TestCompose_StableTieBreak(t *testing.T) {
	// Weekend shift and difficult day both render at medium priority, so
	// their relative order must follow the fixed analyzer order with the
	// difficult-day check first.
	last, err := streak.ParseDate("2024-03-10")
	require.NoError(t, err)
	snap := &Snapshot{
		UserID:          "u1",
		Now:             at(t, "2024-03-11", 12),
		LastJournalDate: &last,
		Scores: scores(t,
			point{"2024-02-26", 14, -0.5}, // Mondays
			point{"2024-03-04", 14, -0.6},
			point{"2024-03-01", 14, 0.4}, // Fridays
			point{"2024-02-23", 14, 0.5},
			point{"2024-03-02", 14, 0.6}, // weekend
			point{"2024-03-03", 14, 0.5},
		),
	}

	nudges := testComposer().Compose(context.Background(), snap)

	var kinds []Kind
	for _, n := range nudges {
		if n.Priority == PriorityMedium {
			kinds = append(kinds, n.Kind)
		}
	}
	require.Equal(t, []Kind{KindDifficultDay, KindWeekendShift}, kinds)
}

func TestCompose_EmptyHistory(t *testing.T) {
	snap := &Snapshot{UserID: "u1", Now: at(t, "2024-03-11", 12)}

	nudges := testComposer().Compose(context.Background(), snap)

	// Only the missed-days nudge applies to a brand-new user.
	require.Len(t, nudges, 1)
	assert.Equal(t, KindMissedDays, nudges[0].Kind)
	assert.Equal(t, PriorityHigh, nudges[0].Priority)
}

func TestCompose_CancelledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan []Nudge, 1)
	go func() {
		done <- testComposer().Compose(ctx, busySnapshot(t))
	}()

	select {
	case nudges := <-done:
		assert.LessOrEqual(t, len(nudges), MaxNudges)
	case <-time.After(2 * time.Second):
		t.Fatal("Compose must return promptly on a cancelled context")
	}
}

func TestRender_FallsBackToCatalogDefaults(t *testing.T) {
	c := testComposer()

	n, ok := c.render(&Candidate{
		Kind:   KindMissedDays,
		Params: map[string]string{"days": "4"},
	}, time.Now())

	require.True(t, ok)
	assert.Equal(t, PriorityHigh, n.Priority)
	assert.Equal(t, ActionOpenJournal, n.Action)
	assert.Contains(t, n.Message, "4 days")
}

func TestRender_UnknownKindDropped(t *testing.T) {
	c := testComposer()

	_, ok := c.render(&Candidate{Kind: Kind("made-up")}, time.Now())

	assert.False(t, ok)
}
