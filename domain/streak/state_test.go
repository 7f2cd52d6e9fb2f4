package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestApplyDay_ConsecutiveDays(t *testing.T) {
	ledger := NewDayLedger()
	var s State

	s.ApplyDay(ledger, date(t, "2024-01-01"))
	s.ApplyDay(ledger, date(t, "2024-01-02"))
	s.ApplyDay(ledger, date(t, "2024-01-03"))

	assert.Equal(t, uint(3), s.CurrentStreak)
	assert.Equal(t, uint(3), s.LongestStreak)
	require.NotNil(t, s.LastJournalDate)
	assert.Equal(t, "2024-01-03", s.LastJournalDate.String())
}

func TestApplyDay_GapResetsCurrentButKeepsLongest(t *testing.T) {
	ledger := NewDayLedger()
	var s State

	s.ApplyDay(ledger, date(t, "2024-01-01"))
	s.ApplyDay(ledger, date(t, "2024-01-02"))
	s.ApplyDay(ledger, date(t, "2024-01-04"))

	assert.Equal(t, uint(1), s.CurrentStreak)
	assert.Equal(t, uint(2), s.LongestStreak)
}

func TestApplyDay_DuplicateDayIsNoOp(t *testing.T) {
	ledger := NewDayLedger()
	var s State

	s.ApplyDay(ledger, date(t, "2024-01-01"))
	s.ApplyDay(ledger, date(t, "2024-01-02"))

	before := s
	changed := s.ApplyDay(ledger, date(t, "2024-01-02"))

	assert.False(t, changed)
	assert.Equal(t, before.CurrentStreak, s.CurrentStreak)
	assert.Equal(t, before.LongestStreak, s.LongestStreak)
}

func TestApplyDay_BackdatedDayMarksWithoutTouchingCounters(t *testing.T) {
	ledger := NewDayLedger()
	var s State

	s.ApplyDay(ledger, date(t, "2024-01-05"))
	s.ApplyDay(ledger, date(t, "2024-01-06"))
	s.ApplyDay(ledger, date(t, "2024-01-02"))

	assert.Equal(t, uint(2), s.CurrentStreak)
	assert.Equal(t, "2024-01-06", s.LastJournalDate.String())
	assert.True(t, ledger.Contains(date(t, "2024-01-02")))
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name  string
		days  []string
		today string
		want  uint
	}{
		{
			name:  "run ending today",
			days:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			today: "2024-01-03",
			want:  3,
		},
		{
			name:  "run ending yesterday is still alive",
			days:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			today: "2024-01-04",
			want:  3,
		},
		{
			name:  "full missed day breaks the streak",
			days:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
			today: "2024-01-05",
			want:  0,
		},
		{
			name:  "gap inside history only counts the tail",
			days:  []string{"2024-01-01", "2024-01-02", "2024-01-04"},
			today: "2024-01-04",
			want:  1,
		},
		{
			name:  "empty ledger",
			days:  nil,
			today: "2024-01-04",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewDayLedger()
			for _, d := range tt.days {
				ledger.Mark(date(t, d))
			}
			assert.Equal(t, tt.want, Recompute(ledger, date(t, tt.today)))
		})
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	ledger := NewDayLedger()
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-07"} {
		ledger.Mark(date(t, d))
	}
	today := date(t, "2024-01-07")

	first := Recompute(ledger, today)
	second := Recompute(ledger, today)

	assert.Equal(t, first, second)
}

func TestReconcile_DecaysCurrentButNeverLongest(t *testing.T) {
	ledger := NewDayLedger()
	var s State
	s.ApplyDay(ledger, date(t, "2024-01-01"))
	s.ApplyDay(ledger, date(t, "2024-01-02"))
	s.ApplyDay(ledger, date(t, "2024-01-03"))

	changed := s.Reconcile(ledger, date(t, "2024-01-10"))

	assert.True(t, changed)
	assert.Equal(t, uint(0), s.CurrentStreak)
	assert.Equal(t, uint(3), s.LongestStreak)
}

func TestReconcile_NoDriftReportsUnchanged(t *testing.T) {
	ledger := NewDayLedger()
	var s State
	s.ApplyDay(ledger, date(t, "2024-01-02"))
	s.ApplyDay(ledger, date(t, "2024-01-03"))

	changed := s.Reconcile(ledger, date(t, "2024-01-03"))

	assert.False(t, changed)
	assert.Equal(t, uint(2), s.CurrentStreak)
}

func TestRebuild_IsIdempotent(t *testing.T) {
	history := []Date{
		date(t, "2024-01-01"),
		date(t, "2024-01-02"),
		date(t, "2024-01-02"), // duplicate entry on the same day
		date(t, "2024-01-04"),
		date(t, "2024-01-05"),
		date(t, "2024-01-06"),
	}

	ledger1, state1 := Rebuild(history)
	ledger2, state2 := Rebuild(history)

	assert.Equal(t, state1, state2)
	assert.Equal(t, ledger1.Days(), ledger2.Days())
	assert.Equal(t, uint(3), state1.CurrentStreak)
	assert.Equal(t, uint(3), state1.LongestStreak)
	assert.Equal(t, 5, ledger1.Len())
}

func TestLongestNeverBelowCurrent(t *testing.T) {
	ledger := NewDayLedger()
	var s State
	for _, d := range []string{"2024-02-01", "2024-02-02", "2024-02-03", "2024-02-05", "2024-02-06"} {
		s.ApplyDay(ledger, date(t, d))
		assert.GreaterOrEqual(t, s.LongestStreak, s.CurrentStreak)
	}
}
