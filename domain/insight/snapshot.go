package insight

import (
	"time"

	"mindrise-backend/domain/streak"
)

// SentimentRecord is one scored journal entry from the external analysis
// pipeline. Score is in [-1, 1]; ProcessedAt is when the entry was scored.
type SentimentRecord struct {
	UserID      string    `json:"user_id"`
	ProcessedAt time.Time `json:"processed_at"`
	Score       float64   `json:"score"`
}

// Snapshot is the immutable view of a user's history handed to every
// analyzer. It is built once per request; analyzers must not mutate it.
type Snapshot struct {
	UserID          string
	Now             time.Time
	Scores          []SentimentRecord
	LastJournalDate *streak.Date

	// StreakUnavailable marks that the streak record could not be read.
	// A nil LastJournalDate then means "unknown", not "never journaled",
	// and analyzers that key off journaling gaps must stay silent.
	StreakUnavailable bool
}

// DaysSinceLastEntry returns the number of whole days since the user last
// journaled, and false when there is no entry at all.
func (s *Snapshot) DaysSinceLastEntry() (int, bool) {
	if s.LastJournalDate == nil {
		return 0, false
	}
	return streak.DateOf(s.Now).DiffDays(*s.LastJournalDate), true
}
