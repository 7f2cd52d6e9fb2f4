package events

import (
	"time"

	"mindrise-backend/domain/streak"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Entry Events

// EntryRecorded is raised when a journal entry day is recorded for a user
type EntryRecorded struct {
	BaseEvent
	UserID        string `json:"user_id"`
	EntryID       string `json:"entry_id"`
	EntryDate     string `json:"entry_date"`
	CurrentStreak uint   `json:"current_streak"`
	LongestStreak uint   `json:"longest_streak"`
}

// NewEntryRecorded creates an EntryRecorded event
func NewEntryRecorded(userID, entryID string, entryDate streak.Date, state streak.State, timestamp time.Time) EntryRecorded {
	return EntryRecorded{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   "entry.recorded",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:        userID,
		EntryID:       entryID,
		EntryDate:     entryDate.String(),
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
	}
}

// Sentiment Events

// SentimentRecorded is raised when the analysis pipeline scores an entry
type SentimentRecorded struct {
	BaseEvent
	UserID  string  `json:"user_id"`
	EntryID string  `json:"entry_id"`
	Score   float64 `json:"score"`
}

// NewSentimentRecorded creates a SentimentRecorded event
func NewSentimentRecorded(userID, entryID string, score float64, timestamp time.Time) SentimentRecorded {
	return SentimentRecorded{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   "sentiment.recorded",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:  userID,
		EntryID: entryID,
		Score:   score,
	}
}

// Streak Events

// StreakCorrected is raised when a read-time recalculation repairs a
// stored streak that had silently decayed
type StreakCorrected struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak uint   `json:"previous_streak"`
	CurrentStreak  uint   `json:"current_streak"`
}

// NewStreakCorrected creates a StreakCorrected event
func NewStreakCorrected(userID string, previous, current uint, timestamp time.Time) StreakCorrected {
	return StreakCorrected{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   "streak.corrected",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:         userID,
		PreviousStreak: previous,
		CurrentStreak:  current,
	}
}

// LedgerPopulated is raised when a backfill rebuilds a user's day ledger
type LedgerPopulated struct {
	BaseEvent
	UserID        string `json:"user_id"`
	DaysImported  int    `json:"days_imported"`
	CurrentStreak uint   `json:"current_streak"`
	LongestStreak uint   `json:"longest_streak"`
}

// NewLedgerPopulated creates a LedgerPopulated event
func NewLedgerPopulated(userID string, daysImported int, state streak.State, timestamp time.Time) LedgerPopulated {
	return LedgerPopulated{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   "ledger.populated",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:        userID,
		DaysImported:  daysImported,
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
	}
}
