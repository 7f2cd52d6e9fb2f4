package ports

import (
	"context"
	"time"

	"mindrise-backend/domain/events"
	"mindrise-backend/domain/insight"
	"mindrise-backend/domain/streak"
)

// StreakRecord is the persisted per-user streak document: the counters
// plus the day ledger they are derived from. Version supports optimistic
// concurrency on writes.
type StreakRecord struct {
	UserID  string
	State   streak.State
	Ledger  *streak.DayLedger
	Version int64
}

// StreakRepository defines the interface for streak persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type StreakRepository interface {
	// Get retrieves the streak record for a user. Returns a not-found
	// error when the user has no record yet.
	Get(ctx context.Context, userID string) (*StreakRecord, error)

	// Save persists a streak record. The write is conditional on the
	// record's Version matching the stored one; a mismatch returns a
	// conflict error.
	Save(ctx context.Context, record *StreakRecord) error
}

// Entry is a stored journal entry reference. The body lives elsewhere;
// the tracker only needs the date and identity.
type Entry struct {
	EntryID   string
	UserID    string
	EntryDate streak.Date
	CreatedAt time.Time
}

// EntryStore defines the interface for journal entry day persistence
type EntryStore interface {
	// Save persists an entry reference
	Save(ctx context.Context, entry *Entry) error

	// ListDates retrieves all distinct entry dates for a user in
	// ascending order
	ListDates(ctx context.Context, userID string) ([]streak.Date, error)
}

// SentimentStore defines the interface for sentiment score persistence
type SentimentStore interface {
	// Save persists a scored entry
	Save(ctx context.Context, record *insight.SentimentRecord) error

	// ListSince retrieves a user's scores processed at or after the
	// cutoff, ascending by time
	ListSince(ctx context.Context, userID string, since time.Time) ([]insight.SentimentRecord, error)
}

// LockManager provides advisory locks for operations that must not run
// concurrently, such as ledger backfills.
type LockManager interface {
	// Acquire takes the named lock for at most ttl. It returns a release
	// function on success and a conflict error when the lock is held.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, err error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// StreakNotifier pushes live streak updates to connected clients
type StreakNotifier interface {
	// NotifyStreak delivers the user's current streak state
	NotifyStreak(ctx context.Context, userID string, state streak.State) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
