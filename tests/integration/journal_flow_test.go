package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindrise-backend/application/commands"
	"mindrise-backend/application/ports"
	"mindrise-backend/application/queries"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/insight"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

// harness wires the command and query handlers over in-memory stores,
// exercising the same paths the deployed service runs without DynamoDB.
type harness struct {
	repo       *memStreakRepo
	entries    *memEntryStore
	sentiments *memSentimentStore
	publisher  *capturingPublisher

	recordEntry     *commands.RecordEntryDayHandler
	recordSentiment *commands.RecordSentimentHandler
	populate        *commands.PopulateLedgerHandler
	getStreak       *queries.GetStreakHandler
	getNudges       *queries.GetNudgesHandler
}

func newHarness() *harness {
	logger := zap.NewNop()
	h := &harness{
		repo:       newMemStreakRepo(),
		entries:    newMemEntryStore(),
		sentiments: newMemSentimentStore(),
		publisher:  &capturingPublisher{},
	}
	h.recordEntry = commands.NewRecordEntryDayHandler(h.repo, h.entries, h.publisher, nil, logger)
	h.recordSentiment = commands.NewRecordSentimentHandler(h.sentiments, h.publisher, logger)
	h.populate = commands.NewPopulateLedgerHandler(h.repo, h.entries, newMemLockManager(), h.publisher, logger)
	h.getStreak = queries.NewGetStreakHandler(h.repo, h.publisher, nil, logger)
	h.getNudges = queries.NewGetNudgesHandler(h.repo, h.sentiments, insight.NewComposer(logger), nil, logger)
	return h
}

func (h *harness) record(t *testing.T, userID string, day streak.Date) *streak.State {
	t.Helper()
	state, err := h.recordEntry.Handle(context.Background(), commands.RecordEntryDayCommand{
		UserID:    userID,
		EntryID:   fmt.Sprintf("entry-%s-%s", userID, day),
		EntryDate: day.String(),
	})
	require.NoError(t, err)
	return state
}

func TestJournalFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	today := streak.DateOf(time.Now().UTC())

	t.Run("consecutive entries build a streak", func(t *testing.T) {
		var state *streak.State
		for offset := -2; offset <= 0; offset++ {
			state = h.record(t, "user-1", today.AddDays(offset))
		}
		assert.Equal(t, uint(3), state.CurrentStreak)
		assert.Equal(t, uint(3), state.LongestStreak)
	})

	t.Run("read returns the live streak without correction", func(t *testing.T) {
		view, err := h.getStreak.Handle(ctx, queries.GetStreakQuery{UserID: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, uint(3), view.CurrentStreak)
		assert.NotContains(t, h.publisher.types(), "streak.corrected")
	})

	t.Run("backfill over already imported history is skipped", func(t *testing.T) {
		result, err := h.populate.Handle(ctx, commands.PopulateLedgerCommand{UserID: "user-1"})
		require.NoError(t, err)
		assert.True(t, result.Skipped)
	})

	t.Run("forced backfill converges to the same counters", func(t *testing.T) {
		result, err := h.populate.Handle(ctx, commands.PopulateLedgerCommand{UserID: "user-1", Force: true})
		require.NoError(t, err)
		require.False(t, result.Skipped)
		assert.Equal(t, 3, result.DaysImported)
		assert.Equal(t, uint(3), result.State.CurrentStreak)
		assert.Equal(t, uint(3), result.State.LongestStreak)
	})

	t.Run("stale counters are repaired at read time", func(t *testing.T) {
		// A single entry five days back leaves a counter of 1 that no
		// longer holds today.
		h.record(t, "user-2", today.AddDays(-5))

		view, err := h.getStreak.Handle(ctx, queries.GetStreakQuery{UserID: "user-2"})
		require.NoError(t, err)
		assert.Equal(t, uint(0), view.CurrentStreak)
		assert.Equal(t, uint(1), view.LongestStreak)
		assert.Contains(t, h.publisher.types(), "streak.corrected")
	})

	t.Run("active user gets a bounded well-formed nudge list", func(t *testing.T) {
		for offset := -10; offset <= 0; offset++ {
			err := h.recordSentiment.Handle(ctx, commands.RecordSentimentCommand{
				UserID:      "user-1",
				EntryID:     fmt.Sprintf("scored-%d", offset),
				ProcessedAt: time.Now().UTC().AddDate(0, 0, offset),
				Score:       0.1 * float64(offset%5),
			})
			require.NoError(t, err)
		}

		view, err := h.getNudges.Handle(ctx, queries.GetNudgesQuery{UserID: "user-1"})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(view.Nudges), 3)
		for _, n := range view.Nudges {
			assert.NotEmpty(t, n.ID)
			assert.NotEmpty(t, n.Message)
			assert.NotContains(t, n.Message, "{")
			assert.True(t, n.Action.Valid())
		}
	})

	t.Run("silent user gets exactly the missed days nudge", func(t *testing.T) {
		view, err := h.getNudges.Handle(ctx, queries.GetNudgesQuery{UserID: "user-nobody"})
		require.NoError(t, err)
		require.Len(t, view.Nudges, 1)
		assert.Equal(t, insight.KindMissedDays, view.Nudges[0].Kind)
		assert.Equal(t, insight.PriorityHigh, view.Nudges[0].Priority)
	})

	t.Run("every published event targets its user", func(t *testing.T) {
		for _, e := range h.publisher.all() {
			assert.True(t, strings.HasPrefix(e.GetAggregateID(), "user-"))
			assert.False(t, e.GetTimestamp().IsZero())
		}
	})
}

// In-memory ports

type memStreakRepo struct {
	mu      sync.Mutex
	records map[string]*ports.StreakRecord
}

func newMemStreakRepo() *memStreakRepo {
	return &memStreakRepo{records: make(map[string]*ports.StreakRecord)}
}

func (r *memStreakRepo) Get(_ context.Context, userID string) (*ports.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("streak")
	}
	cp := *rec
	return &cp, nil
}

func (r *memStreakRepo) Save(_ context.Context, record *ports.StreakRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.Version++
	cp := *record
	r.records[record.UserID] = &cp
	return nil
}

type memEntryStore struct {
	mu      sync.Mutex
	entries map[string][]*ports.Entry
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[string][]*ports.Entry)}
}

func (s *memEntryStore) Save(_ context.Context, entry *ports.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.UserID] = append(s.entries[entry.UserID], entry)
	return nil
}

func (s *memEntryStore) ListDates(_ context.Context, userID string) ([]streak.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]streak.Date)
	for _, e := range s.entries[userID] {
		seen[e.EntryDate.String()] = e.EntryDate
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dates := make([]streak.Date, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, seen[k])
	}
	return dates, nil
}

type memSentimentStore struct {
	mu      sync.Mutex
	records map[string][]insight.SentimentRecord
}

func newMemSentimentStore() *memSentimentStore {
	return &memSentimentStore{records: make(map[string][]insight.SentimentRecord)}
}

func (s *memSentimentStore) Save(_ context.Context, record *insight.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], *record)
	return nil
}

func (s *memSentimentStore) ListSince(_ context.Context, userID string, since time.Time) ([]insight.SentimentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []insight.SentimentRecord
	for _, rec := range s.records[userID] {
		if !rec.ProcessedAt.Before(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessedAt.Before(out[j].ProcessedAt) })
	return out, nil
}

type memLockManager struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLockManager() *memLockManager {
	return &memLockManager{held: make(map[string]bool)}
}

func (m *memLockManager) Acquire(_ context.Context, name string, _ time.Duration) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[name] {
		return nil, apperrors.NewConflictError("lock held: " + name)
	}
	m.held[name] = true
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, name)
		return nil
	}, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, evs []events.DomainEvent) error {
	for _, e := range evs {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

func (p *capturingPublisher) all() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.events...)
}
