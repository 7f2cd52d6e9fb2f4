package commands

import (
	"context"
	"sort"
	"sync"
	"time"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/streak"
	apperrors "mindrise-backend/pkg/errors"
)

type memStreakRepo struct {
	mu      sync.Mutex
	records map[string]*ports.StreakRecord
	failGet error
	failPut error
	saves   int
}

func newMemStreakRepo() *memStreakRepo {
	return &memStreakRepo{records: make(map[string]*ports.StreakRecord)}
}

func (r *memStreakRepo) Get(_ context.Context, userID string) (*ports.StreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
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
	if r.failPut != nil {
		return r.failPut
	}
	record.Version++
	cp := *record
	r.records[record.UserID] = &cp
	r.saves++
	return nil
}

type memEntryStore struct {
	mu       sync.Mutex
	entries  map[string][]*ports.Entry
	failSave error
	failList error
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[string][]*ports.Entry)}
}

func (s *memEntryStore) Save(_ context.Context, entry *ports.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.entries[entry.UserID] = append(s.entries[entry.UserID], entry)
	return nil
}

func (s *memEntryStore) ListDates(_ context.Context, userID string) ([]streak.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
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
	fail   error
}

func (p *capturingPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
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

type capturingNotifier struct {
	mu     sync.Mutex
	pushes []streak.State
}

func (n *capturingNotifier) NotifyStreak(_ context.Context, _ string, state streak.State) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, state)
	return nil
}
