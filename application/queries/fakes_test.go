package queries

import (
	"context"
	"sync"
	"time"

	"mindrise-backend/application/ports"
	"mindrise-backend/domain/events"
	"mindrise-backend/domain/insight"
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

type memSentimentStore struct {
	mu      sync.Mutex
	records []insight.SentimentRecord
	fail    error
}

func (s *memSentimentStore) Save(_ context.Context, record *insight.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *memSentimentStore) ListSince(_ context.Context, userID string, since time.Time) ([]insight.SentimentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []insight.SentimentRecord
	for _, r := range s.records {
		if r.UserID == userID && !r.ProcessedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
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
