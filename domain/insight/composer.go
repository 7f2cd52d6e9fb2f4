package insight

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxNudges bounds the composed list.
const MaxNudges = 3

// Composer fans the analyzer chain out over one snapshot, collects the
// candidates, renders them against the catalog and returns the top
// MaxNudges by priority. It holds no state besides its logger.
type Composer struct {
	logger *zap.Logger
}

// NewComposer creates a nudge composer.
func NewComposer(logger *zap.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose runs every analyzer concurrently against the snapshot. A
// panicking or misbehaving analyzer degrades to "no nudge" for its slot;
// the composed response is always well-formed.
func (c *Composer) Compose(ctx context.Context, snapshot *Snapshot) []Nudge {
	type result struct {
		idx  int
		cand *Candidate
	}

	results := make(chan result, len(analyzerChain))
	for i, a := range analyzerChain {
		go func(i int, a analyzer) {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("analyzer panicked",
						zap.String("kind", string(a.kind)),
						zap.Any("panic", r),
					)
					results <- result{idx: i}
				}
			}()
			results <- result{idx: i, cand: a.fn(snapshot)}
		}(i, a)
	}

	collected := make([]*Candidate, len(analyzerChain))
	for range analyzerChain {
		select {
		case r := <-results:
			collected[r.idx] = r.cand
		case <-ctx.Done():
			// Whatever has arrived still composes; slow analyzers degrade
			// to no signal.
			c.logger.Warn("nudge composition cut short",
				zap.String("userID", snapshot.UserID),
				zap.Error(ctx.Err()),
			)
			return c.rank(snapshot, collected)
		}
	}

	return c.rank(snapshot, collected)
}

// rank renders the non-nil candidates in analyzer order, then sorts by
// priority weight descending. The sort is stable, so ties keep the fixed
// analyzer evaluation order.
func (c *Composer) rank(snapshot *Snapshot, candidates []*Candidate) []Nudge {
	now := snapshot.Now
	nudges := make([]Nudge, 0, len(candidates))
	for _, cand := range candidates {
		if cand == nil {
			continue
		}
		n, ok := c.render(cand, now)
		if !ok {
			continue
		}
		nudges = append(nudges, n)
	}

	sort.SliceStable(nudges, func(i, j int) bool {
		return nudges[i].Priority.Weight() > nudges[j].Priority.Weight()
	})

	if len(nudges) > MaxNudges {
		nudges = nudges[:MaxNudges]
	}
	return nudges
}

// render materializes a candidate using the catalog entry for its kind.
func (c *Composer) render(cand *Candidate, now time.Time) (Nudge, bool) {
	tmpl, ok := catalog[cand.Kind]
	if !ok {
		c.logger.Error("candidate has no catalog entry", zap.String("kind", string(cand.Kind)))
		return Nudge{}, false
	}

	priority := cand.Priority
	if priority == "" {
		priority = tmpl.priority
	}
	action := cand.Action
	if !action.Valid() {
		action = tmpl.action
	}

	return Nudge{
		ID:          uuid.New().String(),
		Kind:        cand.Kind,
		Title:       renderTemplate(tmpl.title, cand.Params),
		Message:     renderTemplate(tmpl.message, cand.Params),
		Priority:    priority,
		Action:      action,
		GeneratedAt: now,
	}, true
}
