// Package insight derives behavioral nudges from a user's historical
// sentiment series. Analyzers are pure functions over an immutable
// snapshot; the composer fans them out, ranks the candidates and renders
// the final bounded list. Nothing in this package persists anything.
package insight

import (
	"time"
)

// Priority orders nudges for presentation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns the numeric rank of a priority. Unknown values sort last.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Action is the closed set of client behaviors a nudge can suggest.
// Dispatch happens over this enum, never over free-form strings.
type Action string

const (
	ActionOpenJournal Action = "open_journal"
	ActionViewTrends  Action = "view_trends"
	ActionSetReminder Action = "set_reminder"
	ActionPlanAhead   Action = "plan_ahead"
)

// actionLabels is the complete label table for the Action enum. Every
// Action constant must have an entry; Valid relies on it.
var actionLabels = map[Action]string{
	ActionOpenJournal: "Write an entry",
	ActionViewTrends:  "See your trends",
	ActionSetReminder: "Set a reminder",
	ActionPlanAhead:   "Plan something good",
}

// Valid reports whether a is a known action tag.
func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Label returns the human-readable button text for the action.
func (a Action) Label() string {
	return actionLabels[a]
}

// Kind identifies which analyzer produced a nudge.
type Kind string

const (
	KindDifficultDay     Kind = "difficult_day"
	KindMissedDays       Kind = "missed_days"
	KindNegativeTrend    Kind = "negative_trend"
	KindPositiveMomentum Kind = "positive_momentum"
	KindWeekendShift     Kind = "weekend_shift"
	KindTimeOfDay        Kind = "time_of_day"
)

// Nudge is a rendered, prioritized behavioral suggestion. Nudges are
// computed per request and never stored.
type Nudge struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Priority    Priority  `json:"priority"`
	Action      Action    `json:"action"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Candidate is an analyzer's un-rendered output: a nudge kind plus the
// values to substitute into its template.
type Candidate struct {
	Kind     Kind
	Priority Priority
	Action   Action
	Params   map[string]string
}
