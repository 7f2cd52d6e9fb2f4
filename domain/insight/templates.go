package insight

import "strings"

// template pairs the static copy of a nudge kind with its default
// priority and action. Placeholders use {name} syntax; Render substitutes
// only the names a candidate supplies.
type template struct {
	title    string
	message  string
	priority Priority
	action   Action
}

// catalog is the static nudge catalog. Every Kind an analyzer can emit
// must have an entry here.
var catalog = map[Kind]template{
	KindDifficultDay: {
		title:    "{day}s look tough",
		message:  "Your entries on {day}s tend to carry a heavier mood ({sentiment} on average). A small ritual on {day} mornings might help.",
		priority: PriorityMedium,
		action:   ActionPlanAhead,
	},
	KindMissedDays: {
		title:    "Your journal misses you",
		message:  "It's been {days} days since your last entry. Even a couple of sentences keeps the habit alive.",
		priority: PriorityHigh,
		action:   ActionOpenJournal,
	},
	KindNegativeTrend: {
		title:    "This week feels heavier",
		message:  "Your recent entries trend more negative than the days before. Writing about what changed can help you see it clearly.",
		priority: PriorityHigh,
		action:   ActionOpenJournal,
	},
	KindPositiveMomentum: {
		title:    "You're on an upswing",
		message:  "Your mood has been climbing over the last week. Worth a look at what's working.",
		priority: PriorityLow,
		action:   ActionViewTrends,
	},
	KindWeekendShift: {
		title:    "Your {time} entries read differently",
		message:  "Your mood on {time}s runs noticeably {sentiment} than the rest of the week.",
		priority: PriorityMedium,
		action:   ActionViewTrends,
	},
	KindTimeOfDay: {
		title:    "{time} suits you",
		message:  "Entries written in the {time} carry your better moods. Journaling then might come easier.",
		priority: PriorityLow,
		action:   ActionSetReminder,
	},
}

// renderTemplate substitutes the candidate's named parameters into a
// template string. Unknown placeholders are left untouched rather than
// erased, so a missing parameter is visible instead of silent.
func renderTemplate(s string, params map[string]string) string {
	for name, value := range params {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}
