package streak

// State holds the derived streak counters for one user. It is owned by a
// single writer; concurrent mutation must be serialized by the caller.
type State struct {
	CurrentStreak   uint
	LongestStreak   uint
	LastJournalDate *Date
}

// ApplyDay folds one journaled day into the counters using the
// consecutive-day rule and marks it in the ledger. Days already present
// in the ledger never change the counters, so duplicate entry events are
// harmless. A day earlier than the last journal date is marked but does
// not touch the counters; the next recomputation folds it in.
func (s *State) ApplyDay(ledger *DayLedger, d Date) bool {
	if !ledger.Mark(d) {
		return false
	}

	switch {
	case s.LastJournalDate == nil:
		// First entry ever, or a previously malformed last date: fresh start.
		s.CurrentStreak = 1
	default:
		diff := d.DiffDays(*s.LastJournalDate)
		switch {
		case diff == 1:
			s.CurrentStreak++
		case diff > 1:
			s.CurrentStreak = 1
		default:
			// Backdated day. Counters are left alone; Recompute corrects.
			if s.LongestStreak < s.CurrentStreak {
				s.LongestStreak = s.CurrentStreak
			}
			return true
		}
	}

	if s.LongestStreak < s.CurrentStreak {
		s.LongestStreak = s.CurrentStreak
	}
	last := d
	s.LastJournalDate = &last
	return true
}

// Recompute derives the corrected current streak by walking backward
// through the ledger from today. A streak whose most recent day is
// yesterday is still alive — it only breaks once a full day has been
// missed. The longest streak is never decreased by a recomputation.
func Recompute(ledger *DayLedger, today Date) (current uint) {
	anchor := today
	if !ledger.Contains(anchor) {
		anchor = today.AddDays(-1)
		if !ledger.Contains(anchor) {
			return 0
		}
	}
	for d := anchor; ledger.Contains(d); d = d.AddDays(-1) {
		current++
	}
	return current
}

// Reconcile applies a recomputed current streak to the state, returning
// true when the stored value drifted. LongestStreak only grows.
func (s *State) Reconcile(ledger *DayLedger, today Date) bool {
	current := Recompute(ledger, today)
	changed := current != s.CurrentStreak
	s.CurrentStreak = current
	if s.LongestStreak < current {
		s.LongestStreak = current
	}
	return changed
}

// Rebuild reconstructs ledger and state from the full ordered history of
// a user's journaled days (ascending). It is pure and idempotent: the
// same history always yields the same final state.
func Rebuild(days []Date) (*DayLedger, State) {
	ledger := NewDayLedger()
	var s State
	for _, d := range days {
		s.ApplyDay(ledger, d)
	}
	return ledger, s
}
