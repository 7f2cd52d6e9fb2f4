package streak

// DayLedger is the append-only set of calendar days on which a user
// journaled at least once. Days are only ever added; there is no removal
// API, so replaying the same events in any order converges to the same
// set. It is the source of truth streak counters are recomputed from.
type DayLedger struct {
	days map[string]bool
}

// NewDayLedger returns an empty ledger.
func NewDayLedger() *DayLedger {
	return &DayLedger{days: make(map[string]bool)}
}

// LedgerFromDays reconstructs a ledger from stored day keys. Unparseable
// keys are skipped; the ledger never fails to load wholesale because one
// record is malformed.
func LedgerFromDays(days map[string]bool) *DayLedger {
	l := NewDayLedger()
	for k, marked := range days {
		if !marked {
			continue
		}
		if d, err := ParseDate(k); err == nil {
			l.days[d.String()] = true
		}
	}
	return l
}

// Mark records that the user journaled on d. Marking an already-present
// day is a no-op. Returns true when the day was newly added.
func (l *DayLedger) Mark(d Date) bool {
	key := d.String()
	if l.days[key] {
		return false
	}
	l.days[key] = true
	return true
}

// Contains reports whether d is in the ledger.
func (l *DayLedger) Contains(d Date) bool {
	return l.days[d.String()]
}

// Len returns the number of distinct journaled days.
func (l *DayLedger) Len() int {
	return len(l.days)
}

// Days returns the ledger as a map of day keys, suitable for persistence.
// The returned map is a copy.
func (l *DayLedger) Days() map[string]bool {
	out := make(map[string]bool, len(l.days))
	for k := range l.days {
		out[k] = true
	}
	return out
}
