package insight

import (
	"sort"
	"strconv"
	"time"

	"mindrise-backend/domain/streak"
)

// Analyzer thresholds. The 2-sample minimum is a confidence floor rather
// than a hard correctness requirement; tune with care.
const (
	minSamplesPerGroup = 2

	weekdayGapThreshold  = 0.3
	weekdayLowThreshold  = -0.1
	missingDaysThreshold = 3
	trendWindowDays      = 14
	trendMaxBuckets      = 7
	trendMinBuckets      = 3
	trendShiftThreshold  = 0.2
	weekendDiffThreshold = 0.2
	timeDiffThreshold    = 0.15
)

// An analyzerFunc inspects a snapshot and yields at most one candidate.
// Analyzers are pure and must tolerate arbitrary input; returning nil is
// the only failure mode they have.
type analyzerFunc func(*Snapshot) *Candidate

// analyzer pairs a kind with its function. The order of analyzerChain is
// the tie-break order for equal-priority nudges, so it is fixed.
type analyzer struct {
	kind Kind
	fn   analyzerFunc
}

var analyzerChain = []analyzer{
	{kind: KindDifficultDay, fn: analyzeDayOfWeek},
	{kind: KindMissedDays, fn: analyzeMissingEntries},
	{kind: KindNegativeTrend, fn: analyzeTrend},
	{kind: KindWeekendShift, fn: analyzeWeekendShift},
	{kind: KindTimeOfDay, fn: analyzeTimeOfDay},
}

// analyzeDayOfWeek flags the weekday whose mean sentiment sits well below
// the user's best weekday.
func analyzeDayOfWeek(s *Snapshot) *Candidate {
	groups := make(map[time.Weekday][]float64)
	for _, rec := range s.Scores {
		wd := rec.ProcessedAt.UTC().Weekday()
		groups[wd] = append(groups[wd], rec.Score)
	}

	var (
		haveAny  bool
		minMean  float64
		maxMean  float64
		worstDay time.Weekday
	)
	for wd, scores := range groups {
		if len(scores) < minSamplesPerGroup {
			continue
		}
		m := mean(scores)
		if !haveAny {
			minMean, maxMean, worstDay, haveAny = m, m, wd, true
			continue
		}
		if m < minMean {
			minMean, worstDay = m, wd
		}
		if m > maxMean {
			maxMean = m
		}
	}

	if !haveAny || maxMean-minMean <= weekdayGapThreshold || minMean >= weekdayLowThreshold {
		return nil
	}

	return &Candidate{
		Kind: KindDifficultDay,
		Params: map[string]string{
			"day":       worstDay.String(),
			"sentiment": formatScore(minMean),
		},
	}
}

// analyzeMissingEntries fires when the user has not journaled for several
// days, or has never journaled at all. When the streak record could not
// be read it stays silent rather than guessing.
func analyzeMissingEntries(s *Snapshot) *Candidate {
	if s.StreakUnavailable {
		return nil
	}
	days, ok := s.DaysSinceLastEntry()
	if !ok {
		return &Candidate{
			Kind:   KindMissedDays,
			Params: map[string]string{"days": "many"},
		}
	}
	if days < missingDaysThreshold {
		return nil
	}
	return &Candidate{
		Kind:   KindMissedDays,
		Params: map[string]string{"days": strconv.Itoa(days)},
	}
}

// analyzeTrend compares the first and second half of the user's most
// recent journaled days and reports a sustained shift either way.
func analyzeTrend(s *Snapshot) *Candidate {
	cutoff := s.Now.AddDate(0, 0, -trendWindowDays)
	buckets := make(map[string][]float64)
	for _, rec := range s.Scores {
		if rec.ProcessedAt.Before(cutoff) {
			continue
		}
		key := streak.DateOf(rec.ProcessedAt).String()
		buckets[key] = append(buckets[key], rec.Score)
	}

	days := make([]string, 0, len(buckets))
	for key := range buckets {
		days = append(days, key)
	}
	sort.Strings(days)
	if len(days) > trendMaxBuckets {
		days = days[len(days)-trendMaxBuckets:]
	}
	if len(days) < trendMinBuckets {
		return nil
	}

	dayMeans := make([]float64, len(days))
	for i, key := range days {
		dayMeans[i] = mean(buckets[key])
	}

	half := len(dayMeans) / 2
	diff := mean(dayMeans[half:]) - mean(dayMeans[:half])

	switch {
	case diff < -trendShiftThreshold:
		return &Candidate{Kind: KindNegativeTrend}
	case diff > trendShiftThreshold:
		return &Candidate{Kind: KindPositiveMomentum}
	default:
		return nil
	}
}

// analyzeWeekendShift reports when weekend sentiment departs notably from
// the working week.
func analyzeWeekendShift(s *Snapshot) *Candidate {
	var weekend, weekdays []float64
	for _, rec := range s.Scores {
		switch rec.ProcessedAt.UTC().Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, rec.Score)
		default:
			weekdays = append(weekdays, rec.Score)
		}
	}
	if len(weekend) < minSamplesPerGroup || len(weekdays) < minSamplesPerGroup {
		return nil
	}

	diff := mean(weekend) - mean(weekdays)
	if diff <= weekendDiffThreshold && diff >= -weekendDiffThreshold {
		return nil
	}

	sentiment := "brighter"
	if diff < 0 {
		sentiment = "heavier"
	}
	return &Candidate{
		Kind: KindWeekendShift,
		Params: map[string]string{
			"time":      "weekend",
			"sentiment": sentiment,
		},
	}
}

// analyzeTimeOfDay reports whether morning or evening entries carry the
// better mood.
func analyzeTimeOfDay(s *Snapshot) *Candidate {
	var morning, evening []float64
	for _, rec := range s.Scores {
		if rec.ProcessedAt.UTC().Hour() < 12 {
			morning = append(morning, rec.Score)
		} else {
			evening = append(evening, rec.Score)
		}
	}
	if len(morning) < minSamplesPerGroup || len(evening) < minSamplesPerGroup {
		return nil
	}

	diff := mean(morning) - mean(evening)
	if diff <= timeDiffThreshold && diff >= -timeDiffThreshold {
		return nil
	}

	segment := "morning"
	if diff < 0 {
		segment = "evening"
	}
	return &Candidate{
		Kind:   KindTimeOfDay,
		Params: map[string]string{"time": segment},
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
