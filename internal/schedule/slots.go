package schedule

import (
	"sort"
	"time"
)

const (
	// SlotStep is the granularity of candidate start times.
	SlotStep = 15 * time.Minute

	// MaxSuggestions caps how many ranked slots a day returns.
	MaxSuggestions = 10
)

const (
	baseScore          = 0.9
	morningBonus       = 0.05
	postPrayerPenalty  = 0.1
	nextAvailableBonus = 0.08

	// A start inside this window after a prayer_time block is penalized.
	postPrayerWindow = 30 * time.Minute
)

// SuggestDay walks one day in SlotStep increments and returns the ranked
// candidate slots for a booking of the given total duration.
//
// day must be midnight in the salon's location. hours nil means the salon is
// closed that weekday and the result is empty. The function is pure: identical
// inputs yield an identical ordered list, and neither busy nor hours is
// mutated.
func SuggestDay(day time.Time, hours *WorkingHours, busy []BusyBlock, total time.Duration) []TimeSlot {
	if hours == nil || total <= 0 {
		return nil
	}

	opens := day.Add(time.Duration(hours.OpensMin) * time.Minute)
	closes := day.Add(time.Duration(hours.ClosesMin) * time.Minute)
	if !closes.After(opens) {
		return nil
	}

	// Survivors in chronological order.
	var candidates []TimeSlot
	for t := opens; ; t = t.Add(SlotStep) {
		end := t.Add(total)
		if !end.Before(closes) {
			break
		}
		if overlapsAny(t, end, busy) {
			continue
		}
		candidates = append(candidates, TimeSlot{Start: t, End: end})
	}

	for i := range candidates {
		scoreSlot(&candidates[i], i == 0, busy)
	}

	// Highest score first; equal scores keep chronological order so repeated
	// calls return identical lists.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Start.Before(candidates[j].Start)
	})

	if len(candidates) > MaxSuggestions {
		candidates = candidates[:MaxSuggestions]
	}
	return candidates
}

func scoreSlot(slot *TimeSlot, first bool, busy []BusyBlock) {
	score := baseScore

	if slot.Start.Hour() < 12 {
		score += morningBonus
		slot.Reasons = append(slot.Reasons, "morning preference")
	}

	if startsShortlyAfterPrayer(slot.Start, busy) {
		score -= postPrayerPenalty
		slot.Reasons = append(slot.Reasons, "shortly after prayer time")
	}

	if first {
		score += nextAvailableBonus
		slot.Reasons = append(slot.Reasons, "next available")
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	slot.Score = score
}

func startsShortlyAfterPrayer(start time.Time, busy []BusyBlock) bool {
	for _, b := range busy {
		if b.Reason != ReasonPrayerTime {
			continue
		}
		if !start.Before(b.End) && start.Before(b.End.Add(postPrayerWindow)) {
			return true
		}
	}
	return false
}

// overlapsAny reports whether [start, end) intersects any busy interval.
// Half-open intervals: touching endpoints do not overlap.
func overlapsAny(start, end time.Time, busy []BusyBlock) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
