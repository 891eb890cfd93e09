package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testHours(opensMin, closesMin int) *WorkingHours {
	return &WorkingHours{
		StylistID: uuid.New(),
		Weekday:   time.Monday,
		OpensMin:  opensMin,
		ClosesMin: closesMin,
		Timezone:  "UTC",
	}
}

func at(day time.Time, hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func hasSlot(slots []TimeSlot, start, end time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) && s.End.Equal(end) {
			return true
		}
	}
	return false
}

func TestSuggestDay_SlotsStayWithinWorkingHours(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)

	slots := SuggestDay(day, hours, nil, 60*time.Minute)
	if len(slots) == 0 {
		t.Fatal("expected slots for an open day")
	}

	opens := at(day, 9, 0)
	closes := at(day, 21, 0)
	for _, s := range slots {
		if s.Start.Before(opens) {
			t.Errorf("slot %s starts before opening", s.Start.Format("15:04"))
		}
		if s.End.After(closes) {
			t.Errorf("slot ending %s runs past closing", s.End.Format("15:04"))
		}
		if !s.End.Equal(s.Start.Add(60 * time.Minute)) {
			t.Errorf("slot %s has wrong length", s.Start.Format("15:04"))
		}
	}
}

func TestSuggestDay_AvoidsBusyBlocks(t *testing.T) {
	// Hours 09:00-21:00, 60 minute booking, one block 10:00-12:00.
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)
	busy := []BusyBlock{
		{Start: at(day, 10, 0), End: at(day, 12, 0), Reason: ReasonAppointment},
	}

	slots := SuggestDay(day, hours, busy, 60*time.Minute)

	if !hasSlot(slots, at(day, 9, 0), at(day, 10, 0)) {
		t.Error("expected 09:00-10:00 before the block")
	}
	if hasSlot(slots, at(day, 9, 45), at(day, 10, 45)) {
		t.Error("09:45-10:45 overlaps the block and must not appear")
	}
	if !hasSlot(slots, at(day, 12, 0), at(day, 13, 0)) {
		t.Error("expected 12:00-13:00 right after the block")
	}

	for _, s := range slots {
		for _, b := range busy {
			if s.Start.Before(b.End) && b.Start.Before(s.End) {
				t.Errorf("slot %s-%s overlaps busy block", s.Start.Format("15:04"), s.End.Format("15:04"))
			}
		}
	}
}

func TestSuggestDay_NothingFitsHalfDay(t *testing.T) {
	// 240 minutes against a 09:00-13:00 Friday half-day.
	day := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 13*60)

	slots := SuggestDay(day, hours, nil, 240*time.Minute)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestSuggestDay_ClosedDay(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if slots := SuggestDay(day, nil, nil, 60*time.Minute); len(slots) != 0 {
		t.Fatalf("expected no slots on a closed day, got %d", len(slots))
	}
}

func TestSuggestDay_SortedByScoreDescending(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)
	busy := []BusyBlock{
		{Start: at(day, 13, 0), End: at(day, 13, 30), Reason: ReasonPrayerTime},
	}

	slots := SuggestDay(day, hours, busy, 45*time.Minute)
	if len(slots) != MaxSuggestions {
		t.Fatalf("expected %d slots, got %d", MaxSuggestions, len(slots))
	}

	for i := 1; i < len(slots); i++ {
		if slots[i].Score > slots[i-1].Score {
			t.Fatalf("slots not sorted by score: %f after %f", slots[i].Score, slots[i-1].Score)
		}
	}
}

func TestSuggestDay_Scoring(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)
	busy := []BusyBlock{
		{Start: at(day, 13, 0), End: at(day, 13, 30), Reason: ReasonPrayerTime},
	}

	slots := SuggestDay(day, hours, busy, 30*time.Minute)

	find := func(hour, min int) *TimeSlot {
		for i := range slots {
			if slots[i].Start.Equal(at(day, hour, min)) {
				return &slots[i]
			}
		}
		return nil
	}

	// First candidate of the day: base 0.9 + morning 0.05 + next-available
	// 0.08, clamped to 1.
	first := find(9, 0)
	if first == nil {
		t.Fatal("expected 09:00 slot in the top suggestions")
	}
	if !approx(first.Score, 1.0) {
		t.Errorf("expected 09:00 score 1.0, got %f", first.Score)
	}

	// Morning slot without bonuses: 0.9 + 0.05.
	if s := find(9, 15); s != nil && !approx(s.Score, 0.95) {
		t.Errorf("expected 09:15 score 0.95, got %f", s.Score)
	}

	// A slot starting within 30 minutes after the prayer block is penalized
	// to 0.8 and ranks below plain afternoon slots, so it is not in the top
	// list at all here. Verify directly against the scorer instead.
	penalized := TimeSlot{Start: at(day, 13, 30), End: at(day, 14, 0)}
	scoreSlot(&penalized, false, busy)
	if !approx(penalized.Score, 0.8) {
		t.Errorf("expected 13:30 score 0.8, got %f", penalized.Score)
	}
	if len(penalized.Reasons) != 1 || penalized.Reasons[0] != "shortly after prayer time" {
		t.Errorf("unexpected reasons: %v", penalized.Reasons)
	}

	// Exactly 30 minutes after the block the penalty no longer applies.
	clear := TimeSlot{Start: at(day, 14, 0), End: at(day, 14, 30)}
	scoreSlot(&clear, false, busy)
	if !approx(clear.Score, 0.9) {
		t.Errorf("expected 14:00 score 0.9, got %f", clear.Score)
	}
}

func TestSuggestDay_Deterministic(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)
	busy := []BusyBlock{
		{Start: at(day, 10, 0), End: at(day, 11, 0), Reason: ReasonAppointment},
		{Start: at(day, 13, 0), End: at(day, 13, 30), Reason: ReasonPrayerTime},
	}

	a := SuggestDay(day, hours, busy, 60*time.Minute)
	b := SuggestDay(day, hours, busy, 60*time.Minute)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || a[i].Score != b[i].Score {
			t.Fatalf("slot %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSuggestDay_CapsSuggestions(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)

	slots := SuggestDay(day, hours, nil, 15*time.Minute)
	if len(slots) > MaxSuggestions {
		t.Fatalf("expected at most %d slots, got %d", MaxSuggestions, len(slots))
	}
}

func TestSuggestDay_ZeroDuration(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := testHours(9*60, 21*60)

	if slots := SuggestDay(day, hours, nil, 0); slots != nil {
		t.Fatalf("expected nil for zero duration, got %d slots", len(slots))
	}
}
