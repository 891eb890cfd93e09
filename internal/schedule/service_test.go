package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeScheduleRepo struct {
	hours    map[time.Weekday]*WorkingHours
	busy     []BusyBlock
	services map[uuid.UUID]ServiceSlot
	blocks   []BusyBlock
}

func (f *fakeScheduleRepo) GetWorkingHours(ctx context.Context, stylistID uuid.UUID, weekday time.Weekday) (*WorkingHours, error) {
	return f.hours[weekday], nil
}

func (f *fakeScheduleRepo) ListBusyBlocks(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]BusyBlock, error) {
	var out []BusyBlock
	for _, b := range f.busy {
		if b.Start.Before(to) && from.Before(b.End) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) CreateBusyBlock(ctx context.Context, block *BusyBlock) (*BusyBlock, error) {
	created := *block
	created.ID = uuid.New()
	f.blocks = append(f.blocks, created)
	return &created, nil
}

func (f *fakeScheduleRepo) GetServiceSlots(ctx context.Context, ids []uuid.UUID) ([]ServiceSlot, error) {
	out := make([]ServiceSlot, 0, len(ids))
	for _, id := range ids {
		s, ok := f.services[id]
		if !ok {
			return nil, ErrUnknownService
		}
		out = append(out, s)
	}
	return out, nil
}

func newFakeScheduleRepo() (*fakeScheduleRepo, uuid.UUID) {
	svcID := uuid.New()
	return &fakeScheduleRepo{
		hours: map[time.Weekday]*WorkingHours{
			time.Monday: {Weekday: time.Monday, OpensMin: 9 * 60, ClosesMin: 21 * 60, Timezone: "UTC"},
		},
		services: map[uuid.UUID]ServiceSlot{
			svcID: {ID: svcID, DurationMin: 45, BufferAfter: 15},
		},
	}, svcID
}

func TestAssistant_SuggestDay(t *testing.T) {
	repo, svcID := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	// 2026-03-02 is a Monday.
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	days, err := assistant.Suggest(context.Background(), uuid.New(), []uuid.UUID{svcID}, date, ViewDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].Closed {
		t.Fatal("Monday should be open")
	}
	if len(days[0].Slots) == 0 {
		t.Fatal("expected slots on an open day")
	}

	// 45 + 15 buffer minutes total.
	first := days[0].Slots[0]
	if !first.End.Equal(first.Start.Add(60 * time.Minute)) {
		t.Errorf("expected 60 minute slots, got %s", first.End.Sub(first.Start))
	}
}

func TestAssistant_ClosedWeekday(t *testing.T) {
	repo, svcID := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	// 2026-03-01 is a Sunday with no working hours entry.
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	days, err := assistant.Suggest(context.Background(), uuid.New(), []uuid.UUID{svcID}, date, ViewDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !days[0].Closed {
		t.Fatal("expected closed day")
	}
	if len(days[0].Slots) != 0 {
		t.Fatalf("closed day must have no slots, got %d", len(days[0].Slots))
	}
}

func TestAssistant_WeekView(t *testing.T) {
	repo, svcID := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	days, err := assistant.Suggest(context.Background(), uuid.New(), []uuid.UUID{svcID}, date, ViewWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}

	// Only the Monday in the window is open.
	open := 0
	for _, d := range days {
		if !d.Closed {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("expected exactly 1 open day, got %d", open)
	}
}

func TestAssistant_NoServices(t *testing.T) {
	repo, _ := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := assistant.Suggest(context.Background(), uuid.New(), nil, date, ViewDay)
	if !errors.Is(err, ErrNoServicesSelected) {
		t.Fatalf("expected ErrNoServicesSelected, got %v", err)
	}
}

func TestAssistant_UnknownService(t *testing.T) {
	repo, _ := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := assistant.Suggest(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, date, ViewDay)
	if !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestAssistant_InvalidView(t *testing.T) {
	repo, svcID := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := assistant.Suggest(context.Background(), uuid.New(), []uuid.UUID{svcID}, date, ViewMode("month"))
	if !errors.Is(err, ErrInvalidViewMode) {
		t.Fatalf("expected ErrInvalidViewMode, got %v", err)
	}
}

func TestAssistant_RejectsBackwardsBlock(t *testing.T) {
	repo, _ := newFakeScheduleRepo()
	assistant := NewAssistant(repo)

	start := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	_, err := assistant.AddBusyBlock(context.Background(), &BusyBlock{
		StylistID: uuid.New(),
		Start:     start,
		End:       start.Add(-time.Hour),
		Reason:    ReasonBreak,
	})
	if !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock, got %v", err)
	}
}
