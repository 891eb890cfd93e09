package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ViewMode string

const (
	ViewDay  ViewMode = "day"
	ViewWeek ViewMode = "week"
)

var (
	ErrNoServicesSelected = errors.New("at least one service must be selected")
	ErrInvalidViewMode    = errors.New("view must be day or week")
)

// Assistant produces ranked availability suggestions for a stylist from the
// persisted working hours and busy intervals.
type Assistant struct {
	repo Repository
}

func NewAssistant(repo Repository) *Assistant {
	return &Assistant{repo: repo}
}

// Suggest returns per-day ranked slots for the stylist. date names the civil
// day (its year/month/day are used; its own location is ignored, the stylist's
// working-hours timezone applies). ViewWeek covers the seven days starting at
// date.
func (a *Assistant) Suggest(ctx context.Context, stylistID uuid.UUID, serviceIDs []uuid.UUID, date time.Time, view ViewMode) ([]DaySuggestions, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServicesSelected
	}

	var days int
	switch view {
	case ViewDay, "":
		days = 1
	case ViewWeek:
		days = 7
	default:
		return nil, ErrInvalidViewMode
	}

	slots, err := a.repo.GetServiceSlots(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	totalMinutes := 0
	for _, s := range slots {
		totalMinutes += s.DurationMin + s.BufferBefore + s.BufferAfter
	}
	total := time.Duration(totalMinutes) * time.Minute

	result := make([]DaySuggestions, 0, days)
	for i := 0; i < days; i++ {
		d := date.AddDate(0, 0, i)

		day, err := a.suggestOne(ctx, stylistID, d, total)
		if err != nil {
			return nil, err
		}
		result = append(result, day)
	}

	return result, nil
}

func (a *Assistant) suggestOne(ctx context.Context, stylistID uuid.UUID, date time.Time, total time.Duration) (DaySuggestions, error) {
	// Weekday depends on the stylist's timezone, which lives on the working
	// hours row; resolve with the civil date first, in UTC, then re-anchor.
	year, month, dayOfMonth := date.Date()
	probe := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)

	hours, err := a.repo.GetWorkingHours(ctx, stylistID, probe.Weekday())
	if err != nil {
		return DaySuggestions{}, fmt.Errorf("load working hours: %w", err)
	}
	if hours == nil {
		return DaySuggestions{Date: probe, Closed: true}, nil
	}

	loc, err := time.LoadLocation(hours.Timezone)
	if err != nil {
		loc = time.UTC
	}
	midnight := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, loc)

	dayEnd := midnight.Add(24 * time.Hour)
	busy, err := a.repo.ListBusyBlocks(ctx, stylistID, midnight, dayEnd)
	if err != nil {
		return DaySuggestions{}, fmt.Errorf("load busy blocks: %w", err)
	}

	return DaySuggestions{
		Date:  midnight,
		Slots: SuggestDay(midnight, hours, busy, total),
	}, nil
}

// AddBusyBlock records an interval during which the stylist is unavailable.
func (a *Assistant) AddBusyBlock(ctx context.Context, block *BusyBlock) (*BusyBlock, error) {
	if !block.End.After(block.Start) {
		return nil, ErrInvalidBlock
	}
	created, err := a.repo.CreateBusyBlock(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("create busy block: %w", err)
	}
	return created, nil
}

// ListBusyBlocks returns the stylist's busy intervals within [from, to).
func (a *Assistant) ListBusyBlocks(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]BusyBlock, error) {
	blocks, err := a.repo.ListBusyBlocks(ctx, stylistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy blocks: %w", err)
	}
	return blocks, nil
}
