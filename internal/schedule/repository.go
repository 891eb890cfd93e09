package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrInvalidBlock   = errors.New("busy block end must be after start")
)

// ServiceSlot is the slice of the service catalog the generator needs: how
// much stylist time a service occupies.
type ServiceSlot struct {
	ID           uuid.UUID
	DurationMin  int
	BufferBefore int
	BufferAfter  int
}

// Repository contains all DB interactions needed by the assistant.
type Repository interface {
	// GetWorkingHours returns nil (not an error) when the stylist has no
	// window for that weekday, i.e. the salon is closed.
	GetWorkingHours(ctx context.Context, stylistID uuid.UUID, weekday time.Weekday) (*WorkingHours, error)

	// ListBusyBlocks returns, in chronological order, every interval that
	// makes the stylist unavailable within [from, to): explicit blocks plus
	// active appointments projected as blocks.
	ListBusyBlocks(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]BusyBlock, error)

	CreateBusyBlock(ctx context.Context, block *BusyBlock) (*BusyBlock, error)

	GetServiceSlots(ctx context.Context, ids []uuid.UUID) ([]ServiceSlot, error)
}
