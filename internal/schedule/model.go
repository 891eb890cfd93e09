package schedule

import (
	"time"

	"github.com/google/uuid"
)

type BlockReason string

const (
	ReasonAppointment BlockReason = "appointment"
	ReasonPrayerTime  BlockReason = "prayer_time"
	ReasonBreak       BlockReason = "break"
	ReasonTimeOff     BlockReason = "time_off"
)

// WorkingHours is one stylist's open/close window for a weekday. Minutes are
// counted from midnight salon-local time. A weekday with no row means closed.
type WorkingHours struct {
	StylistID uuid.UUID
	Weekday   time.Weekday
	OpensMin  int
	ClosesMin int
	Timezone  string
}

// BusyBlock is a [Start, End) interval during which the stylist is unavailable.
type BusyBlock struct {
	ID                  uuid.UUID
	StylistID           uuid.UUID
	Start               time.Time
	End                 time.Time
	Reason              BlockReason
	SourceAppointmentID *uuid.UUID
	CreatedAt           time.Time
}

// TimeSlot is a candidate bookable interval with its heuristic ranking score.
type TimeSlot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Score   float64   `json:"score"`
	Reasons []string  `json:"reasons,omitempty"`
}

// DaySuggestions is the generator output for one calendar day.
type DaySuggestions struct {
	Date   time.Time  `json:"date"`
	Closed bool       `json:"closed"`
	Slots  []TimeSlot `json:"slots"`
}
