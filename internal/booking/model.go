package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	// StatusPending is a hold: the time is reserved until ExpiresAt.
	StatusPending    AppointmentStatus = "pending"
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusNoShow     AppointmentStatus = "no_show"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusExpired    AppointmentStatus = "expired"
)

// ActiveStatuses are the statuses that occupy a stylist's time and therefore
// participate in conflict checks.
var ActiveStatuses = []AppointmentStatus{
	StatusPending,
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type ExperienceLevel string

const (
	LevelJunior    ExperienceLevel = "junior"
	LevelSenior    ExperienceLevel = "senior"
	LevelCelebrity ExperienceLevel = "celebrity"
)

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Stylist struct {
	ID                 uuid.UUID
	Name               string
	Level              ExperienceLevel
	Skills             []string
	AllowDoubleBooking bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Service struct {
	ID             uuid.UUID
	Name           string
	Category       string
	DurationMin    int
	BufferBefore   int
	BufferAfter    int
	PriceCents     int64
	RequiredSkills []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SlotMinutes returns the minutes of stylist time the service occupies,
// buffers included.
func (s Service) SlotMinutes() int {
	return s.DurationMin + s.BufferBefore + s.BufferAfter
}

type Appointment struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	StylistID     uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Status        AppointmentStatus
	PaymentStatus PaymentStatus
	TotalCents    int64
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     *time.Time
}

// AppointmentLine is one selected service on an appointment.
type AppointmentLine struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ServiceID     uuid.UUID
	ServiceName   string
	Category      string
	DurationMin   int
	BufferBefore  int
	BufferAfter   int
	PriceCents    int64
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Lines    []AppointmentLine
	Customer *Customer
	Stylist  *Stylist
}
