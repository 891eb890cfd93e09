package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrStylistNotFound     = errors.New("stylist not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrTimeSlotTaken is returned when an insert trips the stylist/period
	// exclusion constraint.
	ErrTimeSlotTaken = errors.New("time slot already taken for this stylist")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetStylistByID(ctx context.Context, id uuid.UUID) (*Stylist, error)
	ListStylists(ctx context.Context) ([]Stylist, error)
	ListServices(ctx context.Context) ([]Service, error)
	GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error)

	// For conflict checks
	FindOverlappingAppointments(ctx context.Context, stylistID uuid.UUID, start, end time.Time) ([]Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Creation and updates
	CreateAppointment(ctx context.Context, appt *Appointment, lines []AppointmentLine) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) (*Appointment, error)

	// Reads
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)
	ListAppointmentsByStylist(ctx context.Context, stylistID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)

	// Expiry worker
	FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
