package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/salon-scheduling/internal/config"
	redisclient "github.com/glowdesk/salon-scheduling/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCheckedIn = "APPOINTMENT_CHECKED_IN"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow    = "APPOINTMENT_NO_SHOW"
	EventAppointmentExpired   = "APPOINTMENT_EXPIRED"
)

var (
	ErrNoServicesSelected      = errors.New("at least one service must be selected")
	ErrStylistBeingBooked      = errors.New("stylist is currently being booked, please retry")
	ErrAppointmentExpiredState = errors.New("appointment hold has expired")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrStartTimeInPast         = errors.New("start time is in the past")
)

// Orchestrator owns all booking logic: validation, conflict checking, creation
// and lifecycle transitions.
type Orchestrator struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewOrchestrator(repo Repository, locker redisclient.Locker, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CreateParams carries the user's selections for a new appointment.
type CreateParams struct {
	CustomerID uuid.UUID
	StylistID  uuid.UUID
	ServiceIDs []uuid.UUID
	StartTime  time.Time
	Hold       bool
	Notes      *string
}

// Book reserves time for a customer with a stylist. It runs the overlap check
// inside a per-stylist distributed lock so that concurrent requests for the
// same stylist cannot both pass the check; the exclusion constraint in the
// database backstops the lock.
func (o *Orchestrator) Book(ctx context.Context, p CreateParams) (*Appointment, error) {
	if len(p.ServiceIDs) == 0 {
		return nil, ErrNoServicesSelected
	}
	if p.StartTime.Before(o.now()) {
		return nil, ErrStartTimeInPast
	}

	if _, err := o.repo.GetCustomerByID(ctx, p.CustomerID); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	stylist, err := o.repo.GetStylistByID(ctx, p.StylistID)
	if err != nil {
		if errors.Is(err, ErrStylistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load stylist: %w", err)
	}

	services, err := o.repo.GetServicesByIDs(ctx, p.ServiceIDs)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load services: %w", err)
	}

	totalMinutes := 0
	var totalCents int64
	lines := make([]AppointmentLine, 0, len(services))
	for _, svc := range services {
		totalMinutes += svc.SlotMinutes()
		totalCents += svc.PriceCents
		lines = append(lines, AppointmentLine{
			ID:           uuid.New(),
			ServiceID:    svc.ID,
			ServiceName:  svc.Name,
			Category:     svc.Category,
			DurationMin:  svc.DurationMin,
			BufferBefore: svc.BufferBefore,
			BufferAfter:  svc.BufferAfter,
			PriceCents:   svc.PriceCents,
		})
	}

	endTime := p.StartTime.Add(time.Duration(totalMinutes) * time.Minute)

	appt := &Appointment{
		ID:            uuid.New(),
		CustomerID:    p.CustomerID,
		StylistID:     p.StylistID,
		StartTime:     p.StartTime,
		EndTime:       endTime,
		Status:        StatusScheduled,
		PaymentStatus: PaymentUnpaid,
		TotalCents:    totalCents,
		Notes:         p.Notes,
	}
	if p.Hold {
		expiresAt := o.now().Add(o.cfg.HoldTTL)
		appt.Status = StatusPending
		appt.ExpiresAt = &expiresAt
	}

	var created *Appointment

	insert := func(insCtx context.Context) error {
		if !stylist.AllowDoubleBooking {
			overlapping, err := o.repo.FindOverlappingAppointments(insCtx, p.StylistID, p.StartTime, endTime)
			if err != nil {
				return fmt.Errorf("check overlapping appointments: %w", err)
			}
			if len(overlapping) > 0 {
				return ErrTimeSlotTaken
			}
		}

		out, err := o.repo.CreateAppointment(insCtx, appt, lines)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = out

		payload := map[string]any{
			"customer_id": p.CustomerID.String(),
			"stylist_id":  p.StylistID.String(),
			"start_time":  p.StartTime,
			"end_time":    endTime,
			"hold":        p.Hold,
		}
		o.logEvent(insCtx, out.ID, EventAppointmentCreated, payload)

		return nil
	}

	if stylist.AllowDoubleBooking {
		// No serialization needed; the exclusion constraint is disabled for
		// this stylist's rows.
		err = insert(ctx)
	} else {
		err = o.locker.WithStylistLock(ctx, p.StylistID, insert)
	}

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrStylistBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Confirm moves a pending hold or a scheduled appointment to confirmed.
// Expired holds are swept lazily here if the worker has not caught them yet.
func (o *Orchestrator) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := o.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	now := o.now()

	if appt.Status == StatusExpired {
		return nil, ErrAppointmentExpiredState
	}

	if appt.Status == StatusPending && appt.ExpiresAt != nil && appt.ExpiresAt.Before(now) {
		_, updErr := o.repo.UpdateAppointmentStatus(ctx, appt.ID, []AppointmentStatus{StatusPending}, StatusExpired)
		if updErr != nil && !errors.Is(updErr, ErrAppointmentNotFound) {
			log.Printf("failed to mark appointment %s as expired during confirm: %v", appt.ID, updErr)
		}
		o.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "confirm_after_expiry",
		})
		return nil, ErrAppointmentExpiredState
	}

	return o.transition(ctx, id, []AppointmentStatus{StatusPending, StatusScheduled}, StatusConfirmed, EventAppointmentConfirmed)
}

// CheckIn marks the customer as arrived.
func (o *Orchestrator) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return o.transition(ctx, id, []AppointmentStatus{StatusScheduled, StatusConfirmed}, StatusInProgress, EventAppointmentCheckedIn)
}

// Complete closes out an in-progress appointment.
func (o *Orchestrator) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return o.transition(ctx, id, []AppointmentStatus{StatusInProgress}, StatusCompleted, EventAppointmentCompleted)
}

// Cancel releases the time for any not-yet-started appointment.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return o.transition(ctx, id, []AppointmentStatus{StatusPending, StatusScheduled, StatusConfirmed}, StatusCancelled, EventAppointmentCancelled)
}

// NoShow records a customer who never arrived.
func (o *Orchestrator) NoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return o.transition(ctx, id, []AppointmentStatus{StatusScheduled, StatusConfirmed}, StatusNoShow, EventAppointmentNoShow)
}

func (o *Orchestrator) transition(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus, eventType string) (*Appointment, error) {
	updated, err := o.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish "no such appointment" from "wrong current status".
			if _, getErr := o.repo.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update status to %s: %w", to, err)
	}

	o.logEvent(ctx, updated.ID, eventType, map[string]any{
		"to": string(to),
	})

	return updated, nil
}

// ExpirePendingAppointments is intended to be called by the worker periodically
func (o *Orchestrator) ExpirePendingAppointments(ctx context.Context) error {
	now := o.now()
	expiredCandidates, err := o.repo.FindExpiredPending(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired pending appointments: %w", err)
	}

	for _, appt := range expiredCandidates {
		_, err := o.repo.UpdateAppointmentStatus(ctx, appt.ID, []AppointmentStatus{StatusPending}, StatusExpired)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to expire appointment %s: %v", appt.ID, err)
			continue
		}
		o.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

func (o *Orchestrator) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     o.now(),
	}

	if err := o.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (o *Orchestrator) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := o.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointmentsByCustomer retrieves appointments for a specific customer
func (o *Orchestrator) ListAppointmentsByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := o.repo.ListAppointmentsByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by customer: %w", err)
	}
	return appointments, nil
}

// ListAppointmentsByStylist retrieves appointments for a specific stylist
func (o *Orchestrator) ListAppointmentsByStylist(ctx context.Context, stylistID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := o.repo.ListAppointmentsByStylist(ctx, stylistID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by stylist: %w", err)
	}
	return appointments, nil
}

// ListStylists returns the stylist roster.
func (o *Orchestrator) ListStylists(ctx context.Context) ([]Stylist, error) {
	return o.repo.ListStylists(ctx)
}

// ListServices returns the service catalog.
func (o *Orchestrator) ListServices(ctx context.Context) ([]Service, error) {
	return o.repo.ListServices(ctx)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
