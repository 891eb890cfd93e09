package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE for exclusion constraint violations.
const exclusionViolation = "23P01"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var email, phone *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&email,
		&phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	c.Email = email
	c.Phone = phone
	return &c, nil
}

func scanStylist(row pgx.Row) (*Stylist, error) {
	var s Stylist

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Level,
		&s.Skills,
		&s.AllowDoubleBooking,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStylistNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Category,
		&s.DurationMin,
		&s.BufferBefore,
		&s.BufferAfter,
		&s.PriceCents,
		&s.RequiredSkills,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string
	var expiresAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.StylistID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.PaymentStatus,
		&a.TotalCents,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Notes = notes
	a.ExpiresAt = expiresAt
	return &a, nil
}

const appointmentColumns = `
	id, customer_id, stylist_id, start_time, end_time, status,
	payment_status, total_cents, notes, created_at, updated_at, expires_at
`

// Interface methods

func (r *PgRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id)
	return scanCustomer(row)
}

func (r *PgRepository) GetStylistByID(ctx context.Context, id uuid.UUID) (*Stylist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, level, skills, allow_double_booking, created_at, updated_at
		FROM stylists
		WHERE id = $1
	`, id)
	return scanStylist(row)
}

func (r *PgRepository) ListStylists(ctx context.Context) ([]Stylist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, level, skills, allow_double_booking, created_at, updated_at
		FROM stylists
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Stylist
	for rows.Next() {
		s, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, duration_min, buffer_before, buffer_after,
		       price_cents, required_skills, created_at, updated_at
		FROM services
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, duration_min, buffer_before, buffer_after,
		       price_cents, required_skills, created_at, updated_at
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result) != len(ids) {
		return nil, ErrServiceNotFound
	}
	return result, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// FindOverlappingAppointments returns active appointments for the stylist whose
// [start_time, end_time) interval intersects [start, end). Expired holds that
// the worker has not swept yet are ignored.
func (r *PgRepository) FindOverlappingAppointments(ctx context.Context, stylistID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE stylist_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
		  AND (status <> 'pending' OR expires_at IS NULL OR expires_at > now())
		ORDER BY start_time
	`, stylistID, statusStrings(ActiveStatuses), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// CreateAppointment inserts the appointment and its lines in one transaction.
// The exclusion constraint on (stylist_id, period) is the final arbiter; a
// violation surfaces as ErrTimeSlotTaken.
func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment, lines []AppointmentLine) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	exclusive := true
	if stylist, err := r.GetStylistByID(ctx, appt.StylistID); err == nil {
		exclusive = !stylist.AllowDoubleBooking
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, customer_id, stylist_id, start_time, end_time, status,
			 payment_status, total_cents, notes, exclusive, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now(), $11)
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.CustomerID, appt.StylistID, appt.StartTime, appt.EndTime,
		appt.Status, appt.PaymentStatus, appt.TotalCents, appt.Notes, exclusive, appt.ExpiresAt)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrTimeSlotTaken
		}
		return nil, err
	}

	for _, ln := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_lines
				(id, appointment_id, service_id, service_name, category,
				 duration_min, buffer_before, buffer_after, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, ln.ID, created.ID, ln.ServiceID, ln.ServiceName, ln.Category,
			ln.DurationMin, ln.BufferBefore, ln.BufferAfter, ln.PriceCents)
		if err != nil {
			return nil, fmt.Errorf("insert appointment line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrTimeSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING `+appointmentColumns+`
	`, id, to, statusStrings(from))

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &AppointmentDetail{Appointment: *appt}

	if c, err := r.GetCustomerByID(ctx, appt.CustomerID); err == nil {
		detail.Customer = c
	}
	if s, err := r.GetStylistByID(ctx, appt.StylistID); err == nil {
		detail.Stylist = s
	}

	lines, err := r.linesForAppointments(ctx, []uuid.UUID{appt.ID})
	if err != nil {
		return nil, err
	}
	detail.Lines = lines[appt.ID]

	return detail, nil
}

func (r *PgRepository) ListAppointmentsByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	return r.listAppointments(ctx, "customer_id", customerID, limit, offset)
}

func (r *PgRepository) ListAppointmentsByStylist(ctx context.Context, stylistID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	return r.listAppointments(ctx, "stylist_id", stylistID, limit, offset)
}

func (r *PgRepository) listAppointments(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		ids = append(ids, a.ID)
	}

	lines, err := r.linesForAppointments(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		result = append(result, AppointmentDetail{
			Appointment: a,
			Lines:       lines[a.ID],
		})
	}
	return result, nil
}

func (r *PgRepository) linesForAppointments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]AppointmentLine, error) {
	if len(ids) == 0 {
		return map[uuid.UUID][]AppointmentLine{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, service_id, service_name, category,
		       duration_min, buffer_before, buffer_after, price_cents
		FROM appointment_lines
		WHERE appointment_id = ANY($1)
		ORDER BY service_name
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]AppointmentLine)
	for rows.Next() {
		var ln AppointmentLine
		err := rows.Scan(
			&ln.ID,
			&ln.AppointmentID,
			&ln.ServiceID,
			&ln.ServiceName,
			&ln.Category,
			&ln.DurationMin,
			&ln.BufferBefore,
			&ln.BufferAfter,
			&ln.PriceCents,
		)
		if err != nil {
			return nil, err
		}
		result[ln.AppointmentID] = append(result[ln.AppointmentID], ln)
	}
	return result, rows.Err()
}

func (r *PgRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	var apptID *uuid.UUID
	if ev.AppointmentID != nil {
		apptID = ev.AppointmentID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, apptID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func statusStrings(in []AppointmentStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
