package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Upcoming is an appointment due a reminder, with just the fields the message
// needs.
type Upcoming struct {
	AppointmentID uuid.UUID
	CustomerName  string
	CustomerPhone *string
	StylistName   string
	StartTime     time.Time
}

type Repository interface {
	// FindDueReminders returns scheduled or confirmed appointments starting in
	// [from, to) that have not been reminded yet.
	FindDueReminders(ctx context.Context, from, to time.Time) ([]Upcoming, error)

	MarkReminded(ctx context.Context, appointmentID uuid.UUID, status, detail string) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) FindDueReminders(ctx context.Context, from, to time.Time) ([]Upcoming, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, c.name, c.phone, s.name, a.start_time
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN stylists s ON s.id = a.stylist_id
		LEFT JOIN reminder_logs rl ON rl.appointment_id = a.id
		WHERE a.status IN ('scheduled', 'confirmed')
		  AND a.start_time >= $1
		  AND a.start_time < $2
		  AND rl.id IS NULL
		ORDER BY a.start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Upcoming
	for rows.Next() {
		var u Upcoming
		var phone *string
		if err := rows.Scan(&u.AppointmentID, &u.CustomerName, &phone, &u.StylistName, &u.StartTime); err != nil {
			return nil, err
		}
		u.CustomerPhone = phone
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkReminded(ctx context.Context, appointmentID uuid.UUID, status, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_logs (id, appointment_id, status, detail, sent_at)
		VALUES ($1, $2, $3, $4, now())
	`, uuid.New(), appointmentID, status, detail)
	return err
}
