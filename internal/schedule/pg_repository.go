package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetWorkingHours(ctx context.Context, stylistID uuid.UUID, weekday time.Weekday) (*WorkingHours, error) {
	var w WorkingHours
	var wd int

	err := r.pool.QueryRow(ctx, `
		SELECT stylist_id, weekday, opens_min, closes_min, timezone
		FROM working_hours
		WHERE stylist_id = $1 AND weekday = $2
	`, stylistID, int(weekday)).Scan(
		&w.StylistID,
		&wd,
		&w.OpensMin,
		&w.ClosesMin,
		&w.Timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row means closed that weekday.
			return nil, nil
		}
		return nil, err
	}

	w.Weekday = time.Weekday(wd)
	return &w, nil
}

// ListBusyBlocks takes one snapshot of everything that occupies the stylist in
// [from, to): explicit busy blocks, and active appointments projected as
// blocks with reason 'appointment'. Pending holds whose expiry already passed
// are excluded.
func (r *PgRepository) ListBusyBlocks(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]BusyBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stylist_id, start_time, end_time, reason, source_appointment_id, created_at
		FROM busy_blocks
		WHERE stylist_id = $1
		  AND start_time < $3
		  AND end_time > $2
		UNION ALL
		SELECT id, stylist_id, start_time, end_time, 'appointment', id, created_at
		FROM appointments
		WHERE stylist_id = $1
		  AND start_time < $3
		  AND end_time > $2
		  AND status IN ('pending', 'scheduled', 'confirmed', 'in_progress')
		  AND (status <> 'pending' OR expires_at IS NULL OR expires_at > now())
		ORDER BY start_time
	`, stylistID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BusyBlock
	for rows.Next() {
		var b BusyBlock
		var source *uuid.UUID
		err := rows.Scan(
			&b.ID,
			&b.StylistID,
			&b.Start,
			&b.End,
			&b.Reason,
			&source,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		b.SourceAppointmentID = source
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateBusyBlock(ctx context.Context, block *BusyBlock) (*BusyBlock, error) {
	if !block.End.After(block.Start) {
		return nil, ErrInvalidBlock
	}

	id := block.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var created BusyBlock
	var source *uuid.UUID

	err := r.pool.QueryRow(ctx, `
		INSERT INTO busy_blocks (id, stylist_id, start_time, end_time, reason, source_appointment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, stylist_id, start_time, end_time, reason, source_appointment_id, created_at
	`, id, block.StylistID, block.Start, block.End, block.Reason, block.SourceAppointmentID).Scan(
		&created.ID,
		&created.StylistID,
		&created.Start,
		&created.End,
		&created.Reason,
		&source,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	created.SourceAppointmentID = source
	return &created, nil
}

func (r *PgRepository) GetServiceSlots(ctx context.Context, ids []uuid.UUID) ([]ServiceSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, duration_min, buffer_before, buffer_after
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ServiceSlot
	for rows.Next() {
		var s ServiceSlot
		if err := rows.Scan(&s.ID, &s.DurationMin, &s.BufferBefore, &s.BufferAfter); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result) != len(ids) {
		return nil, ErrUnknownService
	}
	return result, nil
}
