package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowdesk/salon-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	stylistIDs, err := seedStylists(context.Background(), pool, 25)
	if err != nil {
		log.Fatalf("seed stylists: %v", err)
	}
	if err := seedWorkingHours(context.Background(), pool, stylistIDs); err != nil {
		log.Fatalf("seed working hours: %v", err)
	}
	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedCustomers(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	log.Println("seed complete")
}

func seedStylists(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d stylists", count)

	levels := []string{"junior", "junior", "senior", "senior", "celebrity"}
	skillSets := [][]string{
		{"haircut", "styling"},
		{"haircut", "coloring"},
		{"coloring", "highlights", "balayage"},
		{"haircut", "beard_trim"},
		{"styling", "bridal", "updo"},
		{"manicure", "pedicure"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		level := levels[gofakeit.Number(0, len(levels)-1)]
		skills := skillSets[gofakeit.Number(0, len(skillSets)-1)]
		// Roughly one in ten stylists takes walk-in double bookings.
		allowDouble := gofakeit.Number(0, 9) == 0

		_, err := tx.Exec(ctx, `
			INSERT INTO stylists (id, name, level, skills, allow_double_booking, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, name, level, skills, allowDouble)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("stylists seeded")
	return ids, nil
}

func seedWorkingHours(ctx context.Context, pool *pgxpool.Pool, stylistIDs []uuid.UUID) error {
	log.Printf("seeding working hours for %d stylists", len(stylistIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, id := range stylistIDs {
		// Monday through Saturday 09:00-21:00, Friday half-day 09:00-13:00,
		// closed Sunday (no row).
		for wd := 1; wd <= 6; wd++ {
			opens, closes := 9*60, 21*60
			if wd == 5 {
				closes = 13 * 60
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO working_hours (stylist_id, weekday, opens_min, closes_min, timezone)
				VALUES ($1, $2, $3, $4, $5)
			`, id, wd, opens, closes, "Asia/Dubai")
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("working hours seeded")
	return nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	type svc struct {
		name         string
		category     string
		duration     int
		bufferBefore int
		bufferAfter  int
		priceCents   int64
		skills       []string
	}

	services := []svc{
		{"Classic Haircut", "hair", 45, 0, 15, 12000, []string{"haircut"}},
		{"Blow Dry & Style", "hair", 30, 0, 10, 9000, []string{"styling"}},
		{"Full Color", "color", 90, 10, 20, 35000, []string{"coloring"}},
		{"Highlights", "color", 120, 10, 20, 45000, []string{"highlights"}},
		{"Balayage", "color", 150, 10, 30, 60000, []string{"balayage"}},
		{"Beard Trim", "grooming", 20, 0, 10, 6000, []string{"beard_trim"}},
		{"Bridal Updo", "styling", 90, 15, 15, 50000, []string{"bridal", "updo"}},
		{"Manicure", "nails", 40, 0, 10, 10000, []string{"manicure"}},
		{"Pedicure", "nails", 50, 0, 10, 12000, []string{"pedicure"}},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range services {
		_, err := tx.Exec(ctx, `
			INSERT INTO services
				(id, name, category, duration_min, buffer_before, buffer_after,
				 price_cents, required_skills, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, uuid.New(), s.name, s.category, s.duration, s.bufferBefore, s.bufferAfter, s.priceCents, s.skills)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d customers", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, name, email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("customers seeded: %d/%d", end, count)
	}

	log.Println("customers seeded")
	return nil
}
