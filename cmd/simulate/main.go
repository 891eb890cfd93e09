package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowdesk/salon-scheduling/internal/config"
	"github.com/glowdesk/salon-scheduling/internal/db"
)

type SimConfig struct {
	APIBaseURL     string
	Duration       time.Duration
	Workers        int
	BookingRatio   float64
	ConfirmRatio   float64
	ReadRatio      float64
	CustomerLimit  int
	ContentionDays int // bookings target start times within this many days; fewer days = more conflicts
	PostgresDSN    string
}

type DataPool struct {
	Customers    []uuid.UUID
	Stylists     []uuid.UUID
	Services     []uuid.UUID
	mu           sync.RWMutex
	appointments []uuid.UUID // Thread-safe list of created appointment IDs
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rand.Intn(len(dp.appointments))
	return dp.appointments[idx], true
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	n := len(om.latencies)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]time.Duration, n)
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return sum / time.Duration(n), sorted[0], sorted[n-1], percentile(sorted, 50), percentile(sorted, 95)
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type Metrics struct {
	Booking        OperationMetrics
	Confirm        OperationMetrics
	ReadByID       OperationMetrics
	ListByCustomer OperationMetrics
	Availability   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f confirm=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.ConfirmRatio, cfg.ReadRatio)

	// Load data from Postgres
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d customers, %d stylists, %d services",
		len(dataPool.Customers), len(dataPool.Stylists), len(dataPool.Services))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	// Run simulation
	sim.Run()

	// Print report
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:     getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:       getDuration("SIM_DURATION", 30*time.Second),
		Workers:        getInt("SIM_WORKERS", 10),
		BookingRatio:   getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio:   getFloat("SIM_CONFIRM_RATIO", 0.2),
		ReadRatio:      getFloat("SIM_READ_RATIO", 0.3),
		CustomerLimit:  getInt("SIM_CUSTOMER_LIMIT", 1000),
		ContentionDays: getInt("SIM_CONTENTION_DAYS", 3),
		PostgresDSN:    baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.ContentionDays <= 0 {
		return fmt.Errorf("SIM_CONTENTION_DAYS must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	load := func(query string, limit int, dst *[]uuid.UUID) error {
		rows, err := pool.Query(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return err
			}
			*dst = append(*dst, id)
		}
		return rows.Err()
	}

	if err := load(`SELECT id FROM customers LIMIT $1`, cfg.CustomerLimit, &dataPool.Customers); err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if err := load(`SELECT id FROM stylists LIMIT $1`, 100, &dataPool.Stylists); err != nil {
		return nil, fmt.Errorf("load stylists: %w", err)
	}
	if err := load(`SELECT id FROM services LIMIT $1`, 100, &dataPool.Services); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	if len(dataPool.Customers) == 0 {
		return nil, fmt.Errorf("no customers loaded")
	}
	if len(dataPool.Stylists) == 0 {
		return nil, fmt.Errorf("no stylists loaded")
	}
	if len(dataPool.Services) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Select operation based on ratios
			r := rng.Float64()
			if r < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else if r < s.config.BookingRatio+s.config.ConfirmRatio {
				s.doConfirm(ctx, rng)
			} else {
				// Read operations - distribute evenly
				readOp := rng.Intn(3)
				switch readOp {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByCustomer(ctx, rng)
				case 2:
					s.doAvailability(ctx, rng)
				}
			}
		}
	}
}

// randomStart picks a 15-minute-aligned start inside working hours within the
// contention window. Keeping the window small drives stylists into conflict on
// purpose, which is what the at-most-one guarantee is being measured against.
func (s *Simulator) randomStart(rng *rand.Rand) time.Time {
	day := time.Now().AddDate(0, 0, 1+rng.Intn(s.config.ContentionDays))
	// 09:00-20:00 local, quarter-hour aligned.
	hour := 9 + rng.Intn(11)
	quarter := rng.Intn(4) * 15
	return time.Date(day.Year(), day.Month(), day.Day(), hour, quarter, 0, 0, time.Local)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]
	stylistID := s.pool.Stylists[rng.Intn(len(s.pool.Stylists))]
	serviceID := s.pool.Services[rng.Intn(len(s.pool.Services))]

	start := time.Now()

	reqBody := map[string]any{
		"customer_id": customerID.String(),
		"stylist_id":  stylistID.String(),
		"service_ids": []string{serviceID.String()},
		"start_time":  s.randomStart(rng).Format(time.RFC3339),
		"hold":        rng.Intn(2) == 0,
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
			// Parse response to get appointment ID
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &apptResp)
				if apptResp.ID != uuid.Nil {
					s.pool.AddAppointment(apptResp.ID)
				}
			}
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment()
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/appointments/%s/confirm", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Confirm.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment()
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments/%s", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doListByCustomer(ctx context.Context, rng *rand.Rand) {
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments?customer_id=%s&limit=20&offset=0", s.config.APIBaseURL, customerID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListByCustomer.Record(latency, success, false)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	stylistID := s.pool.Stylists[rng.Intn(len(s.pool.Stylists))]
	serviceID := s.pool.Services[rng.Intn(len(s.pool.Services))]
	date := time.Now().AddDate(0, 0, 1+rng.Intn(s.config.ContentionDays))

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/stylists/%s/availability?date=%s&view=day&services=%s",
			s.config.APIBaseURL, stylistID.String(), date.Format("2006-01-02"), serviceID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Availability.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s  Workers: %d  Contention window: %d day(s)\n\n",
		s.config.Duration, s.config.Workers, s.config.ContentionDays)

	ops := []struct {
		name string
		m    *OperationMetrics
	}{
		{"Booking", &s.metrics.Booking},
		{"Confirm", &s.metrics.Confirm},
		{"Read by ID", &s.metrics.ReadByID},
		{"List by Customer", &s.metrics.ListByCustomer},
		{"Availability", &s.metrics.Availability},
	}
	for _, op := range ops {
		printOperationReport(op.name, op.m)
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }
	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, pct(conflict))
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, pct(errCount))
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
