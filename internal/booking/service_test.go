package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/salon-scheduling/internal/config"
	redisclient "github.com/glowdesk/salon-scheduling/internal/redis"
)

type fakeRepo struct {
	customers    map[uuid.UUID]*Customer
	stylists     map[uuid.UUID]*Stylist
	services     map[uuid.UUID]*Service
	appointments map[uuid.UUID]*Appointment
	lines        map[uuid.UUID][]AppointmentLine
	events       []EventLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers:    make(map[uuid.UUID]*Customer),
		stylists:     make(map[uuid.UUID]*Stylist),
		services:     make(map[uuid.UUID]*Service),
		appointments: make(map[uuid.UUID]*Appointment),
		lines:        make(map[uuid.UUID][]AppointmentLine),
	}
}

func (f *fakeRepo) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, ErrCustomerNotFound
}

func (f *fakeRepo) GetStylistByID(ctx context.Context, id uuid.UUID) (*Stylist, error) {
	if s, ok := f.stylists[id]; ok {
		return s, nil
	}
	return nil, ErrStylistNotFound
}

func (f *fakeRepo) ListStylists(ctx context.Context) ([]Stylist, error) {
	var out []Stylist
	for _, s := range f.stylists {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) ListServices(ctx context.Context) ([]Service, error) {
	var out []Service
	for _, s := range f.services {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error) {
	out := make([]Service, 0, len(ids))
	for _, id := range ids {
		s, ok := f.services[id]
		if !ok {
			return nil, ErrServiceNotFound
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) FindOverlappingAppointments(ctx context.Context, stylistID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.StylistID != stylistID {
			continue
		}
		active := false
		for _, s := range ActiveStatuses {
			if a.Status == s {
				active = true
			}
		}
		if !active {
			continue
		}
		if a.StartTime.Before(end) && start.Before(a.EndTime) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if a, ok := f.appointments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) CreateAppointment(ctx context.Context, appt *Appointment, lines []AppointmentLine) (*Appointment, error) {
	cp := *appt
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.appointments[cp.ID] = &cp
	f.lines[cp.ID] = lines
	out := cp
	return &out, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	for _, s := range from {
		if a.Status == s {
			a.Status = to
			a.UpdatedAt = time.Now()
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &AppointmentDetail{
		Appointment: *a,
		Lines:       f.lines[id],
		Customer:    f.customers[a.CustomerID],
		Stylist:     f.stylists[a.StylistID],
	}, nil
}

func (f *fakeRepo) ListAppointmentsByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for id, a := range f.appointments {
		if a.CustomerID == customerID {
			out = append(out, AppointmentDetail{Appointment: *a, Lines: f.lines[id]})
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAppointmentsByStylist(ctx context.Context, stylistID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for id, a := range f.appointments {
		if a.StylistID == stylistID {
			out = append(out, AppointmentDetail{Appointment: *a, Lines: f.lines[id]})
		}
	}
	return out, nil
}

func (f *fakeRepo) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusPending && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeLocker struct {
	calls  int
	locked bool
}

func (l *fakeLocker) WithStylistLock(ctx context.Context, stylistID uuid.UUID, fn func(ctx context.Context) error) error {
	l.calls++
	if l.locked {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

type fixture struct {
	repo     *fakeRepo
	locker   *fakeLocker
	svc      *Orchestrator
	customer uuid.UUID
	stylist  uuid.UUID
	haircut  uuid.UUID
	color    uuid.UUID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()
	locker := &fakeLocker{}

	customer := uuid.New()
	stylist := uuid.New()
	haircut := uuid.New()
	color := uuid.New()

	repo.customers[customer] = &Customer{ID: customer, Name: "Amina"}
	repo.stylists[stylist] = &Stylist{ID: stylist, Name: "Leila", Level: LevelSenior}
	repo.services[haircut] = &Service{ID: haircut, Name: "Classic Haircut", DurationMin: 45, BufferAfter: 15, PriceCents: 12000}
	repo.services[color] = &Service{ID: color, Name: "Full Color", DurationMin: 90, BufferBefore: 10, BufferAfter: 20, PriceCents: 35000}

	svc := NewOrchestrator(repo, locker, config.Config{HoldTTL: 10 * time.Minute})
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{
		repo:     repo,
		locker:   locker,
		svc:      svc,
		customer: customer,
		stylist:  stylist,
		haircut:  haircut,
		color:    color,
		now:      now,
	}
}

func (fx *fixture) params(start time.Time, services ...uuid.UUID) CreateParams {
	return CreateParams{
		CustomerID: fx.customer,
		StylistID:  fx.stylist,
		ServiceIDs: services,
		StartTime:  start,
	}
}

func TestBook_CreatesScheduledAppointment(t *testing.T) {
	fx := newFixture(t)
	start := fx.now.Add(2 * time.Hour)

	appt, err := fx.svc.Book(context.Background(), fx.params(start, fx.haircut, fx.color))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", appt.Status)
	}
	// 45+15 + 90+10+20 minutes.
	wantEnd := start.Add(180 * time.Minute)
	if !appt.EndTime.Equal(wantEnd) {
		t.Errorf("expected end %s, got %s", wantEnd, appt.EndTime)
	}
	if appt.TotalCents != 47000 {
		t.Errorf("expected total 47000, got %d", appt.TotalCents)
	}
	if len(fx.repo.lines[appt.ID]) != 2 {
		t.Errorf("expected 2 lines, got %d", len(fx.repo.lines[appt.ID]))
	}
	if fx.locker.calls != 1 {
		t.Errorf("expected 1 lock acquisition, got %d", fx.locker.calls)
	}
	if len(fx.repo.events) != 1 || fx.repo.events[0].EventType != EventAppointmentCreated {
		t.Errorf("expected a created event, got %+v", fx.repo.events)
	}
}

func TestBook_HoldGetsExpiry(t *testing.T) {
	fx := newFixture(t)
	start := fx.now.Add(2 * time.Hour)

	p := fx.params(start, fx.haircut)
	p.Hold = true

	appt, err := fx.svc.Book(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.ExpiresAt == nil || !appt.ExpiresAt.Equal(fx.now.Add(10*time.Minute)) {
		t.Errorf("expected expiry 10m out, got %v", appt.ExpiresAt)
	}
}

func TestBook_RejectsOverlap(t *testing.T) {
	fx := newFixture(t)
	start := fx.now.Add(2 * time.Hour)

	if _, err := fx.svc.Book(context.Background(), fx.params(start, fx.haircut)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Second booking 30 minutes into the first one.
	_, err := fx.svc.Book(context.Background(), fx.params(start.Add(30*time.Minute), fx.haircut))
	if !errors.Is(err, ErrTimeSlotTaken) {
		t.Fatalf("expected ErrTimeSlotTaken, got %v", err)
	}

	// Back to back is fine: intervals are half-open.
	if _, err := fx.svc.Book(context.Background(), fx.params(start.Add(60*time.Minute), fx.haircut)); err != nil {
		t.Fatalf("back-to-back booking: %v", err)
	}
}

func TestBook_LockContention(t *testing.T) {
	fx := newFixture(t)
	fx.locker.locked = true

	_, err := fx.svc.Book(context.Background(), fx.params(fx.now.Add(time.Hour), fx.haircut))
	if !errors.Is(err, ErrStylistBeingBooked) {
		t.Fatalf("expected ErrStylistBeingBooked, got %v", err)
	}
}

func TestBook_DoubleBookingStylistSkipsLock(t *testing.T) {
	fx := newFixture(t)
	fx.repo.stylists[fx.stylist].AllowDoubleBooking = true
	start := fx.now.Add(2 * time.Hour)

	if _, err := fx.svc.Book(context.Background(), fx.params(start, fx.haircut)); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// Same time again succeeds for a double-booking stylist.
	if _, err := fx.svc.Book(context.Background(), fx.params(start, fx.haircut)); err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if fx.locker.calls != 0 {
		t.Errorf("expected no lock acquisitions, got %d", fx.locker.calls)
	}
}

func TestBook_Validation(t *testing.T) {
	fx := newFixture(t)
	start := fx.now.Add(time.Hour)

	if _, err := fx.svc.Book(context.Background(), fx.params(start)); !errors.Is(err, ErrNoServicesSelected) {
		t.Errorf("expected ErrNoServicesSelected, got %v", err)
	}

	if _, err := fx.svc.Book(context.Background(), fx.params(fx.now.Add(-time.Hour), fx.haircut)); !errors.Is(err, ErrStartTimeInPast) {
		t.Errorf("expected ErrStartTimeInPast, got %v", err)
	}

	p := fx.params(start, fx.haircut)
	p.CustomerID = uuid.New()
	if _, err := fx.svc.Book(context.Background(), p); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}

	p = fx.params(start, uuid.New())
	if _, err := fx.svc.Book(context.Background(), p); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestConfirm_PendingHold(t *testing.T) {
	fx := newFixture(t)

	p := fx.params(fx.now.Add(2*time.Hour), fx.haircut)
	p.Hold = true
	appt, err := fx.svc.Book(context.Background(), p)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	confirmed, err := fx.svc.Confirm(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", confirmed.Status)
	}
}

func TestConfirm_ExpiredHold(t *testing.T) {
	fx := newFixture(t)

	p := fx.params(fx.now.Add(2*time.Hour), fx.haircut)
	p.Hold = true
	appt, err := fx.svc.Book(context.Background(), p)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Move past the hold TTL.
	fx.svc.now = func() time.Time { return fx.now.Add(11 * time.Minute) }

	_, err = fx.svc.Confirm(context.Background(), appt.ID)
	if !errors.Is(err, ErrAppointmentExpiredState) {
		t.Fatalf("expected ErrAppointmentExpiredState, got %v", err)
	}
	if fx.repo.appointments[appt.ID].Status != StatusExpired {
		t.Errorf("expected hold swept to expired, got %s", fx.repo.appointments[appt.ID].Status)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	fx := newFixture(t)

	appt, err := fx.svc.Book(context.Background(), fx.params(fx.now.Add(2*time.Hour), fx.haircut))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := fx.svc.Complete(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition completing a scheduled appointment, got %v", err)
	}

	if _, err := fx.svc.CheckIn(context.Background(), appt.ID); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := fx.svc.Complete(context.Background(), appt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := fx.svc.Cancel(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition cancelling a completed appointment, got %v", err)
	}

	if _, err := fx.svc.Cancel(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestNoShow(t *testing.T) {
	fx := newFixture(t)

	appt, err := fx.svc.Book(context.Background(), fx.params(fx.now.Add(2*time.Hour), fx.haircut))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	updated, err := fx.svc.NoShow(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("no-show: %v", err)
	}
	if updated.Status != StatusNoShow {
		t.Errorf("expected no_show, got %s", updated.Status)
	}
}

func TestExpirePendingAppointments(t *testing.T) {
	fx := newFixture(t)

	p := fx.params(fx.now.Add(2*time.Hour), fx.haircut)
	p.Hold = true
	appt, err := fx.svc.Book(context.Background(), p)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	fx.svc.now = func() time.Time { return fx.now.Add(time.Hour) }

	if err := fx.svc.ExpirePendingAppointments(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if fx.repo.appointments[appt.ID].Status != StatusExpired {
		t.Errorf("expected expired, got %s", fx.repo.appointments[appt.ID].Status)
	}

	// Expired holds free up the time.
	if _, err := fx.svc.Book(context.Background(), fx.params(fx.now.Add(2*time.Hour), fx.haircut)); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}
