package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/consultly/consultant-scheduling/internal/identity"
	redisclient "github.com/consultly/consultant-scheduling/internal/redis"
)

// -- Mocks --

type mockRepo struct {
	appts map[string]*Appointment

	saveCalls    int
	failAll      error // when set, every method returns it
	hideSchedule bool  // GetByConsultantAndDate returns nothing, simulating a racing reader
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[string]*Appointment)}
}

func (m *mockRepo) Save(_ context.Context, a *Appointment) (*Appointment, error) {
	m.saveCalls++
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, ex := range m.appts {
		if ex.ConsultantName == a.ConsultantName && ex.Date.Equal(a.Date) && ex.StartTime == a.StartTime {
			return nil, ErrTimeSlotTaken
		}
	}
	cp := *a
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.appts[a.ID] = &cp
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.appts[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	if m.failAll != nil {
		return m.failAll
	}
	a, ok := m.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepo) UpdateTime(_ context.Context, id string, date time.Time, start TimeOfDay) error {
	if m.failAll != nil {
		return m.failAll
	}
	a, ok := m.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Date = date
	a.StartTime = start
	return nil
}

func (m *mockRepo) UpdateDuration(_ context.Context, id string, minutes int) error {
	if m.failAll != nil {
		return m.failAll
	}
	a, ok := m.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Duration = minutes
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) (bool, error) {
	if m.failAll != nil {
		return false, m.failAll
	}
	_, ok := m.appts[id]
	delete(m.appts, id)
	return ok, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Appointment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetAll(_ context.Context) ([]Appointment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []Appointment
	for _, a := range m.appts {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockRepo) GetByConsultantAndDate(_ context.Context, consultant string, date time.Time) ([]Appointment, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	if m.hideSchedule {
		return nil, nil
	}
	var out []Appointment
	for _, a := range m.appts {
		if a.ConsultantName == consultant && a.Date.Equal(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type mockLocker struct {
	acquired int
	busy     bool
}

func (m *mockLocker) WithScheduleLock(ctx context.Context, consultant string, date time.Time, fn func(ctx context.Context) error) error {
	if m.busy {
		return redisclient.ErrLockNotAcquired
	}
	m.acquired++
	return fn(ctx)
}

func newTestService(repo *mockRepo) (*Service, *mockLocker) {
	locker := &mockLocker{}
	svc := NewService(repo, testValidator(), locker, zerolog.Nop())
	return svc, locker
}

// -- Tests --

func TestAddAppointment(t *testing.T) {
	repo := newMockRepo()
	svc, locker := newTestService(repo)

	saved, err := svc.AddAppointment(context.Background(), validAppointment(), identity.RoleConsultant)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if saved == nil || saved.ID != "appt-1" {
		t.Fatalf("unexpected saved appointment: %+v", saved)
	}
	if locker.acquired != 1 {
		t.Errorf("expected 1 lock acquisition, got %d", locker.acquired)
	}
}

func TestAddAppointmentClientRoleDenied(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)

	_, err := svc.AddAppointment(context.Background(), validAppointment(), identity.RoleClient)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Errorf("persistence must not be invoked on access denial, got %d saves", repo.saveCalls)
	}
}

func TestAddAppointmentValidationFailure(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)

	a := validAppointment()
	a.Duration = 0
	_, err := svc.AddAppointment(context.Background(), a, identity.RoleConsultant)
	if !errors.Is(err, ErrDurationTooShort) {
		t.Fatalf("expected duration validation error, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Errorf("persistence must not be invoked on validation failure")
	}
}

func TestAddAppointmentConflict(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("first add: %v", err)
	}

	second := validAppointment()
	second.ID = "appt-2"
	second.StartTime = NewTimeOfDay(9, 30) // overlaps 09:00+60
	_, err := svc.AddAppointment(ctx, second, identity.RoleConsultant)
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected slot unavailable, got %v", err)
	}
}

func TestAddAppointmentBackToBack(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("first add: %v", err)
	}

	second := validAppointment()
	second.ID = "appt-2"
	second.StartTime = NewTimeOfDay(10, 0) // first ends 10:00
	if _, err := svc.AddAppointment(ctx, second, identity.RoleConsultant); err != nil {
		t.Fatalf("back-to-back booking should succeed, got %v", err)
	}
}

// A unique-constraint trip at persist time reads as an availability failure:
// the second writer loses even if its overlap check raced ahead of the first
// insert.
func TestAddAppointmentConstraintViolationAsUnavailable(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Make the schedule read miss the existing row, as a racing writer
	// would, so the overlap check passes and the insert trips the unique
	// constraint instead.
	repo.hideSchedule = true
	dup := validAppointment()
	dup.ID = "appt-dup"
	_, err := svc.AddAppointment(ctx, dup, identity.RoleConsultant)
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected slot unavailable from constraint violation, got %v", err)
	}
}

func TestAddAppointmentScheduleBusy(t *testing.T) {
	repo := newMockRepo()
	svc, locker := newTestService(repo)
	locker.busy = true

	_, err := svc.AddAppointment(context.Background(), validAppointment(), identity.RoleConsultant)
	if !errors.Is(err, ErrScheduleBusy) {
		t.Fatalf("expected schedule busy, got %v", err)
	}
}

func TestUpdateAppointment(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	upd := validAppointment()
	upd.Location = "Video call"
	upd.Type = TypeVideo
	if err := svc.UpdateAppointment(ctx, upd, identity.RoleConsultant); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := svc.GetAppointmentByID(ctx, "appt-1"); got == nil || got.Location != "Video call" {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := validAppointment()
	missing.ID = "nope"
	if err := svc.UpdateAppointment(ctx, missing, identity.RoleConsultant); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := svc.UpdateAppointment(ctx, upd, identity.RoleClient); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected access denied, got %v", err)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.UpdateAppointmentStatus(ctx, "appt-1", StatusCompleted, identity.RoleConsultant); err != nil {
		t.Fatalf("status update: %v", err)
	}
	if got := svc.GetAppointmentByID(ctx, "appt-1"); got.Status != StatusCompleted {
		t.Errorf("status = %v, want completed", got.Status)
	}

	if err := svc.UpdateAppointmentStatus(ctx, "appt-1", "archived", identity.RoleConsultant); !errors.Is(err, ErrEmptyStatus) {
		t.Errorf("unknown status should fail validation, got %v", err)
	}
}

func TestUpdateAppointmentDuration(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.UpdateAppointmentDuration(ctx, "appt-1", 90, identity.RoleConsultant); err != nil {
		t.Fatalf("duration update: %v", err)
	}
	if err := svc.UpdateAppointmentDuration(ctx, "appt-1", 0, identity.RoleConsultant); !errors.Is(err, ErrDurationTooShort) {
		t.Errorf("zero duration should fail, got %v", err)
	}
	if err := svc.UpdateAppointmentDuration(ctx, "appt-1", 301, identity.RoleConsultant); !errors.Is(err, ErrDurationTooLong) {
		t.Errorf("301 minutes should fail, got %v", err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	existed, err := svc.DeleteAppointment(ctx, "appt-1", identity.RoleConsultant)
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}

	existed, err = svc.DeleteAppointment(ctx, "appt-1", identity.RoleConsultant)
	if err != nil || existed {
		t.Fatalf("second delete should report absence: existed=%v err=%v", existed, err)
	}

	if _, err := svc.DeleteAppointment(ctx, "x", identity.RoleClient); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected access denied, got %v", err)
	}
}

func TestGetAppointmentByIDIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddAppointment(ctx, validAppointment(), identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	first := svc.GetAppointmentByID(ctx, "appt-1")
	second := svc.GetAppointmentByID(ctx, "appt-1")
	if first == nil || second == nil || *first != *second {
		t.Errorf("repeated reads should return equal results: %+v vs %+v", first, second)
	}
}

func TestReadsDegradeOnPersistenceFailure(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	repo.failAll = errors.New("connection refused")
	ctx := context.Background()

	if got := svc.GetAppointmentByID(ctx, "appt-1"); got != nil {
		t.Errorf("expected absent result, got %+v", got)
	}
	if got := svc.GetAllAppointments(ctx); got != nil {
		t.Errorf("expected empty list, got %+v", got)
	}
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if got := svc.GetAvailableTimeSlots(ctx, "Billy Mays", date, NewTimeOfDay(9, 0), NewTimeOfDay(17, 0)); got != nil {
		t.Errorf("expected no slots, got %+v", got)
	}
}

func TestGetAvailableTimeSlots(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	a := validAppointment()
	a.StartTime = NewTimeOfDay(10, 0)
	if _, err := svc.AddAppointment(ctx, a, identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	slots := svc.GetAvailableTimeSlots(ctx, "Billy Mays", a.Date, NewTimeOfDay(9, 0), NewTimeOfDay(17, 0))
	want := []TimeSlot{
		{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(10, 0)},
		{Start: NewTimeOfDay(11, 0), End: NewTimeOfDay(17, 0)},
	}
	assertSlots(t, slots, want)
}

func TestRescheduleAppointment(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	a := validAppointment()
	if _, err := svc.AddAppointment(ctx, a, identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	newDate := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	if err := svc.RescheduleAppointment(ctx, "appt-1", newDate, NewTimeOfDay(13, 0), identity.RoleConsultant); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	got := svc.GetAppointmentByID(ctx, "appt-1")
	if !got.Date.Equal(newDate) || got.StartTime != NewTimeOfDay(13, 0) {
		t.Errorf("reschedule not applied: %+v", got)
	}
	if got.Duration != a.Duration || got.Status != a.Status {
		t.Errorf("reschedule must leave duration and status untouched: %+v", got)
	}
}

// Rescheduling onto the appointment's own current slot must succeed: the
// target is excluded from its own conflict set.
func TestRescheduleOntoOwnSlot(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	a := validAppointment()
	if _, err := svc.AddAppointment(ctx, a, identity.RoleConsultant); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.RescheduleAppointment(ctx, a.ID, a.Date, a.StartTime, identity.RoleConsultant); err != nil {
		t.Fatalf("reschedule onto own slot should succeed, got %v", err)
	}
}

func TestRescheduleConflict(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	first := validAppointment()
	if _, err := svc.AddAppointment(ctx, first, identity.RoleConsultant); err != nil {
		t.Fatalf("add first: %v", err)
	}
	second := validAppointment()
	second.ID = "appt-2"
	second.StartTime = NewTimeOfDay(13, 0)
	if _, err := svc.AddAppointment(ctx, second, identity.RoleConsultant); err != nil {
		t.Fatalf("add second: %v", err)
	}

	err := svc.RescheduleAppointment(ctx, "appt-2", second.Date, NewTimeOfDay(9, 30), identity.RoleConsultant)
	if !errors.Is(err, ErrRescheduleConflict) {
		t.Fatalf("expected reschedule conflict, got %v", err)
	}
}

func TestRescheduleNotFound(t *testing.T) {
	repo := newMockRepo()
	svc, _ := newTestService(repo)

	err := svc.RescheduleAppointment(context.Background(), "ghost",
		time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC), NewTimeOfDay(9, 0), identity.RoleConsultant)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
