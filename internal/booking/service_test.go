package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjjmingo/academy-platform/internal/academy"
	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/notify"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/internal/schedule"
)

type stubStore struct {
	active    map[uuid.UUID]*Booking
	slotCount int
	createErr error
}

func newStubStore() *stubStore {
	return &stubStore{active: make(map[uuid.UUID]*Booking)}
}

func (s *stubStore) CreateActive(ctx context.Context, b *Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.active[b.LeadID]; ok {
		return ErrDuplicateActiveBooking
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Status = StatusActive
	s.active[b.LeadID] = b
	return nil
}

func (s *stubStore) FindActiveByLead(ctx context.Context, leadID uuid.UUID) (*Booking, error) {
	b, ok := s.active[leadID]
	if !ok {
		return nil, ErrNoActiveBooking
	}
	return b, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	for leadID, b := range s.active {
		if b.ID == id {
			b.Status = status
			if status != StatusActive {
				delete(s.active, leadID)
			}
			return nil
		}
	}
	return ErrNoActiveBooking
}

func (s *stubStore) CountForSlot(ctx context.Context, classTypeID string, startsAt time.Time) (int, error) {
	return s.slotCount, nil
}

type stubInfo struct{}

func (stubInfo) Get(ctx context.Context) (*academy.Info, error) {
	return academy.DefaultInfo(), nil
}

type recordChannel struct {
	msgs []notify.Message
}

func (c *recordChannel) Name() string { return "test" }

func (c *recordChannel) Send(ctx context.Context, msg notify.Message) (string, error) {
	c.msgs = append(c.msgs, msg)
	return "SM1", nil
}

// Wednesday noon, the timetable week ahead is fully open.
var serviceNow = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store Store) (*Service, *leads.InMemoryRepository, *recordChannel) {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	sm := leads.NewStateMachine(leads.DefaultInterestLexicon(), nil)
	catalog := schedule.DefaultCatalog(time.UTC)
	ch := &recordChannel{}
	m := metrics.NewEngineMetrics(prometheus.NewRegistry())
	staff := notify.NewDispatcher([]notify.Channel{ch}, m, nil)
	svc := NewService(store, repo, sm, catalog, stubInfo{}, staff, Config{TrialWindowDays: 7, SlotCapacity: 12}, m, nil).
		WithNow(func() time.Time { return serviceNow })
	return svc, repo, ch
}

func newTestLead(t *testing.T, repo *leads.InMemoryRepository) *leads.Lead {
	t.Helper()
	lead := &leads.Lead{Phone: "+50688881234", Name: "Juan Pérez", Status: leads.StatusNew}
	require.NoError(t, repo.Create(context.Background(), lead))
	return lead
}

func TestBookTrial(t *testing.T) {
	store := newStubStore()
	svc, repo, ch := newTestService(t, store)
	lead := newTestLead(t, repo)

	startsAt := time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC) // Tuesday
	b, msg, err := svc.BookTrial(context.Background(), lead, "adultos_jiujitsu", startsAt, "Agendado vía WhatsApp")
	require.NoError(t, err)

	assert.Equal(t, KindTrial, b.Kind)
	assert.Equal(t, StatusActive, b.Status)
	assert.Equal(t, startsAt.Add(7*24*time.Hour), b.EndsAt)
	assert.Equal(t, "Agendado vía WhatsApp", b.Notes)

	assert.Equal(t, leads.StatusScheduled, lead.Status)
	require.NotNil(t, lead.ScheduledClassAt)
	assert.True(t, lead.ScheduledClassAt.Equal(startsAt))

	assert.Contains(t, msg, "Juan")
	assert.Contains(t, msg, "clase de prueba")
	assert.Contains(t, msg, "martes 13 de enero")
	assert.Contains(t, msg, "18:00")
	assert.Contains(t, msg, "Santo Domingo de Heredia")
	assert.Contains(t, msg, "semana de prueba")

	require.Len(t, ch.msgs, 1)
	assert.Contains(t, ch.msgs[0].Body, "Juan Pérez")
	assert.Contains(t, ch.msgs[0].Body, "+50688881234")
}

func TestBookTrialDuplicate(t *testing.T) {
	store := newStubStore()
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)

	startsAt := time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC)
	_, _, err := svc.BookTrial(context.Background(), lead, "adultos_jiujitsu", startsAt, "Agendado vía WhatsApp")
	require.NoError(t, err)

	next := time.Date(2026, 1, 14, 18, 0, 0, 0, time.UTC)
	_, _, err = svc.BookTrial(context.Background(), lead, "adultos_jiujitsu", next, "")
	assert.ErrorIs(t, err, ErrDuplicateActiveBooking)
}

func TestBookTrialRejectsInvalidSlots(t *testing.T) {
	store := newStubStore()
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)
	ctx := context.Background()

	// Striking does not run on Mondays.
	_, _, err := svc.BookTrial(ctx, lead, "adultos_striking", time.Date(2026, 1, 12, 19, 30, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	// Wrong start time.
	_, _, err = svc.BookTrial(ctx, lead, "adultos_jiujitsu", time.Date(2026, 1, 13, 19, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	// Unknown class.
	_, _, err = svc.BookTrial(ctx, lead, "yoga", time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	// Yesterday's class.
	_, _, err = svc.BookTrial(ctx, lead, "adultos_jiujitsu", time.Date(2026, 1, 6, 18, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrSlotInPast)
}

func TestBookTrialIgnoresCapacity(t *testing.T) {
	store := newStubStore()
	store.slotCount = 12
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)

	// Trial weeks are not capacity-limited; a full first class still books.
	b, _, err := svc.BookTrial(context.Background(), lead, "adultos_jiujitsu", time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.Equal(t, KindTrial, b.Kind)
}

func TestBookClassFullClass(t *testing.T) {
	store := newStubStore()
	store.slotCount = 12
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)

	_, _, err := svc.BookClass(context.Background(), lead, "adultos_jiujitsu", time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, ErrSlotFull)
}

func TestBookClass(t *testing.T) {
	store := newStubStore()
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)

	startsAt := time.Date(2026, 1, 8, 19, 30, 0, 0, time.UTC) // Thursday striking
	b, msg, err := svc.BookClass(context.Background(), lead, "adultos_striking", startsAt, "Agendado por el equipo")
	require.NoError(t, err)

	assert.Equal(t, KindClass, b.Kind)
	assert.True(t, b.EndsAt.Equal(startsAt))
	assert.Contains(t, msg, "Striking Adultos")
	assert.Contains(t, msg, "jueves 8 de enero")
	assert.Equal(t, leads.StatusScheduled, lead.Status)
}

func TestCancelActive(t *testing.T) {
	store := newStubStore()
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)
	ctx := context.Background()

	startsAt := time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC)
	_, _, err := svc.BookTrial(ctx, lead, "adultos_jiujitsu", startsAt, "")
	require.NoError(t, err)

	b, err := svc.CancelActive(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, leads.StatusInterested, lead.Status)
	assert.Nil(t, lead.ScheduledClassAt)

	// Cancelling again finds nothing.
	_, err = svc.CancelActive(ctx, lead)
	assert.ErrorIs(t, err, ErrNoActiveBooking)
}

func TestCancelAllowsRebooking(t *testing.T) {
	store := newStubStore()
	svc, repo, _ := newTestService(t, store)
	lead := newTestLead(t, repo)
	ctx := context.Background()

	first := time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC)
	_, _, err := svc.BookTrial(ctx, lead, "adultos_jiujitsu", first, "")
	require.NoError(t, err)

	_, err = svc.CancelActive(ctx, lead)
	require.NoError(t, err)

	second := time.Date(2026, 1, 14, 18, 0, 0, 0, time.UTC)
	_, _, err = svc.BookTrial(ctx, lead, "adultos_jiujitsu", second, "")
	require.NoError(t, err)
	assert.Equal(t, leads.StatusScheduled, lead.Status)
}
