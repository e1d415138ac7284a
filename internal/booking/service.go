package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bjjmingo/academy-platform/internal/academy"
	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/notify"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("academy.internal.booking")

// InfoProvider returns the academy metadata used in confirmation copy.
type InfoProvider interface {
	Get(ctx context.Context) (*academy.Info, error)
}

// Config tunes booking behavior.
type Config struct {
	TrialWindowDays int
	SlotCapacity    int
}

// Service creates and cancels bookings, keeping the lead funnel in sync.
type Service struct {
	store     Store
	leadsRepo leads.Repository
	sm        *leads.StateMachine
	catalog   *schedule.Catalog
	info      InfoProvider
	staff     *notify.Dispatcher
	cfg       Config
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewService constructs a booking service.
func NewService(store Store, leadsRepo leads.Repository, sm *leads.StateMachine, catalog *schedule.Catalog, info InfoProvider, staff *notify.Dispatcher, cfg Config, m *metrics.EngineMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("booking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TrialWindowDays <= 0 {
		cfg.TrialWindowDays = 7
	}
	if cfg.SlotCapacity <= 0 {
		cfg.SlotCapacity = 12
	}
	return &Service{
		store:     store,
		leadsRepo: leadsRepo,
		sm:        sm,
		catalog:   catalog,
		info:      info,
		staff:     staff,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock. Used in tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// BookTrial reserves a free trial class and opens the trial week window. It
// returns the booking and the confirmation message for the lead.
func (s *Service) BookTrial(ctx context.Context, lead *leads.Lead, classTypeID string, startsAt time.Time, notes string) (*Booking, string, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book_trial")
	defer span.End()
	span.SetAttributes(
		attribute.String("academy.lead_id", lead.ID.String()),
		attribute.String("academy.class_type", classTypeID),
	)

	ct, err := s.validateSlot(ctx, classTypeID, startsAt, KindTrial)
	if err != nil {
		s.metrics.ObserveBooking(string(KindTrial), "rejected")
		span.RecordError(err)
		return nil, "", err
	}

	b := &Booking{
		LeadID:      lead.ID,
		ClassTypeID: classTypeID,
		Kind:        KindTrial,
		StartsAt:    startsAt,
		EndsAt:      startsAt.Add(time.Duration(s.cfg.TrialWindowDays) * 24 * time.Hour),
		Notes:       notes,
	}
	if err := s.store.CreateActive(ctx, b); err != nil {
		status := "error"
		if err == ErrDuplicateActiveBooking {
			status = "duplicate"
		}
		s.metrics.ObserveBooking(string(KindTrial), status)
		span.RecordError(err)
		return nil, "", err
	}

	s.markScheduled(ctx, lead, startsAt)
	s.notifyStaff(ctx, lead, b, ct)
	s.metrics.ObserveBooking(string(KindTrial), "created")
	s.logger.Info("trial booked", "lead_id", lead.ID, "class_type", classTypeID, "starts_at", startsAt)

	msg, err := s.trialConfirmation(ctx, lead, b, ct)
	if err != nil {
		return b, "", err
	}
	return b, msg, nil
}

// BookClass reserves a spot in a single class occurrence.
func (s *Service) BookClass(ctx context.Context, lead *leads.Lead, classTypeID string, startsAt time.Time, notes string) (*Booking, string, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book_class")
	defer span.End()
	span.SetAttributes(
		attribute.String("academy.lead_id", lead.ID.String()),
		attribute.String("academy.class_type", classTypeID),
	)

	ct, err := s.validateSlot(ctx, classTypeID, startsAt, KindClass)
	if err != nil {
		s.metrics.ObserveBooking(string(KindClass), "rejected")
		span.RecordError(err)
		return nil, "", err
	}

	b := &Booking{
		LeadID:      lead.ID,
		ClassTypeID: classTypeID,
		Kind:        KindClass,
		StartsAt:    startsAt,
		EndsAt:      startsAt,
		Notes:       notes,
	}
	if err := s.store.CreateActive(ctx, b); err != nil {
		status := "error"
		if err == ErrDuplicateActiveBooking {
			status = "duplicate"
		}
		s.metrics.ObserveBooking(string(KindClass), status)
		span.RecordError(err)
		return nil, "", err
	}

	s.markScheduled(ctx, lead, startsAt)
	s.notifyStaff(ctx, lead, b, ct)
	s.metrics.ObserveBooking(string(KindClass), "created")
	s.logger.Info("class booked", "lead_id", lead.ID, "class_type", classTypeID, "starts_at", startsAt)

	msg := fmt.Sprintf("¡Listo%s! Tu clase de %s quedó agendada para el %s a las %s. ¡Nos vemos en el tatami! 🥋",
		namePart(lead), ct.Name, spanishDate(startsAt), ct.TimeLabel())
	return b, msg, nil
}

// CancelActive cancels the lead's active booking and moves the lead back to
// interested so a new slot can be offered.
func (s *Service) CancelActive(ctx context.Context, lead *leads.Lead) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel_active")
	defer span.End()
	span.SetAttributes(attribute.String("academy.lead_id", lead.ID.String()))

	b, err := s.store.FindActiveByLead(ctx, lead.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, b.ID, StatusCancelled); err != nil {
		span.RecordError(err)
		return nil, err
	}
	b.Status = StatusCancelled

	if lead.Status == leads.StatusScheduled {
		if err := s.sm.Transition(lead, leads.StatusInterested); err != nil {
			s.logger.Warn("cancel: lead transition failed", "lead_id", lead.ID, "error", err)
		}
	}
	lead.ScheduledClassAt = nil
	if s.leadsRepo != nil {
		if err := s.leadsRepo.Update(ctx, lead); err != nil {
			s.logger.Error("cancel: lead update failed", "lead_id", lead.ID, "error", err)
		}
	}

	s.metrics.ObserveBooking(string(b.Kind), "cancelled")
	s.logger.Info("booking cancelled", "lead_id", lead.ID, "booking_id", b.ID)
	return b, nil
}

// validateSlot checks the requested occurrence against the timetable and the
// clock. Single-class bookings are also checked against remaining capacity;
// trial weeks are not capacity-limited.
func (s *Service) validateSlot(ctx context.Context, classTypeID string, startsAt time.Time, kind Kind) (schedule.ClassType, error) {
	ct, err := s.catalog.ClassType(classTypeID)
	if err != nil {
		return schedule.ClassType{}, ErrSlotNotFound
	}
	if !ct.OccursOn(startsAt.Weekday()) || !ct.StartTimeOn(startsAt).Equal(startsAt) {
		return schedule.ClassType{}, ErrSlotNotFound
	}
	if !startsAt.After(s.now()) {
		return schedule.ClassType{}, ErrSlotInPast
	}
	if kind == KindClass {
		count, err := s.store.CountForSlot(ctx, classTypeID, startsAt)
		if err != nil {
			return schedule.ClassType{}, err
		}
		if count >= s.cfg.SlotCapacity {
			return schedule.ClassType{}, ErrSlotFull
		}
	}
	return ct, nil
}

// markScheduled walks the lead forward to scheduled and records the class
// time. Failures are logged, never surfaced, so a booked spot is never lost
// to a funnel bookkeeping error.
func (s *Service) markScheduled(ctx context.Context, lead *leads.Lead, startsAt time.Time) {
	for lead.Status != leads.StatusScheduled {
		next, ok := nextTowardScheduled(lead.Status)
		if !ok {
			s.logger.Debug("lead status not advanced for booking", "lead_id", lead.ID, "status", lead.Status)
			break
		}
		if err := s.sm.Transition(lead, next); err != nil {
			s.logger.Warn("lead transition failed", "lead_id", lead.ID, "error", err)
			break
		}
	}
	lead.ScheduledClassAt = &startsAt
	if s.leadsRepo != nil {
		if err := s.leadsRepo.Update(ctx, lead); err != nil {
			s.logger.Error("lead update failed", "lead_id", lead.ID, "error", err)
		}
	}
}

// nextTowardScheduled is the funnel step that moves a lead one stage closer
// to scheduled. Terminal stages have no step.
func nextTowardScheduled(status leads.Status) (leads.Status, bool) {
	switch status {
	case leads.StatusNew:
		return leads.StatusEngaged, true
	case leads.StatusEngaged, leads.StatusReEngaged:
		return leads.StatusInterested, true
	case leads.StatusInterested:
		return leads.StatusScheduled, true
	case leads.StatusNoShow, leads.StatusShowedUp:
		return leads.StatusFollowUp, true
	case leads.StatusFollowUp:
		return leads.StatusReEngaged, true
	default:
		return "", false
	}
}

// notifyStaff alerts the academy about the new booking. Notification failures
// never abort a booking.
func (s *Service) notifyStaff(ctx context.Context, lead *leads.Lead, b *Booking, ct schedule.ClassType) {
	if s.staff == nil {
		return
	}
	name := lead.Name
	if name == "" {
		name = lead.Phone
	}
	kind := "Clase de prueba"
	if b.Kind == KindClass {
		kind = "Clase"
	}
	body := fmt.Sprintf("%s reservada 🥋\n\nNombre: %s\nTeléfono: %s\nClase: %s\nFecha: %s a las %s",
		kind, name, lead.Phone, ct.Name, spanishDate(b.StartsAt), ct.TimeLabel())
	res := s.staff.Dispatch(ctx, notify.Message{Subject: "Nueva reserva - " + name, Body: body})
	if !res.Success {
		s.logger.Warn("staff notification not delivered", "lead_id", lead.ID, "detail", res.Detail)
	}
}

func (s *Service) trialConfirmation(ctx context.Context, lead *leads.Lead, b *Booking, ct schedule.ClassType) (string, error) {
	info := academy.DefaultInfo()
	if s.info != nil {
		loaded, err := s.info.Get(ctx)
		if err != nil {
			s.logger.Warn("academy info unavailable, using defaults", "error", err)
		} else {
			info = loaded
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "¡Listo%s! Tu clase de prueba de %s quedó agendada 🥋\n\n", namePart(lead), ct.Name)
	fmt.Fprintf(&sb, "📅 %s\n🕕 %s\n📍 %s\n", spanishDate(b.StartsAt), ct.TimeLabel(), info.Location)
	if info.WazeLink != "" {
		fmt.Fprintf(&sb, "Waze: %s\n", info.WazeLink)
	}
	if len(info.WhatToBring) > 0 {
		sb.WriteString("\nQué traer:\n")
		for _, item := range info.WhatToBring {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}
	fmt.Fprintf(&sb, "\nTu semana de prueba va hasta el %s. ¡Nos vemos en el tatami!", spanishDate(b.EndsAt))
	return sb.String(), nil
}

func namePart(lead *leads.Lead) string {
	if lead.Name == "" {
		return ""
	}
	return " " + firstName(lead.Name)
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[0]
}

func spanishDate(t time.Time) string {
	return schedule.FormatDateSpanish(t)
}
