// Package engine wires message handling end to end: lead tracking, intent
// detection, slot resolution, booking and reminder scheduling.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bjjmingo/academy-platform/internal/booking"
	"github.com/bjjmingo/academy-platform/internal/conversation"
	"github.com/bjjmingo/academy-platform/internal/intent"
	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/internal/reminders"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

var engineTracer = otel.Tracer("academy.internal.engine")

const historyWindow = 5

// bookingSourceNote is stored on bookings created from the WhatsApp flow.
const bookingSourceNote = "Agendado vía WhatsApp"

// HistoryStore persists conversation turns.
type HistoryStore interface {
	EnsureConversation(ctx context.Context, leadID uuid.UUID, phone string) (uuid.UUID, error)
	SaveMessage(ctx context.Context, conversationID uuid.UUID, role, content string) error
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]conversation.Message, error)
}

// InboundMessage is one WhatsApp message from a lead.
type InboundMessage struct {
	Phone string
	Name  string // profile name from the messaging provider, may be empty
	Body  string
}

// Engine handles inbound messages and exposes the booking operations.
type Engine struct {
	leadsRepo  leads.Repository
	sm         *leads.StateMachine
	history    HistoryStore
	detector   *intent.Detector
	resolver   *schedule.Resolver
	calculator *schedule.Calculator
	catalog    *schedule.Catalog
	booking    *booking.Service
	reminders  *reminders.Scheduler
	responder  ResponseGenerator
	metrics    *metrics.EngineMetrics
	logger     *logging.Logger
	now        func() time.Time

	slotWindowDays int
}

// NewEngine wires the messaging engine together.
func NewEngine(
	leadsRepo leads.Repository,
	sm *leads.StateMachine,
	history HistoryStore,
	detector *intent.Detector,
	resolver *schedule.Resolver,
	calculator *schedule.Calculator,
	catalog *schedule.Catalog,
	bookingSvc *booking.Service,
	reminderSched *reminders.Scheduler,
	responder ResponseGenerator,
	m *metrics.EngineMetrics,
	logger *logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		leadsRepo:      leadsRepo,
		sm:             sm,
		history:        history,
		detector:       detector,
		resolver:       resolver,
		calculator:     calculator,
		catalog:        catalog,
		booking:        bookingSvc,
		reminders:      reminderSched,
		responder:      responder,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
		slotWindowDays: 14,
	}
}

// WithNow overrides the clock. Used in tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithSlotWindowDays sets how far ahead slot listings look.
func (e *Engine) WithSlotWindowDays(days int) *Engine {
	if days > 0 {
		e.slotWindowDays = days
	}
	return e
}

// HandleInbound processes one message and returns the reply to send back.
func (e *Engine) HandleInbound(ctx context.Context, in InboundMessage) (string, error) {
	ctx, span := engineTracer.Start(ctx, "engine.handle_inbound")
	defer span.End()

	lead, err := leads.GetOrCreateByPhone(ctx, e.leadsRepo, in.Phone, in.Name)
	if err != nil {
		e.metrics.ObserveInbound("error")
		span.RecordError(err)
		return "", fmt.Errorf("engine: lead lookup: %w", err)
	}
	span.SetAttributes(attribute.String("academy.lead_id", lead.ID.String()))

	if lead.Name == "" && in.Name != "" {
		lead.Name = in.Name
	}

	convID, err := e.history.EnsureConversation(ctx, lead.ID, lead.Phone)
	if err != nil {
		e.metrics.ObserveInbound("error")
		span.RecordError(err)
		return "", fmt.Errorf("engine: conversation: %w", err)
	}
	if err := e.history.SaveMessage(ctx, convID, conversation.RoleUser, in.Body); err != nil {
		e.logger.Error("save user message failed", "lead_id", lead.ID, "error", err)
	}

	if _, err := e.sm.RecordInterestSignal(lead, in.Body); err != nil {
		e.logger.Warn("interest signal not recorded", "lead_id", lead.ID, "error", err)
	}
	lead.LastContactAt = e.now()
	if err := e.leadsRepo.Update(ctx, lead); err != nil {
		e.logger.Error("lead update failed", "lead_id", lead.ID, "error", err)
	}

	history, err := e.history.RecentMessages(ctx, convID, historyWindow)
	if err != nil {
		e.logger.Error("history load failed", "lead_id", lead.ID, "error", err)
	}

	reply := e.buildReply(ctx, lead, in.Body, history)

	if err := e.history.SaveMessage(ctx, convID, conversation.RoleAssistant, reply); err != nil {
		e.logger.Error("save reply failed", "lead_id", lead.ID, "error", err)
	}
	e.metrics.ObserveInbound("handled")
	return reply, nil
}

func (e *Engine) buildReply(ctx context.Context, lead *leads.Lead, body string, history []conversation.Message) string {
	contents := make([]string, 0, len(history))
	for _, m := range history {
		contents = append(contents, m.Content)
	}

	if e.detector.Detect(body, contents) {
		return e.handleBookingRequest(ctx, lead, body)
	}

	reply, err := e.responder.Reply(ctx, lead, body, history)
	if err != nil {
		e.logger.Error("responder failed", "lead_id", lead.ID, "error", err)
		return "¡Pura vida! ¿En qué te puedo ayudar? Si querés una clase de prueba gratis, contame qué día te queda bien 🥋"
	}
	return reply
}

func (e *Engine) handleBookingRequest(ctx context.Context, lead *leads.Lead, body string) string {
	parsed, err := e.resolver.Resolve(body, "", e.now())
	if errors.Is(err, schedule.ErrNotParsed) {
		return "¡Con gusto te agendo! ¿Qué día te queda bien? Por ejemplo: \"el martes\" o \"mañana\"."
	}
	if err != nil {
		e.logger.Error("slot resolution failed", "lead_id", lead.ID, "error", err)
		return "No logré entender el día. ¿Me lo repetís? Por ejemplo: \"el martes a las 6pm\"."
	}

	_, confirmation, err := e.bookTrialWithReminders(ctx, lead, parsed)
	if err == nil {
		return confirmation
	}

	switch {
	case errors.Is(err, booking.ErrDuplicateActiveBooking):
		if lead.ScheduledClassAt != nil {
			return fmt.Sprintf("Ya tenés una clase agendada para el %s 🥋 Si querés cambiarla, escribí \"cancelar\" y la agendamos de nuevo.",
				schedule.FormatDateSpanish(*lead.ScheduledClassAt))
		}
		return "Ya tenés una clase agendada 🥋 Si querés cambiarla, escribí \"cancelar\" y la agendamos de nuevo."
	case errors.Is(err, booking.ErrSlotFull):
		return e.offerAlternatives(ctx, parsed.ClassType.ID, "Esa clase ya está llena 😔 Estas son las próximas opciones:")
	case errors.Is(err, booking.ErrSlotInPast), errors.Is(err, booking.ErrSlotNotFound):
		return e.offerAlternatives(ctx, parsed.ClassType.ID, "Ese horario no está disponible. Estas son las próximas opciones:")
	default:
		e.logger.Error("booking failed", "lead_id", lead.ID, "error", err)
		return "Tuvimos un problema agendando tu clase 😔 Intentá de nuevo en unos minutos, o escribinos directamente."
	}
}

func (e *Engine) bookTrialWithReminders(ctx context.Context, lead *leads.Lead, parsed *schedule.ParsedSlot) (*booking.Booking, string, error) {
	b, confirmation, err := e.booking.BookTrial(ctx, lead, parsed.ClassType.ID, parsed.StartsAt, bookingSourceNote)
	if err != nil {
		return nil, "", err
	}
	if e.reminders != nil {
		if _, err := e.reminders.ScheduleForBooking(ctx, b); err != nil {
			e.logger.Error("reminder scheduling failed", "booking_id", b.ID, "error", err)
		}
	}
	return b, confirmation, nil
}

func (e *Engine) offerAlternatives(ctx context.Context, classTypeID, prefix string) string {
	slots, err := e.calculator.AvailableSlots(classTypeID, e.slotWindowDays)
	if err != nil || len(slots) == 0 {
		return prefix + " escribinos y buscamos un espacio juntos."
	}
	if len(slots) > 5 {
		slots = slots[:5]
	}
	return prefix + "\n\n" + e.calculator.FormatSlotsMessage(slots)
}

// Slots lists upcoming openings for a class, capacity-aware.
func (e *Engine) Slots(ctx context.Context, classTypeID string, capacity int, counter schedule.BookedCounter) ([]schedule.Slot, error) {
	return e.calculator.AvailableSlotsWithCapacity(ctx, classTypeID, e.slotWindowDays, capacity, counter)
}

// CancelBooking cancels a lead's active booking by phone and returns the
// reply for the lead.
func (e *Engine) CancelBooking(ctx context.Context, phone string) (string, error) {
	normalized := leads.NormalizePhone(phone)
	lead, err := e.leadsRepo.GetByPhone(ctx, normalized)
	if err != nil {
		return "", err
	}
	b, err := e.booking.CancelActive(ctx, lead)
	if errors.Is(err, booking.ErrNoActiveBooking) {
		return "No encontré ninguna clase agendada a tu nombre. ¿Querés agendar una?", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Listo, cancelé tu clase del %s. Cuando querás reagendar, solo escribime 🥋",
		schedule.FormatDateSpanish(b.StartsAt)), nil
}

// BookClassDirect books a single class occurrence for a known lead. Used by
// the admin API.
func (e *Engine) BookClassDirect(ctx context.Context, phone, classTypeID string, startsAt time.Time, notes string) (*booking.Booking, error) {
	normalized := leads.NormalizePhone(phone)
	lead, err := e.leadsRepo.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if notes == "" {
		notes = "Agendado por el equipo"
	}
	b, _, err := e.booking.BookClass(ctx, lead, classTypeID, startsAt, notes)
	if err != nil {
		return nil, err
	}
	if e.reminders != nil {
		if _, err := e.reminders.ScheduleForBooking(ctx, b); err != nil {
			e.logger.Error("reminder scheduling failed", "booking_id", b.ID, "error", err)
		}
	}
	return b, nil
}
