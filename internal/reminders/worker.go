package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/notify"
	"github.com/bjjmingo/academy-platform/internal/observability/metrics"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// The sweep looks one day ahead with an hour of slack on either side, so a
// reminder reaches the lead roughly 24 hours before class regardless of how
// the sweep interval aligns with the timetable.
const (
	windowStart = 23 * time.Hour
	windowEnd   = 25 * time.Hour
)

// LeadLookup loads leads by id.
type LeadLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*leads.Lead, error)
}

// Summary reports the outcome of one sweep.
type Summary struct {
	Found  int
	Sent   int
	Failed int
}

// Worker sweeps due reminders and delivers them to leads.
type Worker struct {
	store     EventStore
	leads     LeadLookup
	catalog   *schedule.Catalog
	wa        notify.WhatsAppSender
	email     notify.EmailSender
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewWorker creates a reminder worker.
func NewWorker(store EventStore, leadLookup LeadLookup, catalog *schedule.Catalog, wa notify.WhatsAppSender, email notify.EmailSender, m *metrics.EngineMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		store:     store,
		leads:     leadLookup,
		catalog:   catalog,
		wa:        wa,
		email:     email,
		metrics:   m,
		logger:    logger,
		interval:  1 * time.Hour,
		retention: 30 * 24 * time.Hour,
		now:       time.Now,
	}
}

// WithInterval sets the sweep interval.
func (w *Worker) WithInterval(interval time.Duration) *Worker {
	w.interval = interval
	return w
}

// WithRetention sets how long events are kept after their class time.
func (w *Worker) WithRetention(d time.Duration) *Worker {
	w.retention = d
	return w
}

// WithNow overrides the clock. Used in tests.
func (w *Worker) WithNow(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Start runs the reminder worker. Blocks until context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting reminder worker",
		"interval", w.interval.String(),
		"retention", w.retention.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	summary, err := w.SweepDue(ctx)
	if err != nil {
		w.logger.Error("reminder sweep failed", "error", err)
	} else if summary.Found > 0 {
		w.logger.Info("reminder sweep done",
			"found", summary.Found, "sent", summary.Sent, "failed", summary.Failed)
	}

	if deleted, err := w.Cleanup(ctx); err != nil {
		w.logger.Error("reminder cleanup failed", "error", err)
	} else if deleted > 0 {
		w.logger.Info("old reminder events deleted", "count", deleted)
	}
}

// SweepDue finds pending reminders whose class starts about a day from now
// and delivers each one. Sent events are never picked up again.
func (w *Worker) SweepDue(ctx context.Context) (Summary, error) {
	now := w.now()
	events, err := w.store.ListDueWindow(ctx, now.Add(windowStart), now.Add(windowEnd))
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Found: len(events)}
	for i := range events {
		if err := w.deliverOne(ctx, &events[i]); err != nil {
			summary.Failed++
			w.metrics.ObserveReminder("failed")
			w.logger.Error("reminder delivery failed",
				"id", events[i].ID, "lead_id", events[i].LeadID, "error", err)
			continue
		}
		summary.Sent++
		w.metrics.ObserveReminder("sent")
	}
	return summary, nil
}

func (w *Worker) deliverOne(ctx context.Context, e *Event) error {
	lead, err := w.leads.GetByID(ctx, e.LeadID)
	if err != nil {
		w.markFailed(ctx, e, fmt.Sprintf("load lead: %v", err))
		return fmt.Errorf("load lead: %w", err)
	}

	body, err := w.reminderBody(lead, e)
	if err != nil {
		w.markFailed(ctx, e, err.Error())
		return err
	}

	channels := []notify.Channel{
		notify.NewWhatsAppChannel("whatsapp_lead", w.wa, lead.Phone),
	}
	if lead.Email != "" {
		channels = append(channels, notify.NewEmailChannel("email_lead", w.email, lead.Email, lead.Name))
	}
	dispatcher := notify.NewDispatcher(channels, w.metrics, w.logger)

	res := dispatcher.Dispatch(ctx, notify.Message{Subject: "Recordatorio de clase", Body: body})
	if !res.Success {
		w.markFailed(ctx, e, res.Detail)
		return fmt.Errorf("dispatch: %s", res.Detail)
	}

	if err := w.store.MarkSent(ctx, e.ID); err != nil {
		return err
	}
	w.logger.Info("reminder sent",
		"id", e.ID, "lead_id", e.LeadID, "channel", res.Channel, "class_at", e.ClassAt)
	return nil
}

func (w *Worker) markFailed(ctx context.Context, e *Event, detail string) {
	if err := w.store.MarkFailed(ctx, e.ID, detail); err != nil {
		w.logger.Error("mark failed errored", "id", e.ID, "error", err)
	}
}

func (w *Worker) reminderBody(lead *leads.Lead, e *Event) (string, error) {
	ct, err := w.catalog.ClassType(e.ClassTypeID)
	if err != nil {
		return "", fmt.Errorf("class type: %w", err)
	}
	name := ""
	if lead.Name != "" {
		name = " " + lead.Name
	}
	return fmt.Sprintf("¡Hola%s! Te recordamos tu clase de %s mañana %s a las %s. ¡Nos vemos en el tatami! 🥋",
		name, ct.Name, schedule.FormatDateSpanish(e.ClassAt), ct.TimeLabel()), nil
}

// Cleanup deletes events whose class happened longer ago than the retention
// window.
func (w *Worker) Cleanup(ctx context.Context) (int64, error) {
	return w.store.DeleteOlderThan(ctx, w.now().Add(-w.retention))
}
