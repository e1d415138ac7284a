package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bjjmingo/academy-platform/internal/booking"
	"github.com/bjjmingo/academy-platform/internal/reminders"
	"github.com/bjjmingo/academy-platform/internal/schedule"
	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// Sweeper runs a reminder sweep on demand.
type Sweeper interface {
	SweepDue(ctx context.Context) (reminders.Summary, error)
}

// PendingCounter reports how many reminders are still waiting to go out.
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// BookingEngine is the slice of the engine the admin endpoints use.
type BookingEngine interface {
	Slots(ctx context.Context, classTypeID string, capacity int, counter schedule.BookedCounter) ([]schedule.Slot, error)
	BookClassDirect(ctx context.Context, phone, classTypeID string, startsAt time.Time, notes string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, phone string) (string, error)
}

// AdminHandler exposes slot listings, bookings and reminder operations.
type AdminHandler struct {
	engine   BookingEngine
	counter  schedule.BookedCounter
	sweeper  Sweeper
	pending  PendingCounter
	capacity int
	logger   *logging.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(eng BookingEngine, counter schedule.BookedCounter, sweeper Sweeper, capacity int, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if capacity <= 0 {
		capacity = 12
	}
	return &AdminHandler{engine: eng, counter: counter, sweeper: sweeper, capacity: capacity, logger: logger}
}

// WithPendingCounter enables the pending-reminders endpoint.
func (h *AdminHandler) WithPendingCounter(pc PendingCounter) *AdminHandler {
	h.pending = pc
	return h
}

// ListSlots returns upcoming open slots for a class type.
// GET /admin/classes/{classTypeID}/slots
func (h *AdminHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	classTypeID := chi.URLParam(r, "classTypeID")

	slots, err := h.engine.Slots(r.Context(), classTypeID, h.capacity, h.counter)
	if errors.Is(err, schedule.ErrClassTypeNotFound) {
		writeJSONError(w, http.StatusNotFound, "unknown class type")
		return
	}
	if err != nil {
		h.logger.Error("slot listing failed", "class_type", classTypeID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "slot listing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

type bookClassRequest struct {
	Phone       string    `json:"phone"`
	ClassTypeID string    `json:"class_type_id"`
	StartsAt    time.Time `json:"starts_at"`
	Notes       string    `json:"notes"`
}

// BookClass books a class occurrence for an existing lead.
// POST /admin/bookings
func (h *AdminHandler) BookClass(w http.ResponseWriter, r *http.Request) {
	var req bookClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Phone == "" || req.ClassTypeID == "" || req.StartsAt.IsZero() {
		writeJSONError(w, http.StatusBadRequest, "phone, class_type_id and starts_at are required")
		return
	}

	b, err := h.engine.BookClassDirect(r.Context(), req.Phone, req.ClassTypeID, req.StartsAt, req.Notes)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, b)
	case errors.Is(err, booking.ErrDuplicateActiveBooking):
		writeJSONError(w, http.StatusConflict, "lead already has an active booking")
	case errors.Is(err, booking.ErrSlotFull):
		writeJSONError(w, http.StatusConflict, "class is full")
	case errors.Is(err, booking.ErrSlotNotFound), errors.Is(err, booking.ErrSlotInPast):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("admin booking failed", "phone", req.Phone, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "booking failed")
	}
}

type cancelRequest struct {
	Phone string `json:"phone"`
}

// CancelBooking cancels a lead's active booking.
// POST /admin/bookings/cancel
func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		writeJSONError(w, http.StatusBadRequest, "phone is required")
		return
	}

	reply, err := h.engine.CancelBooking(r.Context(), req.Phone)
	if err != nil {
		h.logger.Error("admin cancel failed", "phone", req.Phone, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "cancel failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}

// SweepReminders triggers a reminder sweep outside the worker schedule.
// POST /admin/reminders/sweep
func (h *AdminHandler) SweepReminders(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweeper.SweepDue(r.Context())
	if err != nil {
		h.logger.Error("manual sweep failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PendingReminders reports how many reminders are waiting to be sent.
// GET /admin/reminders/pending
func (h *AdminHandler) PendingReminders(w http.ResponseWriter, r *http.Request) {
	if h.pending == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "reminder store not configured")
		return
	}
	count, err := h.pending.CountPending(r.Context())
	if err != nil {
		h.logger.Error("pending count failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "pending count failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pending": count})
}

// HealthCheck reports liveness.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
