package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Slot is one concrete future occurrence of a class type.
type Slot struct {
	ClassTypeID string    `json:"class_type_id"`
	ClassName   string    `json:"class_name"`
	Date        string    `json:"date"` // YYYY-MM-DD in the academy timezone
	Time        string    `json:"time"` // HH:MM
	StartsAt    time.Time `json:"starts_at"`
	Display     string    `json:"display"`
	Remaining   int       `json:"remaining,omitempty"` // only set by the capacity-aware variant
}

// BookedCounter reports how many active bookings already target a slot.
// The booking store implements it.
type BookedCounter interface {
	CountForSlot(ctx context.Context, classTypeID string, startsAt time.Time) (int, error)
}

// Calculator enumerates upcoming class occurrences from the catalog.
type Calculator struct {
	catalog *Catalog
	now     func() time.Time
}

// NewCalculator creates a slot calculator. nowFn may be nil, in which case
// time.Now is used.
func NewCalculator(catalog *Catalog, nowFn func() time.Time) *Calculator {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Calculator{catalog: catalog, now: nowFn}
}

// AvailableSlots lists every class occurrence in the next daysAhead days,
// ordered by start time. classTypeID filters to one class type; empty means
// all of them. Today is excluded: the trial week always starts on a later
// occurrence.
func (c *Calculator) AvailableSlots(classTypeID string, daysAhead int) ([]Slot, error) {
	if daysAhead <= 0 {
		daysAhead = 14
	}

	types := c.catalog.ClassTypes()
	if classTypeID != "" {
		ct, err := c.catalog.ClassType(classTypeID)
		if err != nil {
			return nil, err
		}
		types = []ClassType{ct}
	}

	now := c.now().In(c.catalog.Location())
	var slots []Slot
	for i := 1; i <= daysAhead; i++ {
		date := now.AddDate(0, 0, i)
		for _, ct := range types {
			if !ct.OccursOn(date.Weekday()) {
				continue
			}
			start := ct.StartTimeOn(date)
			slots = append(slots, Slot{
				ClassTypeID: ct.ID,
				ClassName:   ct.Name,
				Date:        start.Format(time.DateOnly),
				Time:        ct.TimeLabel(),
				StartsAt:    start,
				Display: fmt.Sprintf("%s %s - %s a las %s",
					SpanishDayName(start.Weekday()), start.Format("02/01"), ct.Name, ct.TimeLabel()),
			})
		}
	}
	sortSlots(slots)
	return slots, nil
}

// AvailableSlotsWithCapacity is the capacity-aware variant used for single
// class bookings: it subtracts already-booked counts and drops full slots.
func (c *Calculator) AvailableSlotsWithCapacity(ctx context.Context, classTypeID string, daysAhead, capacity int, counter BookedCounter) ([]Slot, error) {
	slots, err := c.AvailableSlots(classTypeID, daysAhead)
	if err != nil {
		return nil, err
	}
	if capacity <= 0 || counter == nil {
		return slots, nil
	}

	out := slots[:0]
	for _, s := range slots {
		booked, err := counter.CountForSlot(ctx, s.ClassTypeID, s.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("schedule: count booked for slot: %w", err)
		}
		remaining := capacity - booked
		if remaining <= 0 {
			continue
		}
		s.Remaining = remaining
		out = append(out, s)
	}
	return out, nil
}

// FormatSlotsMessage renders the slot list as the reply the assistant sends
// when someone asks for the timetable. Slots are grouped per class type.
func (c *Calculator) FormatSlotsMessage(slots []Slot) string {
	if len(slots) == 0 {
		return "Lo siento, no hay horarios disponibles en los próximos días."
	}

	var b strings.Builder
	b.WriteString("📅 Horarios disponibles para tu semana de prueba GRATIS:\n")

	seen := make(map[string]bool)
	for _, s := range slots {
		if seen[s.ClassTypeID] {
			continue
		}
		seen[s.ClassTypeID] = true
		ct, err := c.catalog.ClassType(s.ClassTypeID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n*%s:*\n  %s a las %s\n", ct.Name, ct.DaysLabel(), ct.TimeLabel())
	}

	b.WriteString("\n💬 Respondé con el nombre de la clase y cuándo querés empezar.\n")
	b.WriteString("Ejemplo: 'Jiu-Jitsu adultos el martes'\n")
	b.WriteString("\n🎁 Recordá: ¡Tu primera SEMANA es GRATIS!")
	return b.String()
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartsAt.Before(slots[j].StartsAt)
	})
}
