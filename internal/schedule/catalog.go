// Package schedule owns the weekly class timetable: the static catalog of
// class types, enumeration of upcoming slots, and the free-text resolver
// that maps conversational day references onto concrete class occurrences.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrClassTypeNotFound is returned when a class type id is not in the catalog.
var ErrClassTypeNotFound = errors.New("schedule: class type not found")

// ClassType is one recurring class with a fixed weekly timetable.
type ClassType struct {
	ID          string
	Name        string
	Weekdays    []time.Weekday
	StartHour   int
	StartMinute int
	AgeBand     string // optional, e.g. "4 a 10 años"
}

// OccursOn reports whether the class runs on the given weekday.
func (c ClassType) OccursOn(day time.Weekday) bool {
	for _, d := range c.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// StartTimeOn returns the concrete start instant of the class on the given
// date, in the date's location. The caller is responsible for checking that
// the class actually runs that weekday.
func (c ClassType) StartTimeOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.StartHour, c.StartMinute, 0, 0, date.Location())
}

// TimeLabel renders the fixed start time as HH:MM.
func (c ClassType) TimeLabel() string {
	return fmt.Sprintf("%02d:%02d", c.StartHour, c.StartMinute)
}

// DaysLabel renders the weekday set, e.g. "Lunes, Martes".
func (c ClassType) DaysLabel() string {
	names := make([]string, 0, len(c.Weekdays))
	for _, d := range c.Weekdays {
		names = append(names, SpanishDayName(d))
	}
	return strings.Join(names, ", ")
}

// Catalog is the immutable class timetable, loaded once at startup.
type Catalog struct {
	classes map[string]ClassType
	order   []string
	loc     *time.Location
}

// NewCatalog builds a catalog from the given class types. Class ids must be
// unique.
func NewCatalog(loc *time.Location, classes ...ClassType) (*Catalog, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := &Catalog{
		classes: make(map[string]ClassType, len(classes)),
		loc:     loc,
	}
	for _, ct := range classes {
		if ct.ID == "" {
			return nil, errors.New("schedule: class type id is required")
		}
		if _, dup := c.classes[ct.ID]; dup {
			return nil, fmt.Errorf("schedule: duplicate class type %q", ct.ID)
		}
		if len(ct.Weekdays) == 0 {
			return nil, fmt.Errorf("schedule: class type %q has no weekdays", ct.ID)
		}
		sort.Slice(ct.Weekdays, func(i, j int) bool {
			return mondayIndex(ct.Weekdays[i]) < mondayIndex(ct.Weekdays[j])
		})
		c.classes[ct.ID] = ct
		c.order = append(c.order, ct.ID)
	}
	return c, nil
}

// ClassType looks up a class type by id.
func (c *Catalog) ClassType(id string) (ClassType, error) {
	ct, ok := c.classes[id]
	if !ok {
		return ClassType{}, fmt.Errorf("%w: %q", ErrClassTypeNotFound, id)
	}
	return ct, nil
}

// ClassTypes returns all class types in declaration order.
func (c *Catalog) ClassTypes() []ClassType {
	out := make([]ClassType, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.classes[id])
	}
	return out
}

// ClassTypesFor returns the class types that run on the given weekday.
func (c *Catalog) ClassTypesFor(day time.Weekday) []ClassType {
	var out []ClassType
	for _, id := range c.order {
		if ct := c.classes[id]; ct.OccursOn(day) {
			out = append(out, ct)
		}
	}
	return out
}

// Location returns the academy's timezone.
func (c *Catalog) Location() *time.Location {
	return c.loc
}

// NextOccurrence returns the first start instant of the class strictly after
// the given reference time.
func (c *Catalog) NextOccurrence(id string, after time.Time) (time.Time, error) {
	ct, err := c.ClassType(id)
	if err != nil {
		return time.Time{}, err
	}
	after = after.In(c.loc)
	for i := 0; i < 8; i++ {
		date := after.AddDate(0, 0, i)
		if !ct.OccursOn(date.Weekday()) {
			continue
		}
		start := ct.StartTimeOn(date)
		if start.After(after) {
			return start, nil
		}
	}
	return time.Time{}, fmt.Errorf("schedule: no upcoming occurrence for %q", id)
}

// mondayIndex orders weekdays Monday-first, matching how the academy talks
// about its week.
func mondayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

var spanishDayNames = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// SpanishDayName returns the display name used in customer-facing copy.
func SpanishDayName(d time.Weekday) string {
	return spanishDayNames[d]
}

var spanishMonthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDateSpanish renders a date as "martes 13 de enero".
func FormatDateSpanish(t time.Time) string {
	return fmt.Sprintf("%s %d de %s", strings.ToLower(SpanishDayName(t.Weekday())), t.Day(), spanishMonthNames[t.Month()-1])
}

// DefaultCatalog is the academy's real weekly timetable.
func DefaultCatalog(loc *time.Location) *Catalog {
	c, err := NewCatalog(loc,
		ClassType{
			ID:        "adultos_jiujitsu",
			Name:      "Jiu-Jitsu Adultos",
			Weekdays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			StartHour: 18,
		},
		ClassType{
			ID:          "adultos_striking",
			Name:        "Striking Adultos",
			Weekdays:    []time.Weekday{time.Tuesday, time.Thursday},
			StartHour:   19,
			StartMinute: 30,
		},
		ClassType{
			ID:        "kids",
			Name:      "Jiu-Jitsu Kids",
			Weekdays:  []time.Weekday{time.Tuesday, time.Thursday},
			StartHour: 17,
			AgeBand:   "4 a 10 años",
		},
		ClassType{
			ID:        "juniors",
			Name:      "Jiu-Jitsu Juniors",
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			StartHour: 17,
			AgeBand:   "11 a 16 años",
		},
	)
	if err != nil {
		// The seed data above is static; a failure here is a programming error.
		panic(err)
	}
	return c
}
