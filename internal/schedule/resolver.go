package schedule

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotParsed is returned when a message carries neither a class reference
// nor a day reference. The caller should prompt the user again instead of
// guessing.
var ErrNotParsed = errors.New("schedule: request not parsed")

// ParsedSlot is a fully resolved booking target.
type ParsedSlot struct {
	ClassType  ClassType
	StartsAt   time.Time
	DayMatched bool // true when the message named a day explicitly
}

// Resolver maps free text onto a concrete class occurrence. The class
// timetable is authoritative: user-typed times never move a fixed slot.
type Resolver struct {
	catalog *Catalog
	lex     Lexicon

	// variableTimes switches the resolver into free-slot mode, where the
	// start time is taken from the message instead of the fixed timetable.
	variableTimes bool
}

// NewResolver creates a resolver over the catalog with the given lexicon.
func NewResolver(catalog *Catalog, lex Lexicon) *Resolver {
	return &Resolver{catalog: catalog, lex: lex}
}

// WithVariableTimes enables free-slot mode.
func (r *Resolver) WithVariableTimes() *Resolver {
	r.variableTimes = true
	return r
}

// Resolve parses a message into a class type and a concrete start instant.
// hint, when non-empty, overrides keyword classification. The result is
// always strictly after now; a weekday equal to now's own weekday resolves
// to next week's occurrence.
func (r *Resolver) Resolve(message, hint string, now time.Time) (*ParsedSlot, error) {
	normalized := Normalize(message)
	now = now.In(r.catalog.Location())

	classID, classMatched := r.classifyClass(normalized, hint)
	targetDate, dayMatched := r.resolveDay(normalized, now)

	if !classMatched && !dayMatched {
		return nil, ErrNotParsed
	}

	ct, err := r.catalog.ClassType(classID)
	if err != nil {
		return nil, err
	}

	var start time.Time
	switch {
	case dayMatched:
		// Roll forward to the class's next scheduled weekday on or after
		// the referenced date, so "lunes" for a Tue/Thu class lands on
		// Tuesday instead of a nonexistent Monday slot.
		date := targetDate
		for i := 0; i < 7 && !ct.OccursOn(date.Weekday()); i++ {
			date = date.AddDate(0, 0, 1)
		}
		start = ct.StartTimeOn(date)
		if r.variableTimes {
			if h, m, ok := ParseClockTime(normalized); ok {
				start = time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location())
			}
		}
		if !start.After(now) {
			start, err = r.catalog.NextOccurrence(ct.ID, now)
			if err != nil {
				return nil, err
			}
		}
	default:
		// No day reference: fall back to the catalog's next occurrence.
		start, err = r.catalog.NextOccurrence(ct.ID, now)
		if err != nil {
			return nil, err
		}
	}

	return &ParsedSlot{ClassType: ct, StartsAt: start, DayMatched: dayMatched}, nil
}

func (r *Resolver) classifyClass(normalized, hint string) (string, bool) {
	if hint != "" {
		return hint, true
	}
	for _, kw := range r.lex.ClassKeywords {
		for _, w := range kw.Words {
			if strings.Contains(normalized, w) {
				return kw.ClassTypeID, true
			}
		}
	}
	return r.lex.DefaultClassTypeID, false
}

// resolveDay finds an explicit day reference. Weekday names always resolve
// forward: a name matching today's weekday means next week, never today.
func (r *Resolver) resolveDay(normalized string, now time.Time) (time.Time, bool) {
	for name, day := range r.lex.Weekdays {
		if !strings.Contains(normalized, name) {
			continue
		}
		ahead := (int(day) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead), true
	}
	for _, w := range r.lex.Tomorrow {
		if strings.Contains(normalized, w) {
			return now.AddDate(0, 0, 1), true
		}
	}
	for _, w := range r.lex.Today {
		if strings.Contains(normalized, w) {
			return now, true
		}
	}
	return time.Time{}, false
}

var clockRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// ParseClockTime extracts a time of day from free text, accepting "6", "6pm",
// "18:00", "7:30 pm". pm adds 12 hours only when the parsed hour is below 12.
func ParseClockTime(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	if m[3] == "pm" && hour < 12 {
		hour += 12
	}
	return hour, minute, true
}
