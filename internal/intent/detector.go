// Package intent decides whether an inbound message is an attempt to book a
// class. It is deliberately heuristic: substring and regex checks combined
// so that a lone day or time mention is never enough on its own.
package intent

import (
	"regexp"
	"strings"

	"github.com/bjjmingo/academy-platform/internal/schedule"
)

// Lexicon holds the keyword configuration for the detector. It is injected
// so tests can swap vocabularies.
type Lexicon struct {
	// BookingKeywords mark an explicit booking attempt in the current message.
	BookingKeywords []string
	// DayWords are weekday names plus relative markers, accent-folded.
	DayWords []string
	// DiscussionKeywords mark booking-adjacent vocabulary in recent history.
	DiscussionKeywords []string
}

// DefaultLexicon returns the Spanish booking vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		BookingKeywords: []string{
			"agendar", "reservar", "apartar", "quiero clase", "mi nombre es",
			"quiero una clase", "clase el", "clase para", "semana de prueba",
		},
		DayWords: []string{
			"lunes", "martes", "miercoles", "jueves", "viernes", "sabado",
			"manana", "hoy",
		},
		DiscussionKeywords: []string{
			"agendar", "reservar", "semana de prueba", "horario", "clase para",
		},
	}
}

// historyWindow caps how many recent turns are inspected.
const historyWindow = 5

var (
	timeRe = regexp.MustCompile(`\d{1,2}:?\d{0,2}\s?(am|pm|hrs)?`)
	// Two capitalized words in a row, the shape of "First Last".
	nameRe = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+`)
)

// Detector classifies booking intent from a message and a short history.
type Detector struct {
	lex Lexicon
}

// NewDetector creates a detector with the given lexicon.
func NewDetector(lex Lexicon) *Detector {
	return &Detector{lex: lex}
}

// Detect reports whether the message, in the context of up to the last five
// history turns, expresses booking intent. The decision is an OR of four
// conjunctions that each require at least two independent signals.
func (d *Detector) Detect(message string, history []string) bool {
	normalized := schedule.Normalize(message)

	hasKeyword := containsAny(normalized, d.lex.BookingKeywords)
	hasDay := containsAny(normalized, d.lex.DayWords)
	hasTime := timeRe.MatchString(normalized)
	hasName := nameRe.MatchString(message)
	discussing := d.discussingBooking(history)

	switch {
	case hasKeyword && hasDay && hasTime:
		return true
	case hasDay && hasTime && discussing:
		return true
	case hasName && hasDay && hasTime:
		return true
	case hasName && discussing:
		return true
	}
	return false
}

func (d *Detector) discussingBooking(history []string) bool {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, turn := range history[start:] {
		if containsAny(schedule.Normalize(turn), d.lex.DiscussionKeywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
