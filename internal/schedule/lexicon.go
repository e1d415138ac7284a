package schedule

import (
	"strings"
	"time"
)

// ClassKeyword maps trigger words to a class type. Order matters: the first
// keyword group that matches wins.
type ClassKeyword struct {
	ClassTypeID string
	Words       []string
}

// Lexicon is the immutable keyword configuration injected into the Resolver.
// Entries are matched against a lowercased, accent-folded message.
type Lexicon struct {
	Weekdays           map[string]time.Weekday
	Today              []string
	Tomorrow           []string
	ClassKeywords      []ClassKeyword
	DefaultClassTypeID string
}

// DefaultLexicon returns the Spanish lexicon the assistant ships with.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Weekdays: map[string]time.Weekday{
			"lunes":     time.Monday,
			"martes":    time.Tuesday,
			"miercoles": time.Wednesday,
			"jueves":    time.Thursday,
			"viernes":   time.Friday,
			"sabado":    time.Saturday,
		},
		Today:    []string{"hoy"},
		Tomorrow: []string{"manana"},
		ClassKeywords: []ClassKeyword{
			{ClassTypeID: "adultos_striking", Words: []string{"striking"}},
			{ClassTypeID: "kids", Words: []string{"kid", "nino", "nina", "hijo", "hija", "chiquito"}},
			{ClassTypeID: "juniors", Words: []string{"junior", "adolescente", "teenager", "chamaco"}},
			{ClassTypeID: "adultos_jiujitsu", Words: []string{"adulto", "jiu", "jiujitsu", "bjj"}},
		},
		DefaultClassTypeID: "adultos_jiujitsu",
	}
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// Normalize lowercases and strips accents so that "Miércoles" matches
// "miercoles".
func Normalize(s string) string {
	return accentFolder.Replace(strings.ToLower(s))
}
