package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/bjjmingo/academy-platform/internal/conversation"
	"github.com/bjjmingo/academy-platform/internal/leads"
	"github.com/bjjmingo/academy-platform/internal/schedule"
)

// ResponseGenerator produces the reply for messages that are not booking
// requests. Implementations range from canned responses to an LLM.
type ResponseGenerator interface {
	Reply(ctx context.Context, lead *leads.Lead, message string, history []conversation.Message) (string, error)
}

// RuleResponder answers common questions from the timetable and falls back
// to a prompt that nudges the lead toward booking a trial class.
type RuleResponder struct {
	catalog *schedule.Catalog
}

// NewRuleResponder creates a responder over the class timetable.
func NewRuleResponder(catalog *schedule.Catalog) *RuleResponder {
	return &RuleResponder{catalog: catalog}
}

func (r *RuleResponder) Reply(ctx context.Context, lead *leads.Lead, message string, history []conversation.Message) (string, error) {
	normalized := schedule.Normalize(message)

	switch {
	case containsAny(normalized, []string{"hola", "buenas", "buenos dias", "saludos"}) && len(history) <= 1:
		name := ""
		if lead.Name != "" {
			name = " " + firstWord(lead.Name)
		}
		return fmt.Sprintf("¡Hola%s! Soy el asistente de BJJ Mingo 🥋 ¿Te gustaría agendar una clase de prueba gratis? Contame qué día te queda bien.", name), nil
	case containsAny(normalized, []string{"horario", "horarios", "cuando", "que dias", "a que hora"}):
		return r.timetableReply(), nil
	case containsAny(normalized, []string{"precio", "precios", "cuanto cuesta", "mensualidad", "costo"}):
		return "Tu primera clase es totalmente gratis 🥋 Los precios de la mensualidad te los compartimos en la academia cuando nos visités. ¿Querés agendar tu clase de prueba?", nil
	case containsAny(normalized, []string{"donde", "ubicacion", "direccion", "llegar"}):
		return "Estamos en Santo Domingo de Heredia, Costa Rica. ¿Querés agendar una clase de prueba para conocernos?", nil
	}

	return "¡Pura vida! Si querés probar una clase gratis, decime qué día te queda bien y te la agendo 🥋", nil
}

func (r *RuleResponder) timetableReply() string {
	var sb strings.Builder
	sb.WriteString("Estos son nuestros horarios:\n\n")
	for _, ct := range r.catalog.ClassTypes() {
		fmt.Fprintf(&sb, "🥋 %s: %s a las %s", ct.Name, ct.DaysLabel(), ct.TimeLabel())
		if ct.AgeBand != "" {
			fmt.Fprintf(&sb, " (%s)", ct.AgeBand)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n¿Te agendo una clase de prueba gratis?")
	return sb.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return s
	}
	return parts[0]
}
