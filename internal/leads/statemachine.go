package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/bjjmingo/academy-platform/pkg/logging"
)

// transitions is the funnel adjacency. Transitions are one-directional
// except the follow_up → re_engaged → interested re-entry, the
// no_show → follow_up recovery, and the scheduled → interested revert used
// when a booking is cancelled.
var transitions = map[Status][]Status{
	StatusNew:        {StatusEngaged, StatusLost},
	StatusEngaged:    {StatusInterested, StatusFollowUp, StatusLost},
	StatusInterested: {StatusScheduled, StatusFollowUp, StatusLost},
	StatusScheduled:  {StatusShowedUp, StatusNoShow, StatusInterested, StatusLost},
	StatusShowedUp:   {StatusConverted, StatusFollowUp, StatusLost},
	StatusNoShow:     {StatusFollowUp, StatusLost},
	StatusFollowUp:   {StatusReEngaged, StatusLost},
	StatusReEngaged:  {StatusInterested, StatusLost},
	StatusConverted:  {},
	StatusLost:       {},
}

// CanTransition reports whether target is reachable from s in one step.
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// InterestLexicon lists the words that count as an interest signal.
type InterestLexicon []string

// DefaultInterestLexicon returns the interest words the assistant ships with.
func DefaultInterestLexicon() InterestLexicon {
	return InterestLexicon{"prueba", "probar", "trial", "free", "gratis", "book", "agendar", "clase", "schedule", "semana"}
}

// StateMachine validates and applies lead status transitions.
type StateMachine struct {
	lexicon InterestLexicon
	logger  *logging.Logger
	now     func() time.Time
}

// NewStateMachine creates a state machine with the given interest lexicon.
func NewStateMachine(lexicon InterestLexicon, logger *logging.Logger) *StateMachine {
	if lexicon == nil {
		lexicon = DefaultInterestLexicon()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StateMachine{lexicon: lexicon, logger: logger, now: time.Now}
}

// WithNow overrides the clock for tests.
func (m *StateMachine) WithNow(now func() time.Time) *StateMachine {
	m.now = now
	return m
}

// Transition moves the lead to target, recomputing the score as a side
// effect. Illegal transitions fail with ErrInvalidTransition and leave the
// lead untouched.
func (m *StateMachine) Transition(lead *Lead, target Status) error {
	if !lead.Status.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lead.Status, target)
	}
	from := lead.Status
	lead.Status = target
	lead.Score = ScoreOf(lead)
	lead.UpdatedAt = m.now().UTC()

	m.logger.Info("lead status changed",
		"lead_id", lead.ID,
		"from", from,
		"to", target,
		"score", lead.Score,
	)
	return nil
}

// RecordInterestSignal inspects an inbound message and advances the funnel:
// a first-ever message always moves new → engaged, and an interest keyword
// moves engaged → interested. Returns true when the status changed.
func (m *StateMachine) RecordInterestSignal(lead *Lead, message string) (bool, error) {
	if lead.Status == StatusNew {
		return true, m.Transition(lead, StatusEngaged)
	}

	normalized := strings.ToLower(message)
	matched := false
	for _, w := range m.lexicon {
		if strings.Contains(normalized, w) {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	switch lead.Status {
	case StatusEngaged, StatusReEngaged:
		return true, m.Transition(lead, StatusInterested)
	case StatusInterested:
		// Already interested: nothing to advance.
		return false, nil
	}
	return false, nil
}
