package dialog

import (
	"strings"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/intent"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/leads"
)

// Machine is the dialogue transition function. It is stateless across calls;
// all per-call state lives in the Session it is handed.
type Machine struct {
	fallbackPhone string
}

// Options configures caller-facing behavior.
type Options struct {
	// FallbackPhone, when set, is offered in the escalated re-prompt so a
	// caller the engine keeps misunderstanding can reach an operator.
	FallbackPhone string
}

// NewMachine creates a dialogue machine.
func NewMachine(opts Options) *Machine {
	return &Machine{fallbackPhone: strings.TrimSpace(opts.FallbackPhone)}
}

// Result is the outcome of one transition: the prompt to speak and, only when
// the caller just confirmed, the finished lead.
type Result struct {
	Prompt string
	Lead   *leads.Lead
}

// Greeting is the first prompt of every call.
func (m *Machine) Greeting() string { return promptGreeting }

// Advance consumes one extracted utterance and moves the session forward.
// Classifier misses re-prompt in place; no step is ever skipped and no field
// is stored unverified. There is no retry limit: a caller may loop forever.
func (m *Machine) Advance(s *Session, utterance string) Result {
	s.MissStreak = 0
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Result{Prompt: promptMiss}
	}

	switch s.Step {
	case StepRole:
		role := intent.ClassifyRole(text)
		if role == intent.RoleUnset {
			return Result{Prompt: promptRoleRetry}
		}
		s.Fields.Role = role
		s.Step = StepLocation
		return Result{Prompt: locationPrompt(role)}

	case StepLocation:
		s.Fields.Location = intent.Title(text)
		s.Step = StepName
		return Result{Prompt: promptName}

	case StepName:
		s.Fields.Name = intent.Title(text)
		s.Step = StepPhone
		return Result{Prompt: promptPhone}

	case StepPhone:
		phone, ok := intent.ExtractPhone(text)
		if !ok {
			return Result{Prompt: promptPhoneRetry}
		}
		s.Fields.Phone = phone
		s.Step = StepConfirm
		return Result{Prompt: confirmPrompt(s.Fields)}

	case StepConfirm:
		switch intent.ClassifyAffirmation(text) {
		case intent.AffirmationYes:
			lead := &leads.Lead{
				Role:     s.Fields.Role,
				Name:     s.Fields.Name,
				Phone:    s.Fields.Phone,
				Location: s.Fields.Location,
				Call:     s.Call,
			}
			s.Step = StepDone
			return Result{Prompt: closingPrompt(lead.Role), Lead: lead}
		case intent.AffirmationNo:
			s.reset()
			return Result{Prompt: promptRestart}
		default:
			return Result{Prompt: promptConfirmRetry}
		}

	default: // StepDone keeps listening for small talk until disconnect.
		return Result{Prompt: promptDone}
	}
}

// HandleMiss issues the "didn't understand" prompt for an event from which no
// utterance could be extracted. The second consecutive miss escalates the
// wording once, spelling out the valid role words, then the streak resets.
func (m *Machine) HandleMiss(s *Session) string {
	s.MissStreak++
	if s.MissStreak >= 2 {
		s.MissStreak = 0
		return m.missEscalatedPrompt()
	}
	return promptMiss
}
