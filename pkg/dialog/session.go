// Package dialog implements the per-call intake conversation: a small state
// machine that walks a caller through role, location, name and phone, confirms
// the collected data and produces a lead. One Session exists per connection,
// owned exclusively by that connection's loop; nothing here is shared.
package dialog

import (
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/intent"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/leads"
)

// Step identifies the current stage of the intake dialogue.
type Step int

const (
	StepRole Step = iota
	StepLocation
	StepName
	StepPhone
	StepConfirm
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepRole:
		return "role"
	case StepLocation:
		return "location"
	case StepName:
		return "name"
	case StepPhone:
		return "phone"
	case StepConfirm:
		return "confirm"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Fields holds the data collected so far. Location means city for owners and
// tenants, zone for franchisees.
type Fields struct {
	Role     intent.Role
	Location string
	Name     string
	Phone    string
}

// Session is the per-connection dialogue state. Created on accept, mutated
// only by the Machine, discarded on disconnect.
type Session struct {
	ID     string
	Step   Step
	Fields Fields
	Call   leads.CallInfo

	// MissStreak counts consecutive events from which no utterance could be
	// extracted. Any successful extraction resets it.
	MissStreak int
}

// NewSession creates a session at the initial step.
func NewSession(id string) *Session {
	return &Session{ID: id, Step: StepRole}
}

// reset clears all collected fields and returns to the role question. Applying
// it twice yields the same empty state.
func (s *Session) reset() {
	s.Fields = Fields{}
	s.Step = StepRole
}
