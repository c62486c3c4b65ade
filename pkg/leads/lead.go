// Package leads carries the structured outcome of a confirmed intake call and
// its best-effort delivery to the downstream contact-intake service.
package leads

import (
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/intent"
)

// Source tags every dispatched lead with the channel it came from.
const Source = "voice-cr"

// CallInfo is the transport-supplied metadata attached to a lead.
type CallInfo struct {
	CallSID string
	From    string
	To      string
}

// Lead is the immutable snapshot built when a caller confirms the collected
// data. It is produced at most once per session and never mutated afterwards.
type Lead struct {
	Role     intent.Role
	Name     string
	Phone    string
	Location string
	Call     CallInfo
}

// locationKey returns the wire key for the location field: franchisees talk
// about zones, owners and tenants about cities.
func (l Lead) locationKey() string {
	if l.Role == intent.RoleFranchisee {
		return "zone"
	}
	return "city"
}

// Payload serializes the lead into the intake service's wire format.
func (l Lead) Payload() map[string]any {
	p := map[string]any{
		"role":     string(l.Role),
		"name":     l.Name,
		"phone":    l.Phone,
		"via":      Source,
		"call_sid": l.Call.CallSID,
		"from":     l.Call.From,
		"to":       l.Call.To,
	}
	p[l.locationKey()] = l.Location
	return p
}
