// Package transports defines the boundary between the dialogue engine and the
// network transports that carry it.
package transports

import "context"

// Transport is a long-running network endpoint owning its own lifecycle.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// OutboundDialer allows a transport to initiate outbound calls.
type OutboundDialer interface {
	Dial(ctx context.Context, to, from, url string) (callSID string, err error)
}

// ReadyReporter exposes readiness metadata (e.g. webhook URLs) for
// informational logging at startup. Implementing it is optional.
type ReadyReporter interface {
	ReadyFields() map[string]any
}
