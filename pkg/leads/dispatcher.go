package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/errorsx"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/redact"
)

// Dispatcher posts confirmed leads to the intake endpoint, fire-and-forget.
// Delivery failures are logged and swallowed: the call flow must never stall
// because the downstream service is slow or down. There is no retry and no
// durable queue, so an unreachable intake loses the lead beyond a log line.
type Dispatcher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	observer func(status string)
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithObserver registers a callback invoked once per dispatch with the outcome
// ("ok", "error" or "disabled"), used to feed metrics.
func WithObserver(fn func(status string)) Option {
	return func(d *Dispatcher) { d.observer = fn }
}

// NewDispatcher creates a dispatcher for the given intake endpoint. An empty
// endpoint switches to log-only mode: leads are logged, never sent.
func NewDispatcher(endpoint string, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: 2 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether an intake endpoint is configured.
func (d *Dispatcher) Enabled() bool { return d.endpoint != "" }

// Dispatch hands the lead off on a detached goroutine and returns immediately.
// The session loop never waits on, or hears back from, the delivery.
func (d *Dispatcher) Dispatch(lead Lead) {
	go func() {
		status := "ok"
		if err := d.deliver(context.Background(), lead); err != nil {
			status = "error"
			if errorsx.HasReason(err, errorsx.ReasonLeadSkipped) {
				status = "disabled"
			} else {
				d.logger.Warn("lead_dispatch_failed",
					"reason_code", string(errorsx.Reason(err)),
					"call_sid", lead.Call.CallSID,
					"error", redact.Text(err.Error()),
				)
			}
		}
		if d.observer != nil {
			d.observer(status)
		}
	}()
}

// deliver performs the single POST. Split out so tests can exercise delivery
// synchronously.
func (d *Dispatcher) deliver(ctx context.Context, lead Lead) error {
	if !d.Enabled() {
		d.logger.Info("lead_dispatch_skipped",
			"call_sid", lead.Call.CallSID,
			"role", string(lead.Role),
			"phone", redact.Phone(lead.Phone),
		)
		return errorsx.New(errorsx.ReasonLeadSkipped, "intake endpoint not configured")
	}
	body, err := json.Marshal(lead.Payload())
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonLeadEncode)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonLeadPost)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonLeadPost)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errorsx.New(errorsx.ReasonLeadStatus,
			fmt.Sprintf("intake non-2xx: %d: %s", resp.StatusCode, string(snippet)))
	}
	d.logger.Info("lead_dispatched",
		"call_sid", lead.Call.CallSID,
		"role", string(lead.Role),
		"phone", redact.Phone(lead.Phone),
	)
	return nil
}
