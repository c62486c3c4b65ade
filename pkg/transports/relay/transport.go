// Package relay implements the speech-relay WebSocket adapter: it accepts
// ConversationRelay connections, feeds decoded events through the transcript
// extractor and the dialogue machine, and speaks the resulting prompts back.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/twilio/twilio-go/client"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/dialog"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/errorsx"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/leads"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/metrics"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/redact"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/transcript"
)

// Config carries the relay's network settings, decoded from the free-form
// transport settings map.
type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	PublicURL      string   `mapstructure:"public_url"`
	AccountSID     string   `mapstructure:"account_sid"`
	AuthToken      string   `mapstructure:"auth_token"`
	VoicePath      string   `mapstructure:"voice_path"`
	WebsocketPath  string   `mapstructure:"ws_path"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.VoicePath == "" {
		c.VoicePath = "/voice"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/cr"
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// LeadDispatcher is the downstream sink for confirmed leads.
type LeadDispatcher interface {
	Dispatch(leads.Lead)
}

// Deps are the collaborators one Transport drives.
type Deps struct {
	Machine    *dialog.Machine
	Dispatcher LeadDispatcher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Speak controls whether prompts are actually sent. When false the
	// engine runs silently and only logs what it would have said.
	Speak bool
}

// Transport serves the /voice webhook, the relay WebSocket, /health and
// /metrics. Each accepted WebSocket gets its own session and goroutine;
// sessions share nothing.
type Transport struct {
	cfg      Config
	deps     Deps
	server   *http.Server
	upgrader websocket.Upgrader
	logger   *slog.Logger

	draining atomic.Bool
}

// promptFrame is the outbound wire format: one text token for the relay's
// synthesizer to render.
type promptFrame struct {
	Type          string `json:"type"`
	Token         string `json:"token"`
	Last          bool   `json:"last"`
	Interruptible bool   `json:"interruptible"`
}

// New creates a relay transport.
func New(cfg Config, deps Deps) *Transport {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

func (t *Transport) Name() string { return "relay" }

// ReadyFields reports the URLs the telephony side must be pointed at.
func (t *Transport) ReadyFields() map[string]any {
	return map[string]any{
		"voice_webhook_url": t.voiceWebhookURL(),
		"relay_ws_url":      t.websocketURLForHost(""),
	}
}

// Start brings up the HTTP server. It returns immediately; the server stops
// when ctx is canceled or Stop is called.
func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc(t.cfg.VoicePath, t.handleVoice)
	mux.Handle(t.cfg.WebsocketPath, t)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = t.server.Close()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("relay_server_error", "error", err.Error())
		}
	}()
	return nil
}

// Stop refuses new connections and closes the server. Open sessions end when
// their peers disconnect.
func (t *Transport) Stop() error {
	t.draining.Store(true)
	if t.server != nil {
		_ = t.server.Close()
	}
	return nil
}

// Drain is Stop under the lifecycle runner's drain phase.
func (t *Transport) Drain() error { return t.Stop() }

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "service": "voice-cr-ws"})
}

// ServeHTTP upgrades the relay WebSocket and runs the per-call loop.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("relay_upgrade_failed",
			"reason_code", string(errorsx.ReasonRelayUpgrade), "error", err.Error())
		return
	}
	// The close must always complete; any error from it is dropped.
	defer func() { _ = conn.Close() }()

	sess := dialog.NewSession(uuid.NewString())
	if m := t.deps.Metrics; m != nil {
		m.ActiveSessions.Inc()
		m.SessionEvents.WithLabelValues("started").Inc()
		defer func() {
			m.ActiveSessions.Dec()
			m.SessionEvents.WithLabelValues("ended").Inc()
		}()
	}
	t.logger.Info("session_started", "session_id", sess.ID)

	t.serveSession(conn, sess)
}

// serveSession is the strictly sequential per-connection loop: read one frame,
// route it, finish to write the prompt, then read the next frame. Only lead
// dispatch runs detached from it.
func (t *Transport) serveSession(conn *websocket.Conn, sess *dialog.Session) {
	if err := t.say(conn, sess, t.deps.Machine.Greeting()); err != nil {
		return
	}
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.logReadEnd(sess, err)
			return
		}
		if msgType != websocket.TextMessage {
			t.logger.Warn("relay_unexpected_frame",
				"session_id", sess.ID, "msg_type", msgType,
				"reason_code", string(errorsx.ReasonRelayDecode))
			continue
		}

		payload := decodePayload(raw)
		if evt, ok := payload.(map[string]any); ok {
			if typ, _ := evt["type"].(string); typ == "setup" {
				t.applySetup(sess, evt)
				continue
			}
		}

		utterance, ok := transcript.Extract(payload)
		if !ok {
			if m := t.deps.Metrics; m != nil {
				m.ExtractionMisses.Inc()
			}
			if err := t.say(conn, sess, t.deps.Machine.HandleMiss(sess)); err != nil {
				return
			}
			continue
		}

		t.logger.Debug("utterance",
			"session_id", sess.ID, "step", sess.Step.String(),
			"text", redact.Text(utterance))

		res := t.deps.Machine.Advance(sess, utterance)
		if res.Lead != nil {
			if m := t.deps.Metrics; m != nil {
				m.SessionEvents.WithLabelValues("confirmed").Inc()
			}
			if t.deps.Dispatcher != nil {
				t.deps.Dispatcher.Dispatch(*res.Lead)
			}
		}
		if err := t.say(conn, sess, res.Prompt); err != nil {
			return
		}
	}
}

// decodePayload tries JSON first; anything that does not parse is treated as a
// raw text utterance, the way older relay integrations send it.
func decodePayload(raw []byte) any {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw)
	}
	return payload
}

// applySetup captures the call metadata the relay announces once per
// connection. Setup frames never reach the extractor.
func (t *Transport) applySetup(sess *dialog.Session, evt map[string]any) {
	str := func(key string) string {
		s, _ := evt[key].(string)
		return s
	}
	sess.Call = leads.CallInfo{
		CallSID: str("callSid"),
		From:    str("from"),
		To:      str("to"),
	}
	t.logger.Info("call_setup",
		"session_id", sess.ID,
		"call_sid", sess.Call.CallSID,
		"from", redact.Phone(sess.Call.From),
	)
}

// say sends one prompt frame, or just logs it when speaking is disabled.
func (t *Transport) say(conn *websocket.Conn, sess *dialog.Session, text string) error {
	if m := t.deps.Metrics; m != nil {
		m.PromptsSent.WithLabelValues(sess.Step.String()).Inc()
	}
	if !t.deps.Speak {
		t.logger.Info("prompt_suppressed", "session_id", sess.ID, "prompt", text)
		return nil
	}
	frame := promptFrame{Type: "text", Token: text, Last: true, Interruptible: true}
	if err := conn.WriteJSON(frame); err != nil {
		t.logger.Warn("relay_send_failed",
			"session_id", sess.ID,
			"reason_code", string(errorsx.ReasonRelaySend),
			"error", err.Error())
		return errorsx.Wrap(err, errorsx.ReasonRelaySend)
	}
	return nil
}

// logReadEnd separates the expected hangup from protocol trouble. Either way
// the session ends and the connection closes cleanly.
func (t *Transport) logReadEnd(sess *dialog.Session, err error) {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, io.EOF) {
		t.logger.Debug("call_end", "session_id", sess.ID, "step", sess.Step.String())
		return
	}
	t.logger.Warn("relay_read_error",
		"session_id", sess.ID,
		"reason_code", string(errorsx.ReasonRelayRead),
		"error", err.Error())
}

// handleVoice answers the telephony provider's voice webhook with TwiML that
// connects the call to the relay WebSocket.
func (t *Transport) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if t.cfg.AuthToken != "" && !t.validateSignature(r) {
		t.logger.Warn("voice_webhook_invalid_signature",
			"reason_code", string(errorsx.ReasonRelayInvalidSignature))
		w.WriteHeader(http.StatusForbidden)
		return
	}
	wsURL := t.websocketURLForHost(r.Host)
	twiml := `<Response><Connect><ConversationRelay url="` + xmlEscape(wsURL) + `"/></Connect></Response>`
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(twiml))
}

func (t *Transport) validateSignature(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	validator := client.NewRequestValidator(t.cfg.AuthToken)
	return validator.ValidateBody(t.requestURL(r), body, signature)
}

func (t *Transport) requestURL(r *http.Request) string {
	if t.cfg.PublicURL != "" {
		return strings.TrimRight(normalizePublicURL(t.cfg.PublicURL, "https"), "/") + r.URL.RequestURI()
	}
	scheme := r.URL.Scheme
	if scheme == "" {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = "https"
		}
	}
	host := r.Host
	if host == "" {
		host = strings.TrimPrefix(t.cfg.ServerAddr, ":")
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	originHost := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	for _, allowed := range t.cfg.AllowedOrigins {
		a := strings.TrimRight(strings.TrimSpace(allowed), "/")
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			if strings.EqualFold(a, origin) {
				return true
			}
			continue
		}
		if strings.EqualFold(a, originHost) {
			return true
		}
	}
	return false
}

func (t *Transport) voiceWebhookURL() string {
	if t.cfg.PublicURL != "" {
		return normalizePublicURL(t.cfg.PublicURL, "https") + t.cfg.VoicePath
	}
	return "http://" + hostFromAddr(t.cfg.ServerAddr) + t.cfg.VoicePath
}

func (t *Transport) websocketURLForHost(host string) string {
	if t.cfg.PublicURL != "" {
		return normalizePublicURL(t.cfg.PublicURL, "wss") + t.cfg.WebsocketPath
	}
	if host == "" {
		host = hostFromAddr(t.cfg.ServerAddr)
	}
	return "wss://" + host + t.cfg.WebsocketPath
}

func hostFromAddr(addr string) string {
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// normalizePublicURL strips any scheme and trailing slash from the configured
// public URL, then applies the wanted scheme.
func normalizePublicURL(v, scheme string) string {
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	v = strings.TrimRight(v, "/")
	return scheme + "://" + v
}

func xmlEscape(in string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(in)
}
