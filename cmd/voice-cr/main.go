package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/configutil"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/dialog"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/leads"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/logging"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/metrics"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/redact"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/runner"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/transports"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/transports/relay"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/voicecr"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional, env vars apply either way)")
	dialTo := flag.String("dial_to", "", "destination number for outbound call")
	dialFrom := flag.String("dial_from", "", "caller ID for outbound call")
	dialURL := flag.String("dial_url", "", "override voice URL for outbound call")
	flag.Parse()

	cfg, err := voicecr.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	m := metrics.New(cfg.Metrics.Namespace)

	dispatcher := leads.NewDispatcher(
		cfg.Intake.URL,
		logging.NewComponentLogger(logger, "leads"),
		leads.WithObserver(func(status string) {
			m.LeadDispatches.WithLabelValues(status).Inc()
		}),
	)
	if !dispatcher.Enabled() {
		logger.Warn("lead_dispatch_disabled", "reason", "intake.url is empty")
	}

	machine := dialog.NewMachine(dialog.Options{
		FallbackPhone: cfg.Speech.FallbackPhone,
	})

	var relayCfg relay.Config
	if err := configutil.DecodeSettings(cfg.Transport.Settings, &relayCfg); err != nil {
		slog.Error("transport_settings_invalid", "error", err)
		os.Exit(1)
	}
	transport := relay.New(relayCfg, relay.Deps{
		Machine:    machine,
		Dispatcher: dispatcher,
		Metrics:    m,
		Logger:     logging.NewComponentLogger(logger, "relay"),
		Speak:      cfg.Speech.Speak,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := transport.Start(ctx); err != nil {
		logger.Error("transport_start_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("service_ready",
		"environment", cfg.Environment,
		"speak", cfg.Speech.Speak,
		"ready", transport.ReadyFields())

	if *dialTo != "" && *dialFrom != "" {
		var dialer transports.OutboundDialer = relay.NewDialer(relayCfg)
		callSID, err := dialer.Dial(ctx, *dialTo, *dialFrom, *dialURL)
		if err != nil {
			logger.Error("outbound_dial_failed", "error", err)
		} else {
			logger.Info("outbound_dial_started", "call_sid", callSID)
		}
	}

	run := runner.NewLifecycleRunner(transport, runner.Hooks{
		OnStop: func() { logger.Info("service_stopped") },
	}, 15*time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown_signal_received")
		cancel()
	}()

	if err := run.Run(ctx); err != nil {
		logger.Error("shutdown_error", "error", err)
		os.Exit(1)
	}
}
