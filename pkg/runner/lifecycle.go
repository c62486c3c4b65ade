package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// LifecycleRunner walks the service through new -> starting -> running ->
// draining -> stopped and bounds how long draining may take.
type LifecycleRunner struct {
	mu      sync.Mutex
	state   State
	hooks   Hooks
	drainer Drainer
	timeout time.Duration
	logger  *slog.Logger

	stopCh    chan struct{}
	stopOnce  sync.Once
	drainOnce sync.Once
	stopErr   error
}

func NewLifecycleRunner(drainer Drainer, hooks Hooks, timeout time.Duration) *LifecycleRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LifecycleRunner{
		state:   StateNew,
		hooks:   hooks,
		drainer: drainer,
		timeout: timeout,
		logger:  slog.Default(),
		stopCh:  make(chan struct{}),
	}
}

// Run blocks until ctx is canceled or Stop is called, then drains and stops.
// A runner runs once; calling Run on anything but a fresh runner errors.
func (r *LifecycleRunner) Run(ctx context.Context) error {
	if !r.transition(StateNew, StateStarting) {
		return errors.New("runner already used")
	}
	PrintBanner()
	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}
	r.transition(StateStarting, StateRunning)
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
	case <-r.stopCh:
	}
	return r.stop()
}

// Stop unblocks Run and performs the drain. Safe to call more than once.
func (r *LifecycleRunner) Stop() error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	return r.stop()
}

func (r *LifecycleRunner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

var errDrainTimeout = errors.New("drain timed out")

// stop drains at most once; concurrent callers block until the first finishes.
func (r *LifecycleRunner) stop() error {
	r.drainOnce.Do(func() {
		r.setState(StateDraining)
		r.logger.Info("lifecycle_state", "state", StateDraining.String())

		if r.drainer != nil {
			begun := time.Now()
			done := make(chan struct{})
			go func() {
				_ = r.drainer.Drain()
				close(done)
			}()
			select {
			case <-done:
				r.logger.Info("drain_complete", "elapsed", time.Since(begun).String())
			case <-time.After(r.timeout):
				r.logger.Warn("drain_timeout", "timeout", r.timeout.String())
				r.stopErr = errDrainTimeout
			}
		}
		if r.hooks.OnStop != nil {
			r.hooks.OnStop()
		}
		r.setState(StateStopped)
		r.logger.Info("lifecycle_state", "state", StateStopped.String())
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopErr
}

func (r *LifecycleRunner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *LifecycleRunner) transition(from, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return false
	}
	r.state = to
	return true
}
