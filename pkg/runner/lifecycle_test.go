package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDrainer struct {
	calls int32
	delay time.Duration
}

func (f *fakeDrainer) Drain() error {
	atomic.AddInt32(&f.calls, 1)
	time.Sleep(f.delay)
	return nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	d := &fakeDrainer{}
	var stopped atomic.Bool
	r := NewLifecycleRunner(d, Hooks{OnStop: func() { stopped.Store(true) }}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	for r.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := atomic.LoadInt32(&d.calls); got != 1 {
		t.Errorf("drain calls = %d, want 1", got)
	}
	if !stopped.Load() {
		t.Error("OnStop hook not invoked")
	}
	if r.State() != StateStopped {
		t.Errorf("state = %s, want stopped", r.State())
	}
}

func TestStopDrainsOnce(t *testing.T) {
	d := &fakeDrainer{}
	r := NewLifecycleRunner(d, Hooks{}, time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()
	for r.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	<-errCh
	if got := atomic.LoadInt32(&d.calls); got != 1 {
		t.Errorf("drain calls = %d, want 1", got)
	}
}

func TestDrainTimeout(t *testing.T) {
	d := &fakeDrainer{delay: 500 * time.Millisecond}
	r := NewLifecycleRunner(d, Hooks{}, 10*time.Millisecond)

	go func() { _ = r.Run(context.Background()) }()
	for r.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	if err := r.Stop(); !errors.Is(err, errDrainTimeout) {
		t.Fatalf("Stop = %v, want drain timeout", err)
	}
}

func TestRunTwiceFails(t *testing.T) {
	r := NewLifecycleRunner(nil, Hooks{}, time.Second)
	go func() { _ = r.Run(context.Background()) }()
	for r.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("second Run should fail")
	}
	_ = r.Stop()
}
