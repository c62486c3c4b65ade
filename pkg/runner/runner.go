// Package runner coordinates service startup, draining and shutdown.
package runner

import (
	"bytes"
	"os"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Hooks run at the edges of the lifecycle.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer lets the transport finish in-flight calls before shutdown.
type Drainer interface {
	Drain() error
}

const ServiceVersion = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"VOICE-CR\" \"\" 0 }}\nVersion: " + ServiceVersion + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
