// Package health tracks per-dependency readiness for two-phase startup:
// dependencies are initialized once at boot, each initialization outcome is
// captured as a typed state, and the readiness endpoint reports the whole
// set. Endpoints that need a failed dependency refuse to serve until it is
// marked ready.
package health

import (
	"sync"
	"time"
)

// ComponentState is the typed initialization outcome of one dependency.
type ComponentState int32

const (
	// StatePending means initialization has not finished yet.
	StatePending ComponentState = iota
	// StateReady means the dependency initialized and is usable.
	StateReady
	// StateFailed means initialization failed; dependent endpoints refuse
	// to serve.
	StateFailed
)

// String returns the state label used in readiness responses.
func (s ComponentState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Component names tracked by the readiness state.
const (
	ComponentStore = "store"
	ComponentIndex = "index"
	ComponentLLM   = "llm"
)

type componentStatus struct {
	state    ComponentState
	err      string
	required bool
}

// Readiness holds the typed state of every tracked dependency.
// Safe for concurrent use.
type Readiness struct {
	mu         sync.RWMutex
	components map[string]*componentStatus
	startTime  time.Time
}

// ComponentReport is one dependency's state in a readiness response.
type ComponentReport struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Report is the full readiness response body.
type Report struct {
	Ready          bool                       `json:"ready"`
	Components     map[string]ComponentReport `json:"components"`
	ElapsedSeconds int                        `json:"elapsed_seconds"`
}

// NewReadiness creates a readiness tracker. The store and index are required
// for serving; the LLM is optional and only degrades answer quality.
func NewReadiness() *Readiness {
	return &Readiness{
		components: map[string]*componentStatus{
			ComponentStore: {required: true},
			ComponentIndex: {required: true},
			ComponentLLM:   {},
		},
		startTime: time.Now(),
	}
}

// MarkReady records a successful initialization for the component.
func (r *Readiness) MarkReady(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.components[name]; ok {
		c.state = StateReady
		c.err = ""
	}
}

// MarkFailed records a failed initialization for the component.
func (r *Readiness) MarkFailed(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.components[name]; ok {
		c.state = StateFailed
		if err != nil {
			c.err = err.Error()
		}
	}
}

// State returns the current state of one component.
func (r *Readiness) State(name string) ComponentState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.components[name]; ok {
		return c.state
	}
	return StatePending
}

// Ready reports whether every required component is ready.
func (r *Readiness) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.components {
		if c.required && c.state != StateReady {
			return false
		}
	}
	return true
}

// Status builds the readiness response body.
func (r *Readiness) Status() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := Report{
		Ready:          true,
		Components:     make(map[string]ComponentReport, len(r.components)),
		ElapsedSeconds: int(time.Since(r.startTime).Seconds()),
	}
	for name, c := range r.components {
		if c.required && c.state != StateReady {
			report.Ready = false
		}
		report.Components[name] = ComponentReport{
			State: c.state.String(),
			Error: c.err,
		}
	}
	return report
}
