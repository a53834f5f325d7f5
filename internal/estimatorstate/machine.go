// Package estimatorstate implements the Idle → Configured → Ready →
// Running → (Succeeded | Failed) lifecycle of the public estimators, per
// spec §4.5. nlls.Estimator and lateration.Estimator embed it rather than
// reimplementing their own locking; receiver.RangingEstimator gets it
// through its inner lateration estimator. robust.Driver and
// receiver.FingerprintMatcher do not use it.
package estimatorstate

import (
	"sync"

	"indoor-locator/locatorerr"
)

type State int

const (
	Idle State = iota
	Configured
	Ready
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Configured:
		return "Configured"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Machine is embedded by value in each estimator struct.
type Machine struct {
	mu    sync.Mutex
	state State
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) IsLocked() bool {
	return m.State() == Running
}

// MarkConfigured transitions out of Idle whenever a setter mutates state;
// callers ensure Ready is re-validated with IsReady before Estimate.
func (m *Machine) MarkConfigured() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Running {
		return
	}
	if m.state == Idle {
		m.state = Configured
	}
}

// MarkReady transitions Configured -> Ready once preconditions hold.
func (m *Machine) MarkReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running {
		m.state = Ready
	}
}

// GuardMutation rejects a setter call while Running.
func (m *Machine) GuardMutation(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Running {
		return locatorerr.Newf(locatorerr.Locked, op, "cannot mutate estimator while Estimate is running")
	}
	if m.state == Succeeded || m.state == Failed {
		m.state = Configured
	}
	return nil
}

// BeginRun transitions Ready -> Running, or fails with NotReady/Locked.
func (m *Machine) BeginRun(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Running:
		return locatorerr.Newf(locatorerr.Locked, op, "estimator is already running")
	case Ready, Succeeded, Failed:
		m.state = Running
		return nil
	default:
		return locatorerr.Newf(locatorerr.NotReady, op, "estimator is not ready (state=%s)", m.state)
	}
}

// Finish transitions Running -> Succeeded or Failed.
func (m *Machine) Finish(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.state = Succeeded
	} else {
		m.state = Failed
	}
}
