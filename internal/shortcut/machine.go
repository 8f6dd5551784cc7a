// Package shortcut turns global key events and IPC commands into dictation
// start, stop, and cancel signals.
package shortcut

// State is the shortcut-level activation state.
type State int

const (
	StateIdle State = iota
	StateHold
	StateToggle
	// StateProcessing is owned by Manager; Machine never enters it.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHold:
		return "hold"
	case StateToggle:
		return "toggle"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Machine arbitrates hold-to-talk and toggle activation. The zero value is
// idle. Machine is not safe for concurrent use; Manager serializes calls.
type Machine struct {
	OnStart func()
	OnStop  func()

	state State
}

// NewMachine returns an idle machine wired to the given callbacks.
func NewMachine(onStart, onStop func()) *Machine {
	return &Machine{OnStart: onStart, OnStop: onStop}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// HandleHoldKeyDown starts a hold session from idle.
func (m *Machine) HandleHoldKeyDown() {
	if m.state != StateIdle {
		return
	}
	m.state = StateHold
	m.fire(m.OnStart)
}

// HandleHoldKeyUp ends a hold session. A key-up without a matching
// key-down is ignored.
func (m *Machine) HandleHoldKeyUp() {
	if m.state != StateHold {
		return
	}
	m.state = StateIdle
	m.fire(m.OnStop)
}

// HandleTogglePress starts or ends a toggle session. It is ignored while a
// hold session is active.
func (m *Machine) HandleTogglePress() {
	switch m.state {
	case StateIdle:
		m.state = StateToggle
		m.fire(m.OnStart)
	case StateToggle:
		m.state = StateIdle
		m.fire(m.OnStop)
	}
}

// SetIdle forces idle without firing OnStop.
func (m *Machine) SetIdle() {
	m.state = StateIdle
}

func (m *Machine) fire(fn func()) {
	if fn != nil {
		fn()
	}
}
