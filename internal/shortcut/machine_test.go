package shortcut

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type callbackLog struct {
	events []string
}

func newLoggedMachine() (*Machine, *callbackLog) {
	log := &callbackLog{}
	m := NewMachine(
		func() { log.events = append(log.events, "start") },
		func() { log.events = append(log.events, "stop") },
	)
	return m, log
}

func TestMachineHoldCycle(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleHoldKeyDown()
	require.Equal(t, StateHold, m.State())
	m.HandleHoldKeyDown()
	m.HandleHoldKeyUp()
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, []string{"start", "stop"}, log.events)
}

func TestMachineToggleCycle(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleTogglePress()
	require.Equal(t, StateToggle, m.State())
	m.HandleTogglePress()
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, []string{"start", "stop"}, log.events)
}

func TestMachineStrayKeyUpIsIgnored(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleHoldKeyUp()
	require.Equal(t, StateIdle, m.State())
	require.Empty(t, log.events)
}

func TestMachineToggleDuringHoldFiresNothing(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleHoldKeyDown()
	m.HandleTogglePress()
	require.Equal(t, StateHold, m.State())
	require.Equal(t, []string{"start"}, log.events)
}

func TestMachineHoldDuringToggleFiresNothing(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleTogglePress()
	m.HandleHoldKeyDown()
	m.HandleHoldKeyUp()
	require.Equal(t, StateToggle, m.State())
	require.Equal(t, []string{"start"}, log.events)
}

func TestMachineSetIdleSkipsStop(t *testing.T) {
	m, log := newLoggedMachine()

	m.HandleTogglePress()
	m.SetIdle()
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, []string{"start"}, log.events)

	m.HandleHoldKeyDown()
	m.SetIdle()
	m.HandleHoldKeyUp()
	require.Equal(t, []string{"start", "start"}, log.events)
}

func TestMachineZeroValueWithoutCallbacks(t *testing.T) {
	var m Machine
	m.HandleTogglePress()
	require.Equal(t, StateToggle, m.State())
	m.HandleTogglePress()
	require.Equal(t, StateIdle, m.State())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "processing", StateProcessing.String())
	require.Equal(t, "unknown", State(42).String())
}

type machineOp int

const (
	opHoldDown machineOp = iota
	opHoldUp
	opToggle
	opSetIdle
)

func (op machineOp) String() string {
	return [...]string{"hold-down", "hold-up", "toggle", "set-idle"}[op]
}

func (op machineOp) apply(m *Machine) {
	switch op {
	case opHoldDown:
		m.HandleHoldKeyDown()
	case opHoldUp:
		m.HandleHoldKeyUp()
	case opToggle:
		m.HandleTogglePress()
	case opSetIdle:
		m.SetIdle()
	}
}

// forEachSequence calls fn with every sequence over ops of length 1..maxLen.
func forEachSequence(ops []machineOp, maxLen int, fn func([]machineOp)) {
	var walk func(prefix []machineOp)
	walk = func(prefix []machineOp) {
		if len(prefix) > 0 {
			fn(prefix)
		}
		if len(prefix) == maxLen {
			return
		}
		for _, op := range ops {
			walk(append(prefix[:len(prefix):len(prefix)], op))
		}
	}
	walk(nil)
}

func TestMachineStartsAndStopsAlternateForAllSequences(t *testing.T) {
	ops := []machineOp{opHoldDown, opHoldUp, opToggle, opSetIdle}

	forEachSequence(ops, 6, func(seq []machineOp) {
		open := false
		m := NewMachine(
			func() {
				require.False(t, open, "start fired twice without stop: %v", seq)
				open = true
			},
			func() {
				require.True(t, open, "stop fired without start: %v", seq)
				open = false
			},
		)

		for _, op := range seq {
			before := m.State()
			op.apply(m)
			after := m.State()

			require.Contains(t, []State{StateIdle, StateHold, StateToggle}, after, "%v", seq)
			if op == opSetIdle {
				// SetIdle abandons the session without a stop callback.
				open = false
			}
			require.Equal(t, after != StateIdle, open, "session flag out of sync after %v", seq)
			if op == opHoldUp && before == StateToggle {
				require.Equal(t, StateToggle, after, "hold-up ended a toggle session: %v", seq)
			}
			if op == opToggle && before == StateHold {
				require.Equal(t, StateHold, after, "toggle interrupted a hold session: %v", seq)
			}
		}
	})
}

func TestMachineCallbacksStrictlyAlternateWithoutSetIdle(t *testing.T) {
	ops := []machineOp{opHoldDown, opHoldUp, opToggle}

	forEachSequence(ops, 6, func(seq []machineOp) {
		m, log := newLoggedMachine()
		for _, op := range seq {
			op.apply(m)
		}
		for i, event := range log.events {
			want := "start"
			if i%2 == 1 {
				want = "stop"
			}
			require.Equal(t, want, event, "%v", seq)
		}
		require.Equal(t, len(log.events)%2 == 1, m.State() != StateIdle, "%v", seq)
	})
}
