// Package fsm defines the dictation cycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateCorrecting   State = "correcting"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventTranscribed Event = "transcribed"
	EventCorrect     Event = "correct"
	EventCorrected   Event = "corrected"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

// transitions lists the legal edges. EventFail is accepted from every state.
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventStart: StateRecording,
	},
	StateRecording: {
		EventStop:   StateTranscribing,
		EventCancel: StateIdle,
	},
	StateTranscribing: {
		EventTranscribed: StateIdle,
		EventCorrect:     StateCorrecting,
		EventCancel:      StateIdle,
	},
	StateCorrecting: {
		EventCorrected: StateIdle,
		EventCancel:    StateIdle,
	},
	StateError: {
		EventReset: StateIdle,
	},
}

// Transition returns the next cycle state for event, or an error when the
// event is not valid in current.
func Transition(current State, event Event) (State, error) {
	edges, known := transitions[current]
	if !known {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	next, ok := edges[event]
	if !ok {
		return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
	}
	return next, nil
}

// Active reports whether a cycle is in flight.
func Active(state State) bool {
	return state != StateIdle && state != StateError
}
