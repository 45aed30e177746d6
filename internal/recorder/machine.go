package recorder

import (
	"fmt"

	"github.com/clickreel/clickreel/internal/reel"
)

// State is the recorder control state.
type State string

const (
	// StateIdle is the initial state and the state between sessions.
	StateIdle State = "idle"

	// StateRecording has an active reel accepting explicit frame adds.
	StateRecording State = "recording"

	// StateArmed captures one frame on the next qualifying interaction,
	// then reverts to StateRecording. One-shot: arming never survives a
	// capture.
	StateArmed State = "armed"
)

// Event is a recorder control stimulus.
type Event string

const (
	EventStart    Event = "start"
	EventArm      Event = "arm"
	EventDisarm   Event = "disarm"
	EventClick    Event = "click" // a qualifying interaction while armed
	EventAddFrame Event = "addFrame"
	EventStop     Event = "stop"
)

// Effect names the side effect the caller must perform after a
// successful transition. The transition function itself is pure.
type Effect int

const (
	// EffectNone requires no side effect.
	EffectNone Effect = iota

	// EffectCreateReel creates a new active reel.
	EffectCreateReel

	// EffectCaptureFrame captures exactly one frame.
	EffectCaptureFrame

	// EffectFinalizeReel finalizes the active reel.
	EffectFinalizeReel
)

// Transition is the pure state transition function.
//
// Transition table:
//
//	idle      + start    -> recording  (create reel)
//	recording + arm      -> armed
//	armed     + disarm   -> recording
//	armed     + click    -> recording  (capture one frame)
//	recording + addFrame -> recording  (capture one frame)
//	recording + stop     -> idle       (finalize reel)
//	armed     + stop     -> idle       (finalize reel)
//
// Every other pairing is rejected with a typed error and the state is
// unchanged: stop while idle is NO_ACTIVE_RECORDING, anything else is
// INVALID_STATE_TRANSITION.
func Transition(s State, ev Event) (State, Effect, error) {
	switch s {
	case StateIdle:
		switch ev {
		case EventStart:
			return StateRecording, EffectCreateReel, nil
		case EventStop:
			return s, EffectNone, reel.NewError(reel.ErrCodeNoActiveRecording, "stop requested with no active recording")
		}
	case StateRecording:
		switch ev {
		case EventArm:
			return StateArmed, EffectNone, nil
		case EventAddFrame:
			return StateRecording, EffectCaptureFrame, nil
		case EventStop:
			return StateIdle, EffectFinalizeReel, nil
		}
	case StateArmed:
		switch ev {
		case EventDisarm:
			return StateRecording, EffectNone, nil
		case EventClick:
			return StateRecording, EffectCaptureFrame, nil
		case EventStop:
			return StateIdle, EffectFinalizeReel, nil
		}
	}
	return s, EffectNone, reel.NewError(reel.ErrCodeInvalidStateTransition,
		fmt.Sprintf("event %q is not valid in state %q", ev, s))
}
