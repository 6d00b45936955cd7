// Package checkin drives the camera check-in flow: name entry, camera
// acquisition, scanning, submission and the outcome screens.
package checkin

import (
	"strings"

	"github.com/ttatard/attendance-frontend/internal/camera"
	"github.com/ttatard/attendance-frontend/internal/models"
)

// State is a step of the check-in flow.
type State string

const (
	Idle             State = "idle"
	NameEntry        State = "name_entry"
	AwaitingCamera   State = "awaiting_camera"
	Scanning         State = "scanning"
	Submitting       State = "submitting"
	Success          State = "success"
	RecoverableError State = "recoverable_error"
	CheckInAnother   State = "check_in_another"
)

// States lists every state.
var States = []State{Idle, NameEntry, AwaitingCamera, Scanning, Submitting, Success, RecoverableError, CheckInAnother}

// EventKind names an input to the machine.
type EventKind string

const (
	EventStart                 EventKind = "start"
	EventSubmitName            EventKind = "submit_name"
	EventCancelNameEntry       EventKind = "cancel_name_entry"
	EventCameraReady           EventKind = "camera_ready"
	EventCameraError           EventKind = "camera_error"
	EventDecodeResult          EventKind = "decode_result"
	EventSubmitResult          EventKind = "submit_result"
	EventCooldownElapsed       EventKind = "cooldown_elapsed"
	EventSuccessDisplayElapsed EventKind = "success_display_elapsed"
	EventCheckInAnother        EventKind = "check_in_another"
	EventCancel                EventKind = "cancel"
)

// EventKinds lists every event the machine models.
var EventKinds = []EventKind{
	EventStart, EventSubmitName, EventCancelNameEntry, EventCameraReady, EventCameraError,
	EventDecodeResult, EventSubmitResult, EventCooldownElapsed, EventSuccessDisplayElapsed,
	EventCheckInAnother, EventCancel,
}

// Event is one input. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Name    string
	Session *camera.Session
	Err     *camera.Error
	Payload string
	Outcome models.Outcome
	Yes     bool
}

// rule resolves the next state; ok=false means the event is ignored.
type rule func(Event) (next State, ok bool)

func goTo(s State) rule {
	return func(Event) (State, bool) { return s, true }
}

func ignore(Event) (State, bool) { return "", false }

func nameSubmitted(ev Event) (State, bool) {
	if strings.TrimSpace(ev.Name) == "" {
		return "", false
	}
	return AwaitingCamera, true
}

func submitResult(ev Event) (State, bool) {
	if ev.Outcome.IsSuccess() {
		return Success, true
	}
	if ev.Outcome.Recoverable() {
		return RecoverableError, true
	}
	return "", false
}

func answered(ev Event) (State, bool) {
	if ev.Yes {
		return NameEntry, true
	}
	return Idle, true
}

// transitions holds an explicit rule for every (state, event) pair.
var transitions = map[State]map[EventKind]rule{
	Idle: {
		EventStart:                 goTo(NameEntry),
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           ignore,
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	NameEntry: {
		EventStart:                 ignore,
		EventSubmitName:            nameSubmitted,
		EventCancelNameEntry:       goTo(Idle),
		EventCameraReady:           ignore,
		EventCameraError:           ignore,
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	AwaitingCamera: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           goTo(Scanning),
		EventCameraError:           goTo(Idle),
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	Scanning: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           goTo(Idle),
		EventDecodeResult:          goTo(Submitting),
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	Submitting: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           ignore,
		EventDecodeResult:          ignore,
		EventSubmitResult:          submitResult,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	Success: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           ignore,
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: goTo(CheckInAnother),
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	RecoverableError: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           goTo(Idle),
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       goTo(Scanning),
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        ignore,
		EventCancel:                goTo(Idle),
	},
	CheckInAnother: {
		EventStart:                 ignore,
		EventSubmitName:            ignore,
		EventCancelNameEntry:       ignore,
		EventCameraReady:           ignore,
		EventCameraError:           ignore,
		EventDecodeResult:          ignore,
		EventSubmitResult:          ignore,
		EventCooldownElapsed:       ignore,
		EventSuccessDisplayElapsed: ignore,
		EventCheckInAnother:        answered,
		EventCancel:                goTo(Idle),
	},
}

// Next returns the state reached from s on ev, or ok=false if ev is ignored in s.
func Next(s State, ev Event) (State, bool) {
	r, found := transitions[s][ev.Kind]
	if !found {
		return "", false
	}
	return r(ev)
}
