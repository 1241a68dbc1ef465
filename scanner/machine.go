// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/ballot-tally/classify"
)

var ErrInvalidTransition = errors.New("invalid ballot state transition")

// BallotState is the application's view of the sheet in the scanner.
type BallotState string

const (
	Idle         BallotState = "idle"
	Scanning     BallotState = "scanning"
	NeedsReview  BallotState = "needs_review"
	Cast         BallotState = "cast"
	Rejected     BallotState = "rejected"
	ScannerError BallotState = "scanner_error"
)

// Event drives the machine. The set is closed: only the types below implement it.
type Event interface {
	eventName() string
}

// StatusPolled carries the latest hardware status.
type StatusPolled struct{ Status Status }

// ScanCompleted carries the classification of the scanned sheet.
type ScanCompleted struct{ Result classify.Result }

// ScanFailed means the scan request itself failed.
type ScanFailed struct{ Err error }

// AcceptRequested is the operator accepting a sheet after review.
type AcceptRequested struct{}

type AcceptSucceeded struct{}

type AcceptFailed struct{ Err error }

// ReturnRequested asks the scanner to hand the sheet back to the voter.
type ReturnRequested struct{}

// DismissTimeout fires when a cast or error screen has been shown long enough.
type DismissTimeout struct{}

func (StatusPolled) eventName() string    { return "status_polled" }
func (ScanCompleted) eventName() string   { return "scan_completed" }
func (ScanFailed) eventName() string      { return "scan_failed" }
func (AcceptRequested) eventName() string { return "accept_requested" }
func (AcceptSucceeded) eventName() string { return "accept_succeeded" }
func (AcceptFailed) eventName() string    { return "accept_failed" }
func (ReturnRequested) eventName() string { return "return_requested" }
func (DismissTimeout) eventName() string  { return "dismiss_timeout" }

// TransitionError reports an event that is not valid in the current state.
type TransitionError struct {
	State BallotState
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s in state %s", ErrInvalidTransition, e.Event, e.State)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Dismiss timers
const (
	DismissNone = iota
	DismissCast
	DismissError
)

// Effects are the side effects a transition asks the controller to perform.
type Effects struct {
	BeginScan      bool
	Accept         bool
	Return         bool
	CountBallot    bool
	CancelDismiss  bool
	Dismiss        int
	DisablePolling bool
	EnablePolling  bool
}

// Transition is the outcome of one event. Ignored is set for hardware
// statuses the machine does not act on, so the caller can log them.
type Transition struct {
	From    BallotState
	To      BallotState
	Event   string
	Effects Effects
	Ignored bool
	Result  *classify.Result
}

type stateFunc func(m *Machine, ev Event) (Transition, error)

// Machine is the ballot state machine. Each state has its own transition
// function; an event a state does not handle is a *TransitionError. Machine
// is not safe for concurrent use.
type Machine struct {
	state         BallotState
	acceptPending bool
	states        map[BallotState]stateFunc
}

func NewMachine() *Machine {
	return &Machine{
		state: Idle,
		states: map[BallotState]stateFunc{
			Idle:         (*Machine).fromWaiting,
			Cast:         (*Machine).fromWaiting,
			ScannerError: (*Machine).fromWaiting,
			Scanning:     (*Machine).fromScanning,
			NeedsReview:  (*Machine).fromNeedsReview,
			Rejected:     (*Machine).fromRejected,
		},
	}
}

func (m *Machine) State() BallotState {
	return m.state
}

// Apply runs ev against the current state and moves to the resulting state.
// On error the state is unchanged.
func (m *Machine) Apply(ev Event) (Transition, error) {
	tr, err := m.states[m.state](m, ev)
	if err != nil {
		return Transition{}, err
	}
	tr.From = m.state
	tr.Event = ev.eventName()
	m.state = tr.To
	return tr, nil
}

func (m *Machine) stay() Transition {
	return Transition{To: m.state}
}

func (m *Machine) invalid(ev Event) error {
	return &TransitionError{State: m.state, Event: ev.eventName()}
}

// ignoreStatus covers statuses that never move the machine.
func (m *Machine) ignoreStatus(s Status) Transition {
	tr := m.stay()
	tr.Ignored = !s.Known()
	return tr
}

// fromWaiting handles idle, cast and scanner_error: a sheet at the
// scanner starts a new scan, and the cast and error screens time out to idle.
func (m *Machine) fromWaiting(ev Event) (Transition, error) {
	switch ev := ev.(type) {
	case StatusPolled:
		if ev.Status != StatusReadyToScan {
			return m.ignoreStatus(ev.Status), nil
		}
		return Transition{
			To: Scanning,
			Effects: Effects{
				BeginScan:      true,
				CancelDismiss:  true,
				DisablePolling: true,
			},
		}, nil
	case DismissTimeout:
		if m.state == Idle {
			return m.stay(), nil
		}
		return Transition{To: Idle}, nil
	}
	return Transition{}, m.invalid(ev)
}

func (m *Machine) fromScanning(ev Event) (Transition, error) {
	switch ev := ev.(type) {
	case StatusPolled:
		return m.ignoreStatus(ev.Status), nil
	case ScanCompleted:
		result := ev.Result
		tr := Transition{Result: &result, Effects: Effects{EnablePolling: true}}
		switch result.Type {
		case classify.Accepted:
			tr.To = Cast
			tr.Effects.CountBallot = true
			tr.Effects.Dismiss = DismissCast
		case classify.NeedsReview:
			tr.To = NeedsReview
		default:
			tr.To = Rejected
		}
		return tr, nil
	case ScanFailed:
		return Transition{
			To:      ScannerError,
			Effects: Effects{EnablePolling: true, Dismiss: DismissError},
		}, nil
	}
	return Transition{}, m.invalid(ev)
}

func (m *Machine) fromNeedsReview(ev Event) (Transition, error) {
	switch ev := ev.(type) {
	case StatusPolled:
		if ev.Status == StatusWaitingForPaper && !m.acceptPending {
			return Transition{To: Idle}, nil
		}
		return m.ignoreStatus(ev.Status), nil
	case AcceptRequested:
		if m.acceptPending {
			return Transition{}, m.invalid(ev)
		}
		m.acceptPending = true
		tr := m.stay()
		tr.Effects = Effects{Accept: true, DisablePolling: true}
		return tr, nil
	case AcceptSucceeded:
		if !m.acceptPending {
			return Transition{}, m.invalid(ev)
		}
		m.acceptPending = false
		return Transition{
			To: Cast,
			Effects: Effects{
				CountBallot:   true,
				Dismiss:       DismissCast,
				EnablePolling: true,
			},
		}, nil
	case AcceptFailed:
		if !m.acceptPending {
			return Transition{}, m.invalid(ev)
		}
		m.acceptPending = false
		return Transition{To: Rejected, Effects: Effects{EnablePolling: true}}, nil
	case ReturnRequested:
		if m.acceptPending {
			return Transition{}, m.invalid(ev)
		}
		tr := m.stay()
		tr.Effects.Return = true
		return tr, nil
	}
	return Transition{}, m.invalid(ev)
}

func (m *Machine) fromRejected(ev Event) (Transition, error) {
	switch ev := ev.(type) {
	case StatusPolled:
		if ev.Status == StatusWaitingForPaper {
			return Transition{To: Idle}, nil
		}
		return m.ignoreStatus(ev.Status), nil
	case ReturnRequested:
		tr := m.stay()
		tr.Effects.Return = true
		return tr, nil
	}
	return Transition{}, m.invalid(ev)
}
