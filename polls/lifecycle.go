// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/election"
)

// State is where the polls are in the election day.
type State string

const (
	ClosedInitial State = "polls_closed_initial"
	Open          State = "polls_open"
	Paused        State = "polls_paused"
	ClosedFinal   State = "polls_closed_final"
)

// Actions
const (
	ActionOpen  = "open"
	ActionPause = "pause"
	ActionClose = "close"
	ActionReset = "reset"
)

// Transition names recorded on each snapshot
const (
	TransitionOpenPolls    = "open_polls"
	TransitionPauseVoting  = "pause_voting"
	TransitionResumeVoting = "resume_voting"
	TransitionClosePolls   = "close_polls"
	TransitionResetPolls   = "reset_polls"
)

var (
	ErrInvalidTransition    = errors.New("invalid polls transition")
	ErrConfirmationRequired = errors.New("precinct change must be confirmed before opening polls")
)

// TransitionError reports an action that is not valid in the current state.
type TransitionError struct {
	From   State
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: cannot %s polls while %s", ErrInvalidTransition, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ScannerGate is told when ballots may be scanned.
type ScannerGate interface {
	SetPollsOpen(open bool)
	ResetBallotCount()
}

// StateStore persists the lifecycle across restarts.
type StateStore interface {
	Save(ctx context.Context, st db.PollsState) error
	Load(ctx context.Context, machineID string) (db.PollsState, error)
}

type step struct {
	to         State
	transition string
}

type stateFunc func(action string) (step, bool)

var states = map[State]stateFunc{
	ClosedInitial: func(action string) (step, bool) {
		if action == ActionOpen {
			return step{Open, TransitionOpenPolls}, true
		}
		return step{}, false
	},
	Open: func(action string) (step, bool) {
		switch action {
		case ActionPause:
			return step{Paused, TransitionPauseVoting}, true
		case ActionClose:
			return step{ClosedFinal, TransitionClosePolls}, true
		}
		return step{}, false
	},
	Paused: func(action string) (step, bool) {
		switch action {
		case ActionOpen:
			return step{Open, TransitionResumeVoting}, true
		case ActionClose:
			return step{ClosedFinal, TransitionClosePolls}, true
		}
		return step{}, false
	},
	ClosedFinal: func(string) (step, bool) {
		return step{}, false
	},
}

// Status is a read of the lifecycle.
type Status struct {
	State             State                      `json:"state"`
	PrecinctSelection election.PrecinctSelection `json:"precinctSelection"`
	NeedsConfirmation bool                       `json:"needsConfirmation"`
	Transitioning     bool                       `json:"transitioning"`
}

// Lifecycle owns the polls state. Every transition runs the tabulator first;
// if that fails the state does not change.
//
// op serializes transitions and is held across tabulation. mu guards the
// fields below it and is never held across I/O other than the state save,
// so Status stays responsive while a transition runs.
type Lifecycle struct {
	election  *election.Election
	tabulator *Tabulator
	machineID string
	logger    *zap.Logger

	gate  ScannerGate
	store StateStore

	op sync.Mutex

	mu                sync.Mutex
	state             State
	selection         election.PrecinctSelection
	needsConfirmation bool
	transitioning     bool
}

// LifecycleOption configures optional collaborators.
type LifecycleOption func(*Lifecycle)

func WithScannerGate(g ScannerGate) LifecycleOption {
	return func(l *Lifecycle) { l.gate = g }
}

func WithStateStore(s StateStore) LifecycleOption {
	return func(l *Lifecycle) { l.store = s }
}

func NewLifecycle(e *election.Election, tab *Tabulator, machineID string, sel election.PrecinctSelection, logger *zap.Logger, opts ...LifecycleOption) (*Lifecycle, error) {
	if err := e.ValidateSelection(sel); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Lifecycle{
		election:  e,
		tabulator: tab,
		machineID: machineID,
		logger:    logger.Named("polls"),
		state:     ClosedInitial,
		selection: sel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Restore loads the persisted state, if any. A stored selection that no
// longer matches the election is discarded.
func (l *Lifecycle) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	l.op.Lock()
	defer l.op.Unlock()
	st, err := l.store.Load(ctx, l.machineID)
	if errors.Is(err, db.ErrNoPollsState) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, ok := states[State(st.State)]; !ok {
		return fmt.Errorf("stored polls state %q is not valid", st.State)
	}
	var sel election.PrecinctSelection
	if err := json.Unmarshal([]byte(st.PrecinctSelection), &sel); err != nil {
		return fmt.Errorf("failed to parse stored precinct selection: %w", err)
	}
	if err := l.election.ValidateSelection(sel); err != nil {
		l.logger.Warn("discarding stored polls state", zap.Error(err))
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = State(st.State)
	l.selection = sel
	l.needsConfirmation = st.NeedsConfirmation
	l.syncGateLocked()
	l.logger.Info("polls state restored", zap.String("state", string(l.state)))
	return nil
}

func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:             l.state,
		PrecinctSelection: l.selection,
		NeedsConfirmation: l.needsConfirmation,
		Transitioning:     l.transitioning,
	}
}

// Open opens the polls from closed_initial, or resumes voting from paused.
func (l *Lifecycle) Open(ctx context.Context) (*Snapshot, error) {
	return l.apply(ctx, ActionOpen)
}

func (l *Lifecycle) Pause(ctx context.Context) (*Snapshot, error) {
	return l.apply(ctx, ActionPause)
}

// Close closes the polls for good, from open or paused.
func (l *Lifecycle) Close(ctx context.Context) (*Snapshot, error) {
	return l.apply(ctx, ActionClose)
}

func (l *Lifecycle) apply(ctx context.Context, action string) (*Snapshot, error) {
	l.op.Lock()
	defer l.op.Unlock()

	l.mu.Lock()
	from, sel := l.state, l.selection
	next, ok := states[from](action)
	if !ok {
		l.mu.Unlock()
		return nil, &TransitionError{From: from, Action: action}
	}
	if action == ActionOpen && l.needsConfirmation {
		l.mu.Unlock()
		return nil, ErrConfirmationRequired
	}
	l.transitioning = true
	l.mu.Unlock()

	snap, err := l.tabulate(ctx, next.transition, sel)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitioning = false
	if err != nil {
		return nil, fmt.Errorf("failed to %s polls: %w", action, err)
	}
	l.state = next.to
	l.saveLocked(ctx)
	l.syncGateLocked()
	l.logger.Info("polls state changed",
		zap.String("from", string(from)),
		zap.String("to", string(l.state)),
		zap.String("transition", next.transition))
	return snap, nil
}

func (l *Lifecycle) tabulate(ctx context.Context, transition string, sel election.PrecinctSelection) (*Snapshot, error) {
	snap, err := l.tabulator.Run(ctx, transition, sel)
	if err != nil {
		l.logger.Error("polls transition aborted",
			zap.String("transition", transition), zap.Error(err))
		return nil, err
	}
	return snap, nil
}

// SetPrecinctSelection changes the precincts this machine accepts. Before
// the polls first open the change simply applies. From open or paused, the
// ballots counted so far are tabulated and stored under the old selection,
// then the polls reset to closed_initial and opening again needs
// ConfirmPrecinctChange. Closed_final is terminal and rejects any change.
func (l *Lifecycle) SetPrecinctSelection(ctx context.Context, sel election.PrecinctSelection) error {
	if err := l.election.ValidateSelection(sel); err != nil {
		return err
	}

	l.op.Lock()
	defer l.op.Unlock()

	l.mu.Lock()
	from, old := l.state, l.selection
	if sel == old {
		l.mu.Unlock()
		return nil
	}
	if from == ClosedFinal {
		l.mu.Unlock()
		return &TransitionError{From: from, Action: ActionReset}
	}
	if from == ClosedInitial {
		defer l.mu.Unlock()
		l.selection = sel
		l.saveLocked(ctx)
		l.syncGateLocked()
		return nil
	}
	l.transitioning = true
	l.mu.Unlock()

	snap, err := l.tabulate(ctx, TransitionResetPolls, old)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitioning = false
	if err != nil {
		return fmt.Errorf("failed to %s polls: %w", ActionReset, err)
	}
	l.selection = sel
	l.state = ClosedInitial
	l.needsConfirmation = true
	if l.gate != nil {
		l.gate.ResetBallotCount()
	}
	l.saveLocked(ctx)
	l.syncGateLocked()
	l.logger.Warn("precinct changed, polls reset",
		zap.String("from_state", string(from)),
		zap.String("precincts", sel.String()),
		zap.Int("ballots_tallied", snap.BallotCount))
	return nil
}

// ConfirmPrecinctChange acknowledges a precinct change so polls can open.
func (l *Lifecycle) ConfirmPrecinctChange(ctx context.Context) {
	l.op.Lock()
	defer l.op.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.needsConfirmation {
		return
	}
	l.needsConfirmation = false
	l.saveLocked(ctx)
}

func (l *Lifecycle) syncGateLocked() {
	if l.gate != nil {
		l.gate.SetPollsOpen(l.state == Open)
	}
}

// saveLocked persists the state. The in-memory state is authoritative; a
// failed save is logged.
func (l *Lifecycle) saveLocked(ctx context.Context) {
	if l.store == nil {
		return
	}
	sel, err := json.Marshal(l.selection)
	if err == nil {
		err = l.store.Save(ctx, db.PollsState{
			MachineID:         l.machineID,
			State:             string(l.state),
			PrecinctSelection: string(sel),
			NeedsConfirmation: l.needsConfirmation,
		})
	}
	if err != nil {
		l.logger.Error("failed to persist polls state", zap.Error(err))
	}
}
