package board

import (
	"context"
	"sync"
)

type ActionState string

const (
	ActionIdle        ActionState = "idle"
	ActionOptimistic  ActionState = "optimistic"
	ActionConfirmed   ActionState = "confirmed"
	ActionReconciling ActionState = "reconciling"
)

// Action tracks one drop: idle when nothing was sent, optimistic while the
// write is in flight, then confirmed, or reconciling after a failed write
// (done once the full reload has finished).
type Action struct {
	LeadID    string
	FromStage string
	ToStage   string

	mu    sync.Mutex
	state ActionState
	err   error
	done  chan struct{}
}

func newAction(leadID string) *Action {
	return &Action{LeadID: leadID, state: ActionIdle, done: make(chan struct{})}
}

func noopAction(leadID string) *Action {
	a := newAction(leadID)
	close(a.done)
	return a
}

func (a *Action) State() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err is the write failure, if any.
func (a *Action) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Action) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the action settles or ctx ends.
func (a *Action) Wait(ctx context.Context) (ActionState, error) {
	select {
	case <-a.done:
		return a.State(), nil
	case <-ctx.Done():
		return a.State(), ctx.Err()
	}
}

func (a *Action) set(state ActionState, err error) {
	a.mu.Lock()
	a.state = state
	if err != nil {
		a.err = err
	}
	a.mu.Unlock()
}
