package board

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ActivationDistance is how far, in pixels, a pointer must travel before a
// press on a card becomes a drag instead of a click.
const ActivationDistance = 6.0

var (
	ErrBelowActivation = errors.New("pointer moved less than the drag activation distance")
	ErrUnknownLead     = errors.New("lead is not on the board")
)

// BeginDrag marks leadID as being dragged.
func (b *Board) BeginDrag(leadID string, distance float64) error {
	if distance < ActivationDistance {
		return ErrBelowActivation
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, l := b.findLead(leadID); l == nil {
		return ErrUnknownLead
	}
	b.dragID = leadID
	return nil
}

func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.dragID = ""
	b.mu.Unlock()
}

// Drop ends a drag over overID. Only a stage id is a valid target; a drop
// over another card, over nothing, or onto the lead's own stage changes
// nothing and sends nothing. Otherwise the cache is rewritten at once and a
// single stage_id write is sent; if it fails the error slot is set and the
// board is fully reloaded.
func (b *Board) Drop(ctx context.Context, leadID, overID string) *Action {
	b.mu.Lock()
	b.dragID = ""

	i, lead := b.findLead(leadID)
	if overID == "" || lead == nil {
		b.mu.Unlock()
		return noopAction(leadID)
	}
	target := b.findStage(overID)
	if target == nil || target.ID == lead.StageID {
		b.mu.Unlock()
		return noopAction(leadID)
	}

	moved := *lead
	moved.StageID = target.ID
	b.leads[i] = &moved

	a := newAction(leadID)
	a.FromStage = lead.StageID
	a.ToStage = target.ID
	a.set(ActionOptimistic, nil)
	b.writes.Add(1)
	b.mu.Unlock()

	go b.commitMove(context.WithoutCancel(ctx), a)
	return a
}

func (b *Board) commitMove(ctx context.Context, a *Action) {
	defer b.writes.Done()
	defer close(a.done)

	err := b.repos.Leads.UpdateStage(ctx, a.LeadID, a.ToStage)
	if err == nil {
		a.set(ActionConfirmed, nil)
		b.notifySettled(ActionConfirmed)
		return
	}

	b.logger.Warn("lead move failed, reloading board",
		zap.String("lead_id", a.LeadID),
		zap.String("to_stage", a.ToStage),
		zap.Error(err),
	)
	a.set(ActionReconciling, err)
	b.notifySettled(ActionReconciling)

	b.mu.Lock()
	b.errMsg = message(err)
	b.mu.Unlock()

	// reload logs and records its own failure.
	_ = b.reload(ctx)
}

func (b *Board) notifySettled(state ActionState) {
	if b.settled != nil {
		b.settled(state)
	}
}
