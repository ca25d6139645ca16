package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction runs a list of writes in order. When a write fails, the
// compensations of the writes that already succeeded run in reverse order.
// It is not atomic: a compensation that fails leaves the store inconsistent
// and is only logged.
type Transaction struct {
	operations []Operation
	logger     *zap.Logger
}

type Operation struct {
	Name       string
	Fn         func(context.Context) error
	Compensate *Compensation
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{logger: logger}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{Name: name, Fn: fn})
}

// AddCompensation attaches an undo step to the most recently added operation.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	if len(t.operations) == 0 {
		return
	}
	t.operations[len(t.operations)-1].Compensate = &Compensation{Name: name, Fn: fn}
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			rolledBack := t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, rolledBack)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) int {
	rolledBack := 0
	for i := failedAt - 1; i >= 0; i-- {
		comp := t.operations[i].Compensate
		if comp == nil {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			t.logger.Warn("compensation failed, store may be inconsistent",
				zap.String("compensation", comp.Name),
				zap.Error(err),
			)
			continue
		}
		rolledBack++
	}
	return rolledBack
}
