package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollsBackInReverse(t *testing.T) {
	var trail []string
	record := func(s string) func(context.Context) error {
		return func(context.Context) error {
			trail = append(trail, s)
			return nil
		}
	}

	txn := NewTransaction(nil)
	txn.AddOperation("a", record("a"))
	txn.AddCompensation("undo_a", record("undo_a"))
	txn.AddOperation("b", record("b"))
	txn.AddCompensation("undo_b", record("undo_b"))
	txn.AddOperation("c", func(context.Context) error { return errors.New("boom") })

	err := txn.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation 'c' failed: boom (rolled back 2 operations)")
	assert.Equal(t, []string{"a", "b", "undo_b", "undo_a"}, trail)
}

func TestTransactionFailedCompensationIsNotCounted(t *testing.T) {
	txn := NewTransaction(nil)
	txn.AddOperation("a", func(context.Context) error { return nil })
	txn.AddCompensation("undo_a", func(context.Context) error { return errors.New("gone") })
	txn.AddOperation("b", func(context.Context) error { return errors.New("boom") })

	err := txn.Execute(context.Background())

	assert.ErrorContains(t, err, "rolled back 0 operations")
}

func TestAddCompensationWithoutOperationIsIgnored(t *testing.T) {
	txn := NewTransaction(nil)
	txn.AddCompensation("orphan", func(context.Context) error { return nil })

	assert.NoError(t, txn.Execute(context.Background()))
}
