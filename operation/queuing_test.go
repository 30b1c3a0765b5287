package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The queuing tests share the process-wide queuing slot, so they run
// sequentially.

func TestEnterQueuing(t *testing.T) {
	q, err := EnterQueuing()
	require.NoError(t, err)
	defer q.Exit()

	// A second entry must fail fast while the first context is open.
	_, err = EnterQueuing()
	require.ErrorIs(t, err, ErrQueuingActive)
}

func TestQueuingContext_Exit(t *testing.T) {
	q, err := EnterQueuing()
	require.NoError(t, err)
	q.Exit()

	// The slot is free again after exit.
	q2, err := EnterQueuing()
	require.NoError(t, err)
	q2.Exit()

	// Exiting a stale context must not release a newer one.
	q3, err := EnterQueuing()
	require.NoError(t, err)
	q.Exit()
	assert.Equal(t, q3, Active())
	q3.Exit()
	assert.Nil(t, Active())
}

func TestAppendOutsideContext(t *testing.T) {
	op, err := New("RX", []float64{0.1}, []int{0})
	require.NoError(t, err)

	err = AppendOperation(op)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Cannot access the operation queue outside of the execution context")

	pz, err := New("PauliZ", nil, []int{0})
	require.NoError(t, err)
	ob, err := Expval(pz)
	require.NoError(t, err)

	err = AppendObservable(ob)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Cannot access the observable value queue outside of the execution context")
}

func TestQueuedConstruction(t *testing.T) {
	// Constructing with queuing enabled while no context is open fails with a
	// context error rather than silently starting a new queue.
	_, err := New("RX", []float64{0.1}, []int{0}, WithQueuing())
	var ctxErr *ContextError
	require.ErrorAs(t, err, &ctxErr)
	assert.Equal(t, OperationQueue, ctxErr.Queue)

	q, err := EnterQueuing()
	require.NoError(t, err)
	defer q.Exit()

	// Inside a context, queued construction appends to the same queues.
	op, err := New("RX", []float64{0.1}, []int{0}, WithQueuing())
	require.NoError(t, err)

	pz, err := New("PauliZ", nil, []int{0})
	require.NoError(t, err)
	ob, err := Expval(pz, WithQueuing())
	require.NoError(t, err)

	require.Len(t, q.Operations(), 1)
	require.Len(t, q.Observables(), 1)
	assert.Equal(t, op, q.Operations()[0])
	assert.Equal(t, ob, q.Observables()[0])
}

func TestQueuingContext_Seed(t *testing.T) {
	q, err := EnterQueuing()
	require.NoError(t, err)
	defer q.Exit()

	op1, err := New("Hadamard", nil, []int{0})
	require.NoError(t, err)
	op2, err := New("CNOT", nil, []int{0, 1})
	require.NoError(t, err)

	q.Seed([]*Operation{op1, op2}, nil)
	require.Len(t, q.Operations(), 2)

	// Nested queued construction appends after the seeded entries.
	op3, err := New("PauliX", nil, []int{1}, WithQueuing())
	require.NoError(t, err)

	ops := q.Operations()
	require.Len(t, ops, 3)
	assert.Equal(t, op3, ops[2])
}
