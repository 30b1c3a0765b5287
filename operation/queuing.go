package operation

import (
	"errors"
	"fmt"
	"sync"
)

// Queue names used in ContextError messages. The operation queue and the
// observable value queue surface distinct errors when accessed outside an
// execution context.
const (
	OperationQueue  = "operation queue"
	ObservableQueue = "observable value queue"
)

// ErrQueuingActive is returned when a second execution context is opened
// while one is already active. The queuing slot is a fail-fast reentrancy
// guard, never a blocking lock.
var ErrQueuingActive = errors.New("another execution context is already active")

// ContextError reports access to a queue outside of an active execution
// context.
type ContextError struct {
	// Queue is either OperationQueue or ObservableQueue.
	Queue string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("Cannot access the %s outside of the execution context", e.Queue)
}

// QueuingContext records the operations and observables accumulated during a
// single execution call. It is acquired from a process-wide single slot via
// EnterQueuing and must be released with Exit on every path.
type QueuingContext struct {
	ops []*Operation
	obs []*Observable
}

var (
	queuingMu   sync.Mutex
	activeQueue *QueuingContext
)

// EnterQueuing opens a new queuing context and claims the process-wide slot.
// It fails with ErrQueuingActive if a context is already open.
func EnterQueuing() (*QueuingContext, error) {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	if activeQueue != nil {
		return nil, ErrQueuingActive
	}

	activeQueue = &QueuingContext{}

	return activeQueue, nil
}

// Exit releases the queuing slot and clears the queue state. It is a no-op if
// q is not the active context, so deferred calls are always safe.
func (q *QueuingContext) Exit() {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	if activeQueue == q {
		activeQueue = nil
	}
	q.ops = nil
	q.obs = nil
}

// Active returns the currently open queuing context, or nil if none.
func Active() *QueuingContext {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	return activeQueue
}

// AppendOperation appends op to the active context's operation queue. It
// fails with a ContextError if no context is active.
func AppendOperation(op *Operation) error {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	if activeQueue == nil {
		return &ContextError{Queue: OperationQueue}
	}
	activeQueue.ops = append(activeQueue.ops, op)

	return nil
}

// AppendObservable appends ob to the active context's observable queue. It
// fails with a ContextError if no context is active.
func AppendObservable(ob *Observable) error {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	if activeQueue == nil {
		return &ContextError{Queue: ObservableQueue}
	}
	activeQueue.obs = append(activeQueue.obs, ob)

	return nil
}

// Seed replaces the queue contents with the given operations and observables.
// Devices call this when opening an execution context around a pre-built
// circuit, so that nested queued construction appends to the same queues.
func (q *QueuingContext) Seed(ops []*Operation, obs []*Observable) {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	q.ops = append([]*Operation(nil), ops...)
	q.obs = append([]*Observable(nil), obs...)
}

// Operations returns a copy of the operation queue.
func (q *QueuingContext) Operations() []*Operation {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	return append([]*Operation(nil), q.ops...)
}

// Observables returns a copy of the observable queue.
func (q *QueuingContext) Observables() []*Observable {
	queuingMu.Lock()
	defer queuingMu.Unlock()

	return append([]*Observable(nil), q.obs...)
}
