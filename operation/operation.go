package operation

import (
	"fmt"
)

// Operation is a symbolic gate or state-preparation instruction: a registry
// name, its ordered numeric parameters and the wires it acts on. Operations
// are immutable after construction apart from the queuing side effect.
type Operation struct {
	info   Info
	params []float64
	wires  []int
}

// Option configures construction of an Operation or Observable.
type Option func(*options)

type options struct {
	registry *Registry
	queue    bool
}

// WithRegistry resolves the operation against the given registry instead of
// the default catalog.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithQueuing appends the constructed operation or observable to the active
// queuing context. Construction fails with a ContextError if no context is
// active.
func WithQueuing() Option {
	return func(o *options) {
		o.queue = true
	}
}

func applyOptions(opts []Option) options {
	o := options{registry: Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// New constructs an Operation. The name must resolve in the registry, the
// parameter count must match the registered arity, and for kinds with a fixed
// wire count the number of wires must match. Wire indices are range-checked
// against the device wire count at validation time, not here.
func New(name string, params []float64, wires []int, opts ...Option) (*Operation, error) {
	o := applyOptions(opts)

	info, err := o.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	// Array-domain parameters are flattened, so their length is free.
	if info.Domain != DomainArray && len(params) != info.NumParams {
		return nil, fmt.Errorf("operation %s expects %d parameters, got %d", name, info.NumParams, len(params))
	}
	if info.NumWires > 0 && len(wires) != info.NumWires {
		return nil, fmt.Errorf("operation %s acts on %d wires, got %d", name, info.NumWires, len(wires))
	}
	if len(wires) == 0 {
		return nil, fmt.Errorf("operation %s must act on at least one wire", name)
	}

	op := &Operation{
		info:   info,
		params: append([]float64(nil), params...),
		wires:  append([]int(nil), wires...),
	}

	if o.queue {
		if err := AppendOperation(op); err != nil {
			return nil, err
		}
	}

	return op, nil
}

// Name returns the registry name of the operation.
func (op *Operation) Name() string { return op.info.Name }

// Info returns the registry entry the operation was resolved against.
func (op *Operation) Info() Info { return op.info }

// Parameters returns a copy of the ordered parameter values.
func (op *Operation) Parameters() []float64 {
	return append([]float64(nil), op.params...)
}

// Wires returns a copy of the ordered wire indices.
func (op *Operation) Wires() []int {
	return append([]int(nil), op.wires...)
}

// String returns the operation in "Name(params; wires)" form for logs.
func (op *Operation) String() string {
	return fmt.Sprintf("%s(%v; wires=%v)", op.info.Name, op.params, op.wires)
}
