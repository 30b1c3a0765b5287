package device

import (
	"fmt"
	"slices"
	"sync"

	"github.com/quantafoundry/quantum-devices-framework/operation"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// DefaultShots is the device-level shot count used when none is configured.
const DefaultShots = 1000

// Device drives circuit execution against a Backend. It validates queued
// operations and observables against the backend's capability sets, enforces
// the queuing-context discipline, and aggregates per-observable results.
//
// The capability sets are snapshotted at construction and read-only
// afterwards. A Device is intended for single-threaded, synchronous use; a
// concurrent second Execute fails fast on the queuing slot.
type Device struct {
	name    string
	backend Backend
	wires   int
	shots   int

	ops map[string]struct{}
	obs map[string]struct{}

	lggr           logger.Logger
	reporter       Reporter
	backendOptions map[string]any

	mu   sync.Mutex
	exec *operation.QueuingContext
}

// Option configures a Device at construction.
type Option func(*Device)

// WithLogger sets the device logger. The default is a no-op logger.
func WithLogger(lggr logger.Logger) Option {
	return func(d *Device) {
		d.lggr = lggr
	}
}

// WithShots sets the device-level default shot count.
func WithShots(shots int) Option {
	return func(d *Device) {
		d.shots = shots
	}
}

// WithReporter records a Report for every Execute call through the given
// Reporter.
func WithReporter(r Reporter) Option {
	return func(d *Device) {
		d.reporter = r
	}
}

// NewWithBackend wraps an already-constructed backend in a Device. Most
// callers construct devices by registry name through New instead.
func NewWithBackend(backend Backend, wires int, opts ...Option) (*Device, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend must not be nil")
	}
	if wires <= 0 {
		return nil, fmt.Errorf("device requires a positive wire count, got %d", wires)
	}

	d := &Device{
		name:    backend.Name(),
		backend: backend,
		wires:   wires,
		shots:   DefaultShots,
		lggr:    logger.Nop(),
		ops:     make(map[string]struct{}),
		obs:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, name := range backend.Operations() {
		d.ops[name] = struct{}{}
	}
	for _, name := range backend.Observables() {
		d.obs[name] = struct{}{}
	}

	return d, nil
}

// Name returns the device registry name, e.g. "default.qubit".
func (d *Device) Name() string { return d.name }

// Wires returns the configured number of wires.
func (d *Device) Wires() int { return d.wires }

// Shots returns the device-level default shot count.
func (d *Device) Shots() int { return d.shots }

// Backend returns the wrapped backend.
func (d *Device) Backend() Backend { return d.backend }

// Operations returns the sorted operation capability set as a fresh slice.
func (d *Device) Operations() []string {
	return setToSlice(d.ops)
}

// Observables returns the sorted observable capability set as a fresh slice.
func (d *Device) Observables() []string {
	return setToSlice(d.obs)
}

// Capabilities returns the backend's metadata mapping. A backend with
// nothing to declare yields an empty, non-nil map.
func (d *Device) Capabilities() map[string]any {
	caps := d.backend.Capabilities()
	if caps == nil {
		caps = map[string]any{}
	}

	return caps
}

// Reset clears the backend's accumulated state. It is independent of the
// execution state machine and callable without an active context.
func (d *Device) Reset() error {
	return d.backend.Reset()
}

// SupportsOperation reports whether the device supports the referenced
// operation as a gate. The reference may be a name string, an
// operation.Info, an *operation.Operation or an *operation.Observable; any
// other argument fails with an ArgumentTypeError.
func (d *Device) SupportsOperation(ref any) (bool, error) {
	name, err := resolveOperationName(ref)
	if err != nil {
		return false, err
	}
	_, ok := d.ops[name]

	return ok, nil
}

// SupportsObservable reports whether the device supports the referenced
// observable. Operation references that cannot be measured fail with an
// ArgumentTypeError; observable membership is independent of operation
// membership.
func (d *Device) SupportsObservable(ref any) (bool, error) {
	name, err := resolveObservableName(ref)
	if err != nil {
		return false, err
	}
	_, ok := d.obs[name]

	return ok, nil
}

// CheckValidity validates every operation and observable against the
// device's capability sets and wire range. The first violation is returned;
// nothing is executed.
func (d *Device) CheckValidity(ops []*operation.Operation, observables []*operation.Observable) error {
	for _, op := range ops {
		if _, ok := d.ops[op.Name()]; !ok {
			return &CapabilityError{Kind: KindGate, Name: op.Name(), Device: d.name}
		}
		if err := d.checkWires(KindGate, op.Name(), op.Wires()); err != nil {
			return err
		}
	}

	for _, ob := range observables {
		// Membership is checked against the observable set even when the same
		// name is a supported gate.
		if _, ok := d.obs[ob.Name()]; !ok {
			return &CapabilityError{Kind: KindObservable, Name: ob.Name(), Device: d.name}
		}
		if err := d.checkWires(KindObservable, ob.Name(), ob.Wires()); err != nil {
			return err
		}
	}

	return nil
}

// Execute runs the validation/execution state machine over a pre-built
// circuit: open the queuing context, validate, apply operations, run the
// pre-measure hook, resolve each observable in order, and close the context
// on every path.
//
// The result always carries one entry per expectation or variance observable
// and numSamples entries per sampling observable, preserving input order. A
// single expectation still yields a one-element slice, never a bare scalar.
func (d *Device) Execute(ops []*operation.Operation, observables []*operation.Observable) ([]float64, error) {
	q, err := operation.EnterQueuing()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.exec = q
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.exec = nil
		d.mu.Unlock()
		q.Exit()
	}()

	q.Seed(ops, observables)

	results, err := d.run(ops, observables)
	d.record(ops, observables, results, err)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (d *Device) run(ops []*operation.Operation, observables []*operation.Observable) ([]float64, error) {
	d.lggr.Debugw("Executing circuit",
		"device", d.name, "operations", len(ops), "observables", len(observables))

	if err := d.CheckValidity(ops, observables); err != nil {
		return nil, err
	}

	for _, op := range ops {
		if err := d.backend.Apply(op); err != nil {
			return nil, fmt.Errorf("applying %s: %w", op, err)
		}
	}

	if err := d.backend.PreMeasure(d); err != nil {
		return nil, fmt.Errorf("pre-measure hook: %w", err)
	}

	results := make([]float64, 0, len(observables))
	for _, ob := range observables {
		switch ob.ReturnType() {
		case operation.Expectation:
			v, err := d.backend.Expval(ob)
			if err != nil {
				return nil, fmt.Errorf("expectation of %s: %w", ob.Name(), err)
			}
			results = append(results, v)

		case operation.Variance:
			v, err := d.backend.Variance(ob)
			if err != nil {
				return nil, fmt.Errorf("variance of %s: %w", ob.Name(), err)
			}
			results = append(results, v)

		case operation.Sample:
			n, ok := ob.NumSamples()
			if !ok {
				return nil, &MissingSamplesError{Observable: ob.Name()}
			}
			samples, err := d.backend.Sample(ob, n)
			if err != nil {
				return nil, fmt.Errorf("sampling %s: %w", ob.Name(), err)
			}
			results = append(results, samples...)

		default:
			return nil, fmt.Errorf("observable %s has unknown return type %q", ob.Name(), ob.ReturnType())
		}
	}

	return results, nil
}

// OpQueue returns the operation queue of the running execution. Outside an
// active execution context it fails with a ContextError.
func (d *Device) OpQueue() ([]*operation.Operation, error) {
	d.mu.Lock()
	q := d.exec
	d.mu.Unlock()

	if q == nil {
		return nil, &operation.ContextError{Queue: operation.OperationQueue}
	}

	return q.Operations(), nil
}

// ObsQueue returns the observable queue of the running execution. Outside an
// active execution context it fails with a ContextError.
func (d *Device) ObsQueue() ([]*operation.Observable, error) {
	d.mu.Lock()
	q := d.exec
	d.mu.Unlock()

	if q == nil {
		return nil, &operation.ContextError{Queue: operation.ObservableQueue}
	}

	return q.Observables(), nil
}

func (d *Device) checkWires(kind CapabilityKind, name string, wires []int) error {
	for _, w := range wires {
		if w < 0 || w >= d.wires {
			return &WireError{Kind: kind, Name: name, Wire: w, Device: d.name, Wires: d.wires}
		}
	}

	return nil
}

func (d *Device) record(ops []*operation.Operation, observables []*operation.Observable, results []float64, execErr error) {
	if d.reporter == nil {
		return
	}

	report := NewReport(d.name, ops, observables, results, execErr)
	if err := d.reporter.AddReport(report); err != nil {
		d.lggr.Errorw("Failed to record execution report", "device", d.name, "error", err)
	}
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	slices.Sort(out)

	return out
}

func resolveOperationName(ref any) (string, error) {
	switch v := ref.(type) {
	case string:
		return v, nil
	case operation.Info:
		return v.Name, nil
	case *operation.Operation:
		return v.Name(), nil
	case *operation.Observable:
		return v.Name(), nil
	default:
		return "", &ArgumentTypeError{Kind: KindGate}
	}
}

func resolveObservableName(ref any) (string, error) {
	switch v := ref.(type) {
	case string:
		return v, nil
	case operation.Info:
		if !v.Observable {
			return "", &ArgumentTypeError{Kind: KindObservable}
		}

		return v.Name, nil
	case *operation.Observable:
		return v.Name(), nil
	case *operation.Operation:
		if !v.Info().Observable {
			return "", &ArgumentTypeError{Kind: KindObservable}
		}

		return v.Name(), nil
	default:
		return "", &ArgumentTypeError{Kind: KindObservable}
	}
}
