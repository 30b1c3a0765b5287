package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantafoundry/quantum-devices-framework/operation"
)

// mockBackend is a configurable Backend for exercising the Device engine
// without any numeric simulation.
type mockBackend struct {
	name string
	ops  []string
	obs  []string
	caps map[string]any

	applied    []string
	resetCalls int

	preMeasureFn func(view QueueView) error
	expvalFn     func(ob *operation.Observable) (float64, error)
	varianceFn   func(ob *operation.Observable) (float64, error)
	sampleFn     func(ob *operation.Observable, n int) ([]float64, error)
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		name: "mock.qubit",
		ops:  []string{"RX", "CNOT", "PauliY", "Hadamard"},
		obs:  []string{"PauliZ", "PauliX", "Identity"},
	}
}

func (m *mockBackend) Name() string           { return m.name }
func (m *mockBackend) Operations() []string   { return m.ops }
func (m *mockBackend) Observables() []string  { return m.obs }
func (m *mockBackend) Capabilities() map[string]any { return m.caps }

func (m *mockBackend) Reset() error {
	m.resetCalls++

	return nil
}

func (m *mockBackend) Apply(op *operation.Operation) error {
	m.applied = append(m.applied, op.Name())

	return nil
}

func (m *mockBackend) PreMeasure(view QueueView) error {
	if m.preMeasureFn != nil {
		return m.preMeasureFn(view)
	}

	return nil
}

func (m *mockBackend) Expval(ob *operation.Observable) (float64, error) {
	if m.expvalFn != nil {
		return m.expvalFn(ob)
	}

	return 1, nil
}

func (m *mockBackend) Variance(ob *operation.Observable) (float64, error) {
	if m.varianceFn != nil {
		return m.varianceFn(ob)
	}

	return 0, nil
}

func (m *mockBackend) Sample(ob *operation.Observable, n int) ([]float64, error) {
	if m.sampleFn != nil {
		return m.sampleFn(ob, n)
	}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 1
	}

	return samples, nil
}

func mustOp(t *testing.T, name string, params []float64, wires []int) *operation.Operation {
	t.Helper()
	op, err := operation.New(name, params, wires)
	require.NoError(t, err)

	return op
}

func mustExpval(t *testing.T, name string, wire int) *operation.Observable {
	t.Helper()
	ob, err := operation.Expval(mustOp(t, name, nil, []int{wire}))
	require.NoError(t, err)

	return ob
}

func TestNewWithBackend(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		dev, err := NewWithBackend(newMockBackend(), 2)
		require.NoError(t, err)
		assert.Equal(t, "mock.qubit", dev.Name())
		assert.Equal(t, 2, dev.Wires())
		assert.Equal(t, DefaultShots, dev.Shots())
	})

	t.Run("nil backend", func(t *testing.T) {
		t.Parallel()

		_, err := NewWithBackend(nil, 2)
		require.Error(t, err)
	})

	t.Run("non-positive wires", func(t *testing.T) {
		t.Parallel()

		_, err := NewWithBackend(newMockBackend(), 0)
		require.Error(t, err)
	})
}

func TestDevice_SupportsOperation(t *testing.T) {
	t.Parallel()

	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	rxInfo, err := operation.Lookup("RX")
	require.NoError(t, err)

	tests := []struct {
		name    string
		ref     any
		want    bool
		wantErr bool
	}{
		{name: "supported name string", ref: "RX", want: true},
		{name: "unsupported name string", ref: "RY", want: false},
		{name: "registry info", ref: rxInfo, want: true},
		{name: "operation instance", ref: mustOp(t, "CNOT", nil, []int{0, 1}), want: true},
		{name: "integer argument", ref: 3, wantErr: true},
		{name: "nil argument", ref: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := dev.SupportsOperation(tt.ref)
			if tt.wantErr {
				var argErr *ArgumentTypeError
				require.ErrorAs(t, err, &argErr)
				assert.ErrorContains(t, err, "must either be an operation reference or a string")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDevice_SupportsObservable(t *testing.T) {
	t.Parallel()

	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	pzInfo, err := operation.Lookup("PauliZ")
	require.NoError(t, err)
	cnotInfo, err := operation.Lookup("CNOT")
	require.NoError(t, err)

	tests := []struct {
		name    string
		ref     any
		want    bool
		wantErr bool
	}{
		{name: "supported name string", ref: "PauliZ", want: true},
		{name: "unsupported name string", ref: "Hermitian", want: false},
		{name: "registry info", ref: pzInfo, want: true},
		{name: "gate-only registry info", ref: cnotInfo, wantErr: true},
		{name: "gate-only operation instance", ref: mustOp(t, "CNOT", nil, []int{0, 1}), wantErr: true},
		{name: "observable instance", ref: mustExpval(t, "PauliX", 0), want: true},
		{name: "integer argument", ref: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := dev.SupportsObservable(tt.ref)
			if tt.wantErr {
				var argErr *ArgumentTypeError
				require.ErrorAs(t, err, &argErr)
				assert.ErrorContains(t, err, "must either be an observable reference or a string")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDevice_CapabilitySets(t *testing.T) {
	t.Parallel()

	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"CNOT", "Hadamard", "PauliY", "RX"}, dev.Operations())
	assert.Equal(t, []string{"Identity", "PauliX", "PauliZ"}, dev.Observables())

	// Every declared operation is supported; PauliZ is an observable but not
	// a gate on this backend.
	for _, name := range dev.Operations() {
		ok, err := dev.SupportsOperation(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	ok, err := dev.SupportsOperation("PauliZ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDevice_Capabilities(t *testing.T) {
	t.Parallel()

	t.Run("backend metadata", func(t *testing.T) {
		t.Parallel()

		b := newMockBackend()
		b.caps = map[string]any{"model": "qubit"}
		dev, err := NewWithBackend(b, 2)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"model": "qubit"}, dev.Capabilities())
	})

	t.Run("nil metadata yields empty map", func(t *testing.T) {
		t.Parallel()

		dev, err := NewWithBackend(newMockBackend(), 2)
		require.NoError(t, err)
		caps := dev.Capabilities()
		require.NotNil(t, caps)
		assert.Empty(t, caps)
	})
}

func TestDevice_CheckValidity(t *testing.T) {
	t.Parallel()

	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	t.Run("valid queue", func(t *testing.T) {
		t.Parallel()

		ops := []*operation.Operation{
			mustOp(t, "RX", []float64{1}, []int{0}),
			mustOp(t, "PauliY", nil, []int{1}),
		}
		obs := []*operation.Observable{mustExpval(t, "PauliZ", 0)}

		require.NoError(t, dev.CheckValidity(ops, obs))
	})

	t.Run("unsupported gate", func(t *testing.T) {
		t.Parallel()

		ops := []*operation.Operation{mustOp(t, "RY", []float64{1}, []int{0})}
		obs := []*operation.Observable{mustExpval(t, "PauliZ", 0)}

		err := dev.CheckValidity(ops, obs)
		var capErr *CapabilityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, KindGate, capErr.Kind)
		assert.ErrorContains(t, err, "Gate RY not supported")
	})

	t.Run("observable name matching a supported gate", func(t *testing.T) {
		t.Parallel()

		// PauliY is a legal gate on this backend but not a legal observable;
		// observable membership is checked independently.
		ops := []*operation.Operation{mustOp(t, "PauliY", nil, []int{0})}
		obs := []*operation.Observable{mustExpval(t, "PauliY", 0)}

		err := dev.CheckValidity(ops, obs)
		var capErr *CapabilityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, KindObservable, capErr.Kind)
		assert.ErrorContains(t, err, "Observable PauliY not supported")
	})

	t.Run("wire out of range", func(t *testing.T) {
		t.Parallel()

		ops := []*operation.Operation{mustOp(t, "RX", []float64{1}, []int{5})}

		err := dev.CheckValidity(ops, nil)
		var wireErr *WireError
		require.ErrorAs(t, err, &wireErr)
		assert.Equal(t, 5, wireErr.Wire)
	})
}

// The Execute tests exercise the process-wide queuing slot and therefore run
// sequentially.

func TestDevice_Execute(t *testing.T) {
	b := newMockBackend()
	b.expvalFn = func(ob *operation.Observable) (float64, error) {
		if ob.Name() == "PauliZ" {
			return 0.25, nil
		}

		return -1, nil
	}
	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	ops := []*operation.Operation{
		mustOp(t, "RX", []float64{0.543}, []int{0}),
		mustOp(t, "CNOT", nil, []int{0, 1}),
	}
	obs := []*operation.Observable{
		mustExpval(t, "PauliZ", 0),
		mustExpval(t, "PauliX", 1),
	}

	results, err := dev.Execute(ops, obs)
	require.NoError(t, err)

	// One entry per observable, preserving input order.
	assert.Equal(t, []float64{0.25, -1}, results)
	assert.Equal(t, []string{"RX", "CNOT"}, b.applied)
}

func TestDevice_Execute_SingleObservableYieldsArray(t *testing.T) {
	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	results, err := dev.Execute(
		[]*operation.Operation{mustOp(t, "RX", []float64{0.543}, []int{0})},
		[]*operation.Observable{mustExpval(t, "PauliZ", 0)},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestDevice_Execute_UnsupportedGate(t *testing.T) {
	b := newMockBackend()
	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	ops := []*operation.Operation{
		mustOp(t, "RX", []float64{0.1}, []int{0}),
		mustOp(t, "RY", []float64{1.0}, []int{0}),
	}
	obs := []*operation.Observable{mustExpval(t, "PauliZ", 0)}

	_, err = dev.Execute(ops, obs)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not supported")
	assert.ErrorContains(t, err, "RY")

	// Validation failed, so no queue entry was partially executed.
	assert.Empty(t, b.applied)

	// The context was torn down on the error path; the slot is free again.
	q, err := operation.EnterQueuing()
	require.NoError(t, err)
	q.Exit()
}

func TestDevice_Execute_MissingSampleCount(t *testing.T) {
	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	ob, err := operation.SampleOf(mustOp(t, "PauliZ", nil, []int{0}), 0)
	require.NoError(t, err)

	_, err = dev.Execute(
		[]*operation.Operation{mustOp(t, "RX", []float64{0.543}, []int{0})},
		[]*operation.Observable{ob},
	)
	var missingErr *MissingSamplesError
	require.ErrorAs(t, err, &missingErr)
	assert.ErrorContains(t, err, "Number of samples not specified for observable")
}

func TestDevice_Execute_Sampling(t *testing.T) {
	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	ob, err := operation.SampleOf(mustOp(t, "PauliZ", nil, []int{0}), 5)
	require.NoError(t, err)

	results, err := dev.Execute(nil, []*operation.Observable{ob})
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestDevice_Execute_QueueVisibleToPreMeasure(t *testing.T) {
	b := newMockBackend()

	var seenOps, seenObs int
	b.preMeasureFn = func(view QueueView) error {
		ops, err := view.OpQueue()
		if err != nil {
			return err
		}
		obs, err := view.ObsQueue()
		if err != nil {
			return err
		}
		seenOps, seenObs = len(ops), len(obs)

		return nil
	}

	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	ops := []*operation.Operation{
		mustOp(t, "RX", []float64{0.543}, []int{0}),
		mustOp(t, "CNOT", nil, []int{0, 1}),
	}
	obs := []*operation.Observable{mustExpval(t, "PauliX", 0)}

	_, err = dev.Execute(ops, obs)
	require.NoError(t, err)
	assert.Equal(t, 2, seenOps)
	assert.Equal(t, 1, seenObs)
}

func TestDevice_Execute_FailsWhileContextActive(t *testing.T) {
	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	q, err := operation.EnterQueuing()
	require.NoError(t, err)
	defer q.Exit()

	_, err = dev.Execute(nil, []*operation.Observable{mustExpval(t, "PauliZ", 0)})
	require.ErrorIs(t, err, operation.ErrQueuingActive)
}

func TestDevice_QueueAccessOutsideExecution(t *testing.T) {
	t.Parallel()

	dev, err := NewWithBackend(newMockBackend(), 2)
	require.NoError(t, err)

	_, err = dev.OpQueue()
	var ctxErr *operation.ContextError
	require.ErrorAs(t, err, &ctxErr)
	assert.ErrorContains(t, err, "Cannot access the operation queue outside of the execution context")

	_, err = dev.ObsQueue()
	require.ErrorAs(t, err, &ctxErr)
	assert.ErrorContains(t, err, "Cannot access the observable value queue outside of the execution context")
}

func TestDevice_Execute_BackendErrorClosesContext(t *testing.T) {
	b := newMockBackend()
	b.expvalFn = func(ob *operation.Observable) (float64, error) {
		return 0, errors.New("hardware fault")
	}
	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	_, err = dev.Execute(nil, []*operation.Observable{mustExpval(t, "PauliZ", 0)})
	require.Error(t, err)
	assert.ErrorContains(t, err, "hardware fault")

	// A later execution can still claim the slot.
	b.expvalFn = nil
	results, err := dev.Execute(nil, []*operation.Observable{mustExpval(t, "PauliZ", 0)})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDevice_Execute_Idempotent(t *testing.T) {
	b := newMockBackend()
	b.expvalFn = func(ob *operation.Observable) (float64, error) {
		return 0.5, nil
	}
	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	ops := []*operation.Operation{mustOp(t, "RX", []float64{0.3}, []int{0})}
	obs := []*operation.Observable{mustExpval(t, "PauliZ", 0)}

	require.NoError(t, dev.Reset())
	first, err := dev.Execute(ops, obs)
	require.NoError(t, err)

	require.NoError(t, dev.Reset())
	second, err := dev.Execute(ops, obs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, b.resetCalls)
}

func TestDevice_Execute_Reporter(t *testing.T) {
	reporter := NewMemoryReporter()
	dev, err := NewWithBackend(newMockBackend(), 2, WithReporter(reporter))
	require.NoError(t, err)

	_, err = dev.Execute(
		[]*operation.Operation{mustOp(t, "RX", []float64{0.1}, []int{0})},
		[]*operation.Observable{mustExpval(t, "PauliZ", 0)},
	)
	require.NoError(t, err)

	// A failed execution is recorded too.
	_, err = dev.Execute(
		[]*operation.Operation{mustOp(t, "RY", []float64{0.1}, []int{0})},
		[]*operation.Observable{mustExpval(t, "PauliZ", 0)},
	)
	require.Error(t, err)

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "mock.qubit", reports[0].Device)
	assert.Nil(t, reports[0].Err)
	assert.Len(t, reports[0].Results, 1)

	require.NotNil(t, reports[1].Err)
	assert.Contains(t, reports[1].Err.Message, "not supported")
}

func TestDevice_Reset(t *testing.T) {
	t.Parallel()

	b := newMockBackend()
	dev, err := NewWithBackend(b, 2)
	require.NoError(t, err)

	// Reset is callable without an active execution context.
	require.NoError(t, dev.Reset())
	assert.Equal(t, 1, b.resetCalls)
}

func ExampleDevice_Execute() {
	backend := newMockBackend()
	dev, err := NewWithBackend(backend, 2)
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	rx, _ := operation.New("RX", []float64{0.543}, []int{0})
	cnot, _ := operation.New("CNOT", nil, []int{0, 1})
	pz, _ := operation.New("PauliZ", nil, []int{0})
	ob, _ := operation.Expval(pz)

	results, err := dev.Execute([]*operation.Operation{rx, cnot}, []*operation.Observable{ob})
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	fmt.Println("results:", results)
	// Output:
	// results: [1]
}
