package operation

import (
	"fmt"
)

// ReturnType tags the measurement statistic an observable resolves to.
type ReturnType string

const (
	// Expectation resolves to the analytic expectation value of the
	// observable.
	Expectation ReturnType = "expectation"
	// Variance resolves to the analytic variance of the observable.
	Variance ReturnType = "variance"
	// Sample resolves to eigenvalue samples of the observable and requires a
	// sample count.
	Sample ReturnType = "sample"
)

// Observable is an Operation measured at the end of a circuit. It carries a
// return type and, for sampling, the number of samples to draw.
type Observable struct {
	Operation

	returnType ReturnType
	numSamples int
}

// ReturnType returns the measurement statistic the observable resolves to.
func (ob *Observable) ReturnType() ReturnType { return ob.returnType }

// NumSamples returns the requested sample count and whether one was
// specified. It is only meaningful for Sample observables.
func (ob *Observable) NumSamples() (int, bool) {
	return ob.numSamples, ob.numSamples > 0
}

// Expval constructs an expectation-value observable from op. The operation
// kind must be observable-capable.
func Expval(op *Operation, opts ...Option) (*Observable, error) {
	return newObservable(op, Expectation, 0, opts)
}

// Var constructs a variance observable from op.
func Var(op *Operation, opts ...Option) (*Observable, error) {
	return newObservable(op, Variance, 0, opts)
}

// SampleOf constructs a sampling observable from op drawing numSamples
// eigenvalue samples. A non-positive numSamples leaves the count unspecified;
// execution rejects such observables.
func SampleOf(op *Operation, numSamples int, opts ...Option) (*Observable, error) {
	return newObservable(op, Sample, numSamples, opts)
}

func newObservable(op *Operation, rt ReturnType, numSamples int, opts []Option) (*Observable, error) {
	if op == nil {
		return nil, fmt.Errorf("observable requires an operation")
	}
	if !op.info.Observable {
		return nil, fmt.Errorf("operation %s cannot be measured as an observable", op.Name())
	}

	ob := &Observable{
		Operation:  *op,
		returnType: rt,
		numSamples: numSamples,
	}

	o := applyOptions(opts)
	if o.queue {
		if err := AppendObservable(ob); err != nil {
			return nil, err
		}
	}

	return ob, nil
}

// String returns the observable in "returnType(Name(...))" form for logs.
func (ob *Observable) String() string {
	return fmt.Sprintf("%s(%s)", ob.returnType, ob.Operation.String())
}
