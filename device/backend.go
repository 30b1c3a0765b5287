package device

import (
	"github.com/quantafoundry/quantum-devices-framework/operation"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// Backend is the contract a simulator or hardware adapter fulfils to execute
// circuits under a Device. The Device owns validation and the execution state
// machine; the backend owns state evolution and measurement statistics.
//
// All methods are invoked synchronously from a single execution at a time.
// Reset must be callable outside an active execution context.
type Backend interface {
	// Name returns the backend's device registry name, e.g. "default.qubit".
	Name() string

	// Operations returns the names of the operations the backend can apply.
	Operations() []string

	// Observables returns the names of the observables the backend can
	// measure. A name appearing in Operations does not imply membership here.
	Observables() []string

	// Capabilities returns backend metadata, e.g. whether it models
	// continuous-variable circuits or supports sampling. Implementations with
	// nothing to declare return an empty map.
	Capabilities() map[string]any

	// Reset clears all state accumulated across circuit evaluations.
	Reset() error

	// Apply applies a single validated operation to the backend state.
	Apply(op *operation.Operation) error

	// PreMeasure runs once after all operations are applied and before any
	// observable is resolved. The view exposes the operation and observable
	// queues of the running execution.
	PreMeasure(view QueueView) error

	// Expval returns the expectation value of the observable.
	Expval(ob *operation.Observable) (float64, error)

	// Variance returns the variance of the observable.
	Variance(ob *operation.Observable) (float64, error)

	// Sample draws numSamples eigenvalue samples of the observable.
	Sample(ob *operation.Observable, numSamples int) ([]float64, error)
}

// QueueView is the read-only window onto the running execution's queues that
// a Device hands to backend hooks. Accessing either queue outside an active
// execution fails with a ContextError.
type QueueView interface {
	OpQueue() ([]*operation.Operation, error)
	ObsQueue() ([]*operation.Observable, error)
}

// BackendConfig carries the settings a Factory receives when constructing a
// backend for a new device.
type BackendConfig struct {
	// Wires is the number of addressable subsystems.
	Wires int
	// Shots is the device-level default shot count for statistics that are
	// estimated rather than computed analytically.
	Shots int
	// Logger is the logger the backend should use.
	Logger logger.Logger
	// Options holds backend-specific settings from the device profile.
	Options map[string]any
}

// Factory constructs backends for a registered device name. Implementations
// register themselves with RegisterFactory, typically from an init function.
type Factory interface {
	// Name returns the device registry name the factory serves.
	Name() string

	// FrameworkConstraint returns the semver constraint the backend places on
	// the framework version, or "" for none. Incompatible backends are
	// rejected at device construction, before any queue exists.
	FrameworkConstraint() string

	// Create constructs a backend instance.
	Create(cfg BackendConfig) (Backend, error)
}
