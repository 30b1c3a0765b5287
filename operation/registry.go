package operation

import (
	"errors"
	"fmt"
	"slices"
)

// ParDomain classifies the admissible values of an operation's parameters.
type ParDomain string

const (
	// DomainNatural marks parameters restricted to integer values, e.g. a
	// Fock-state photon number.
	DomainNatural ParDomain = "N"
	// DomainReal marks continuous real-valued parameters such as rotation
	// angles.
	DomainReal ParDomain = "R"
	// DomainArray marks parameters that are flattened arrays, e.g. a unitary
	// matrix or a basis-state bit string.
	DomainArray ParDomain = "A"
)

// Info describes a single operation or observable kind known to the
// framework. It carries everything validation and test harnesses need to
// reason about an operation without executing it.
type Info struct {
	// Name is the registry key, e.g. "RX" or "PauliZ".
	Name string
	// NumParams is the parameter arity.
	NumParams int
	// NumWires is the number of wires the operation acts on. Zero means the
	// operation acts on any number of wires.
	NumWires int
	// Domain tags the admissible parameter values.
	Domain ParDomain
	// Observable reports whether the kind may be measured as an observable.
	Observable bool
	// CV reports whether the kind belongs to the continuous-variable model.
	CV bool
}

var ErrNotInRegistry = errors.New("not found in registry")

// Registry is a static catalog of operation and observable kinds. It has no
// mutable state after construction; lookups are pure.
type Registry struct {
	infos map[string]Info
}

// NewRegistry creates a Registry holding the provided kinds.
func NewRegistry(infos ...Info) *Registry {
	m := make(map[string]Info, len(infos))
	for _, info := range infos {
		m[info.Name] = info
	}

	return &Registry{infos: m}
}

// Lookup resolves a kind by name. It returns ErrNotInRegistry if the name is
// unknown.
func (r *Registry) Lookup(name string) (Info, error) {
	info, ok := r.infos[name]
	if !ok {
		return Info{}, fmt.Errorf("operation %q %w", name, ErrNotInRegistry)
	}

	return info, nil
}

// Names returns the sorted names of all registered kinds.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.infos))
	for name := range r.infos {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// ObservableNames returns the sorted names of all kinds that may be measured
// as observables.
func (r *Registry) ObservableNames() []string {
	names := make([]string, 0, len(r.infos))
	for name, info := range r.infos {
		if info.Observable {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	return names
}

// defaultRegistry is the catalog of kinds shipped with the framework. Qubit
// gates and Pauli observables cover the discrete model; the CV entries cover
// the Gaussian model.
var defaultRegistry = NewRegistry(
	// Qubit gates and observables.
	Info{Name: "Identity", NumWires: 1, Domain: DomainReal, Observable: true},
	Info{Name: "Hadamard", NumWires: 1, Domain: DomainReal, Observable: true},
	Info{Name: "PauliX", NumWires: 1, Domain: DomainReal, Observable: true},
	Info{Name: "PauliY", NumWires: 1, Domain: DomainReal, Observable: true},
	Info{Name: "PauliZ", NumWires: 1, Domain: DomainReal, Observable: true},
	Info{Name: "S", NumWires: 1, Domain: DomainReal},
	Info{Name: "T", NumWires: 1, Domain: DomainReal},
	Info{Name: "PhaseShift", NumParams: 1, NumWires: 1, Domain: DomainReal},
	Info{Name: "RX", NumParams: 1, NumWires: 1, Domain: DomainReal},
	Info{Name: "RY", NumParams: 1, NumWires: 1, Domain: DomainReal},
	Info{Name: "RZ", NumParams: 1, NumWires: 1, Domain: DomainReal},
	Info{Name: "Rot", NumParams: 3, NumWires: 1, Domain: DomainReal},
	Info{Name: "CNOT", NumWires: 2, Domain: DomainReal},
	Info{Name: "CZ", NumWires: 2, Domain: DomainReal},
	Info{Name: "SWAP", NumWires: 2, Domain: DomainReal},
	Info{Name: "CRZ", NumParams: 1, NumWires: 2, Domain: DomainReal},
	Info{Name: "BasisState", NumParams: 1, Domain: DomainArray},
	Info{Name: "QubitStateVector", NumParams: 1, Domain: DomainArray},
	Info{Name: "QubitUnitary", NumParams: 1, Domain: DomainArray},

	// Continuous-variable gates and observables.
	Info{Name: "Rotation", NumParams: 1, NumWires: 1, Domain: DomainReal, CV: true},
	Info{Name: "Displacement", NumParams: 2, NumWires: 1, Domain: DomainReal, CV: true},
	Info{Name: "Squeezing", NumParams: 2, NumWires: 1, Domain: DomainReal, CV: true},
	Info{Name: "Beamsplitter", NumParams: 2, NumWires: 2, Domain: DomainReal, CV: true},
	Info{Name: "TwoModeSqueezing", NumParams: 2, NumWires: 2, Domain: DomainReal, CV: true},
	Info{Name: "FockState", NumParams: 1, NumWires: 1, Domain: DomainNatural, CV: true},
	Info{Name: "X", NumWires: 1, Domain: DomainReal, Observable: true, CV: true},
	Info{Name: "P", NumWires: 1, Domain: DomainReal, Observable: true, CV: true},
	Info{Name: "NumberOperator", NumWires: 1, Domain: DomainReal, Observable: true, CV: true},
)

// Default returns the registry of kinds shipped with the framework.
func Default() *Registry {
	return defaultRegistry
}

// Lookup resolves a kind by name in the default registry.
func Lookup(name string) (Info, error) {
	return defaultRegistry.Lookup(name)
}
