package device

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound is returned by New when no backend factory is registered
// under the requested name.
var ErrDeviceNotFound = errors.New("Device does not exist")

// CapabilityKind distinguishes whether a capability violation concerns a gate
// or an observable. The same name may be supported as one and not the other.
type CapabilityKind string

const (
	KindGate       CapabilityKind = "Gate"
	KindObservable CapabilityKind = "Observable"
)

// CapabilityError reports an operation or observable outside the device's
// declared capability set, found during validation.
type CapabilityError struct {
	Kind   CapabilityKind
	Name   string
	Device string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s %s not supported on device %s", e.Kind, e.Name, e.Device)
}

// WireError reports an operation or observable referencing a wire outside the
// device's configured wire range.
type WireError struct {
	Kind   CapabilityKind
	Name   string
	Wire   int
	Device string
	Wires  int
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s %s acts on wire %d, but device %s only has %d wires",
		e.Kind, e.Name, e.Wire, e.Device, e.Wires)
}

// MissingSamplesError reports a sampling observable without a sample count.
type MissingSamplesError struct {
	Observable string
}

func (e *MissingSamplesError) Error() string {
	return fmt.Sprintf("Number of samples not specified for observable %s", e.Observable)
}

// ArgumentTypeError reports a capability query with an argument that is
// neither a name string nor a recognized reference.
type ArgumentTypeError struct {
	Kind CapabilityKind
}

func (e *ArgumentTypeError) Error() string {
	if e.Kind == KindObservable {
		return "the given observable must either be an observable reference or a string"
	}

	return "the given operation must either be an operation reference or a string"
}
