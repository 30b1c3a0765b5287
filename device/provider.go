package device

import (
	"fmt"
	"slices"
	"sync"

	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
	"github.com/quantafoundry/quantum-devices-framework/pkg/version"
)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend factory under its device name. Backend
// packages call this from an init function, so importing a backend package
// makes its device constructible by name. Registering two factories under
// the same name panics.
func RegisterFactory(f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	name := f.Name()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("device: factory %q already registered", name))
	}
	factories[name] = f
}

// Factories returns the sorted names of all registered device factories.
func Factories() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// WithBackendOptions passes backend-specific settings through to the factory.
func WithBackendOptions(options map[string]any) Option {
	return func(d *Device) {
		d.backendOptions = options
	}
}

// New constructs a device by registry name. It fails with ErrDeviceNotFound
// for unknown names and with a version error when the backend's framework
// constraint is not satisfied by the running framework; both occur before
// any queue exists.
func New(name string, wires int, opts ...Option) (*Device, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no backend registered under name %q", ErrDeviceNotFound, name)
	}

	if err := version.CheckConstraint(f.FrameworkConstraint()); err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}

	if wires <= 0 {
		return nil, fmt.Errorf("device %s requires a positive wire count, got %d", name, wires)
	}

	// Apply options to a staging device first so the factory sees the final
	// logger and shot count.
	staging := &Device{shots: DefaultShots}
	for _, opt := range opts {
		opt(staging)
	}
	if staging.lggr == nil {
		staging.lggr = logger.Nop()
	}

	cfg := BackendConfig{
		Wires:   wires,
		Shots:   staging.shots,
		Logger:  staging.lggr,
		Options: staging.backendOptions,
	}
	backend, err := f.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing backend %s: %w", name, err)
	}

	return NewWithBackend(backend, wires, opts...)
}
