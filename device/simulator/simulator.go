// Package simulator provides "default.qubit", an analytic state-vector
// simulator backend for qubit devices. Importing the package registers the
// backend factory.
package simulator

import (
	"fmt"
	"math/rand/v2"

	"github.com/quantafoundry/quantum-devices-framework/device"
	"github.com/quantafoundry/quantum-devices-framework/operation"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// Name is the device registry name of this backend.
const Name = "default.qubit"

func init() {
	device.RegisterFactory(factory{})
}

type factory struct{}

func (factory) Name() string { return Name }

func (factory) FrameworkConstraint() string { return ">=0.4" }

func (factory) Create(cfg device.BackendConfig) (device.Backend, error) {
	return New(cfg)
}

var gateNames = []string{
	"Identity",
	"Hadamard",
	"PauliX",
	"PauliY",
	"PauliZ",
	"S",
	"T",
	"PhaseShift",
	"RX",
	"RY",
	"RZ",
	"Rot",
	"CNOT",
	"CZ",
	"SWAP",
	"CRZ",
	"BasisState",
	"QubitStateVector",
	"QubitUnitary",
}

var observableNames = []string{
	"Identity",
	"Hadamard",
	"PauliX",
	"PauliY",
	"PauliZ",
}

// Simulator is a state-vector qubit backend. Expectation values and
// variances are computed analytically; samples are drawn from the analytic
// eigenvalue distribution using the backend's own random source.
type Simulator struct {
	state *stateVector
	rng   *rand.Rand
	lggr  logger.Logger
}

// New constructs a Simulator from a backend config. The "seed" option (an
// int64 or int) makes sampling deterministic.
func New(cfg device.BackendConfig) (*Simulator, error) {
	if cfg.Wires <= 0 {
		return nil, fmt.Errorf("simulator requires a positive wire count, got %d", cfg.Wires)
	}

	var seed uint64 = rand.Uint64()
	if raw, ok := cfg.Options["seed"]; ok {
		switch v := raw.(type) {
		case int:
			seed = uint64(v)
		case int64:
			seed = uint64(v)
		case uint64:
			seed = v
		default:
			return nil, fmt.Errorf("simulator seed must be an integer, got %T", raw)
		}
	}

	lggr := cfg.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	return &Simulator{
		state: newStateVector(cfg.Wires),
		rng:   rand.New(rand.NewPCG(seed, seed)),
		lggr:  lggr.Named("Simulator"),
	}, nil
}

func (s *Simulator) Name() string { return Name }

func (s *Simulator) Operations() []string {
	return append([]string(nil), gateNames...)
}

func (s *Simulator) Observables() []string {
	return append([]string(nil), observableNames...)
}

func (s *Simulator) Capabilities() map[string]any {
	return map[string]any{
		"model":    "qubit",
		"analytic": true,
	}
}

// Reset returns the register to the all-zeros basis state.
func (s *Simulator) Reset() error {
	s.state.reset()

	return nil
}

// Apply applies one queued gate to the state vector.
func (s *Simulator) Apply(op *operation.Operation) error {
	name := op.Name()
	params := op.Parameters()
	wires := op.Wires()

	switch name {
	case "Identity":
		return nil
	case "Hadamard":
		s.state.applySingle(matHadamard(), wires[0])
	case "PauliX":
		s.state.applySingle(matPauliX(), wires[0])
	case "PauliY":
		s.state.applySingle(matPauliY(), wires[0])
	case "PauliZ":
		s.state.applySingle(matPauliZ(), wires[0])
	case "S":
		s.state.applySingle(matS(), wires[0])
	case "T":
		s.state.applySingle(matT(), wires[0])
	case "PhaseShift":
		s.state.applySingle(matPhaseShift(params[0]), wires[0])
	case "RX":
		s.state.applySingle(matRX(params[0]), wires[0])
	case "RY":
		s.state.applySingle(matRY(params[0]), wires[0])
	case "RZ":
		s.state.applySingle(matRZ(params[0]), wires[0])
	case "Rot":
		// Rot(phi, theta, omega) = RZ(omega) RY(theta) RZ(phi).
		s.state.applySingle(matRZ(params[0]), wires[0])
		s.state.applySingle(matRY(params[1]), wires[0])
		s.state.applySingle(matRZ(params[2]), wires[0])
	case "CNOT":
		s.state.applyControlled(matPauliX(), wires[0], wires[1])
	case "CZ":
		s.state.applyCZ(wires[0], wires[1])
	case "SWAP":
		s.state.applySWAP(wires[0], wires[1])
	case "CRZ":
		s.state.applyControlled(matRZ(params[0]), wires[0], wires[1])
	case "BasisState":
		return s.state.setBasisState(params, wires)
	case "QubitStateVector":
		if len(wires) != s.state.wires {
			return fmt.Errorf("QubitStateVector must address all %d wires", s.state.wires)
		}

		return s.state.setAmplitudes(params)
	case "QubitUnitary":
		return s.state.applyUnitary(params, wires)
	default:
		return fmt.Errorf("gate %s not implemented by %s", name, Name)
	}

	return nil
}

// PreMeasure logs the queue sizes before measurement.
func (s *Simulator) PreMeasure(view device.QueueView) error {
	ops, err := view.OpQueue()
	if err != nil {
		return err
	}
	obs, err := view.ObsQueue()
	if err != nil {
		return err
	}
	s.lggr.Debugw("Measuring", "operations", len(ops), "observables", len(obs))

	return nil
}

// Expval returns the analytic expectation value of the observable.
func (s *Simulator) Expval(ob *operation.Observable) (float64, error) {
	m, err := observableMatrix(ob.Name())
	if err != nil {
		return 0, err
	}

	return s.state.expectation(m, ob.Wires()[0]), nil
}

// Variance returns the analytic variance of the observable. The supported
// observables square to the identity, so the variance is 1 - <A>^2.
func (s *Simulator) Variance(ob *operation.Observable) (float64, error) {
	e, err := s.Expval(ob)
	if err != nil {
		return 0, err
	}

	return 1 - e*e, nil
}

// Sample draws eigenvalue samples of the observable. The supported
// observables have eigenvalues +1 and -1 with p(+1) = (1 + <A>)/2.
func (s *Simulator) Sample(ob *operation.Observable, numSamples int) ([]float64, error) {
	e, err := s.Expval(ob)
	if err != nil {
		return nil, err
	}

	pUp := (1 + e) / 2
	samples := make([]float64, numSamples)
	for i := range samples {
		if s.rng.Float64() < pUp {
			samples[i] = 1
		} else {
			samples[i] = -1
		}
	}

	return samples, nil
}

func observableMatrix(name string) ([2][2]complex128, error) {
	switch name {
	case "Identity":
		return matIdentity(), nil
	case "Hadamard":
		return matHadamard(), nil
	case "PauliX":
		return matPauliX(), nil
	case "PauliY":
		return matPauliY(), nil
	case "PauliZ":
		return matPauliZ(), nil
	default:
		return [2][2]complex128{}, fmt.Errorf("observable %s not implemented by %s", name, Name)
	}
}
