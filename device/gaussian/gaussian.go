// Package gaussian provides "default.gaussian", a continuous-variable
// backend that tracks Gaussian states exactly through their means and
// covariance matrix. Importing the package registers the backend factory.
package gaussian

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/quantafoundry/quantum-devices-framework/device"
	"github.com/quantafoundry/quantum-devices-framework/operation"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// Name is the device registry name of this backend.
const Name = "default.gaussian"

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
	"Rotation",
	"Displacement",
	"Squeezing",
	"Beamsplitter",
	"TwoModeSqueezing",
}

var observableNames = []string{
	"X",
	"P",
	"NumberOperator",
}

// Gaussian is a continuous-variable backend restricted to Gaussian gates.
// Each wire is one bosonic mode.
type Gaussian struct {
	state *gaussianState
	rng   *rand.Rand
	lggr  logger.Logger
}

// New constructs a Gaussian backend from a backend config. The "seed" option
// (an int64 or int) makes quadrature sampling deterministic.
func New(cfg device.BackendConfig) (*Gaussian, error) {
	if cfg.Wires <= 0 {
		return nil, fmt.Errorf("gaussian backend requires a positive mode count, got %d", cfg.Wires)
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
			return nil, fmt.Errorf("gaussian backend seed must be an integer, got %T", raw)
		}
	}

	lggr := cfg.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	return &Gaussian{
		state: newGaussianState(cfg.Wires),
		rng:   rand.New(rand.NewPCG(seed, seed)),
		lggr:  lggr.Named("Gaussian"),
	}, nil
}

func (g *Gaussian) Name() string { return Name }

func (g *Gaussian) Operations() []string {
	return append([]string(nil), gateNames...)
}

func (g *Gaussian) Observables() []string {
	return append([]string(nil), observableNames...)
}

func (g *Gaussian) Capabilities() map[string]any {
	return map[string]any{
		"model": "cv",
		"hbar":  hbar,
	}
}

// Reset returns every mode to the vacuum state.
func (g *Gaussian) Reset() error {
	g.state.reset()

	return nil
}

// Apply applies one queued Gaussian gate.
func (g *Gaussian) Apply(op *operation.Operation) error {
	params := op.Parameters()
	wires := op.Wires()

	switch op.Name() {
	case "Rotation":
		g.state.applySymplectic(symRotation(params[0]), wires[:1])
	case "Displacement":
		g.state.displace(params[0], params[1], wires[0])
	case "Squeezing":
		g.state.applySymplectic(symSqueezing(params[0], params[1]), wires[:1])
	case "Beamsplitter":
		g.state.applySymplectic(symBeamsplitter(params[0], params[1]), wires[:2])
	case "TwoModeSqueezing":
		g.state.applySymplectic(symTwoModeSqueezing(params[0], params[1]), wires[:2])
	default:
		return fmt.Errorf("gate %s not implemented by %s", op.Name(), Name)
	}

	return nil
}

// PreMeasure logs the queue sizes before measurement.
func (g *Gaussian) PreMeasure(view device.QueueView) error {
	ops, err := view.OpQueue()
	if err != nil {
		return err
	}
	obs, err := view.ObsQueue()
	if err != nil {
		return err
	}
	g.lggr.Debugw("Measuring", "operations", len(ops), "observables", len(obs))

	return nil
}

// Expval returns the observable's expectation value, read directly from the
// first moments (X, P) or both moments (NumberOperator).
func (g *Gaussian) Expval(ob *operation.Observable) (float64, error) {
	mode := ob.Wires()[0]

	switch ob.Name() {
	case "X":
		return g.state.meanX(mode), nil
	case "P":
		return g.state.meanP(mode), nil
	case "NumberOperator":
		return g.state.meanPhotons(mode), nil
	default:
		return 0, fmt.Errorf("observable %s not implemented by %s", ob.Name(), Name)
	}
}

// Variance returns the observable's variance. Photon-number variance is not
// available in the means-and-covariance representation.
func (g *Gaussian) Variance(ob *operation.Observable) (float64, error) {
	mode := ob.Wires()[0]

	switch ob.Name() {
	case "X":
		return g.state.varX(mode), nil
	case "P":
		return g.state.varP(mode), nil
	default:
		return 0, fmt.Errorf("variance of %s not implemented by %s", ob.Name(), Name)
	}
}

// Sample draws quadrature samples from the mode's Gaussian marginal.
func (g *Gaussian) Sample(ob *operation.Observable, numSamples int) ([]float64, error) {
	mode := ob.Wires()[0]

	var mean, variance float64
	switch ob.Name() {
	case "X":
		mean, variance = g.state.meanX(mode), g.state.varX(mode)
	case "P":
		mean, variance = g.state.meanP(mode), g.state.varP(mode)
	default:
		return nil, fmt.Errorf("sampling %s not implemented by %s", ob.Name(), Name)
	}

	std := math.Sqrt(variance)
	samples := make([]float64, numSamples)
	for i := range samples {
		samples[i] = mean + std*g.rng.NormFloat64()
	}

	return samples, nil
}
