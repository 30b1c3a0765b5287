// Package remote provides "remote.qpu", a backend that runs circuits on a
// remote quantum execution service over its HTTP job API. Importing the
// package registers the backend factory.
package remote

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/quantafoundry/quantum-devices-framework/datastore"
	"github.com/quantafoundry/quantum-devices-framework/device"
	"github.com/quantafoundry/quantum-devices-framework/operation"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// Name is the device registry name of this backend.
const Name = "remote.qpu"

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultJobTimeout   = 5 * time.Minute
)

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
	"BasisState",
}

var observableNames = []string{
	"Identity",
	"PauliX",
	"PauliY",
	"PauliZ",
}

// Remote proxies circuit execution to a remote service. Gates accumulate
// locally; each requested statistic is submitted as one job carrying the
// full circuit, so the hardware re-prepares the state per measurement.
type Remote struct {
	client *Client
	target string
	wires  int
	shots  int

	pollInterval time.Duration
	jobTimeout   time.Duration

	pending []GateOp
	store   datastore.Store
	lggr    logger.Logger
}

// New constructs a Remote backend from a backend config. Recognized options:
//
//	base_url      service URL (required)
//	api_key       bearer token
//	target        hardware target name on the service side
//	poll_interval job polling interval, as a time.Duration or duration string
//	job_timeout   per-job deadline, as a time.Duration or duration string
func New(cfg device.BackendConfig) (*Remote, error) {
	if cfg.Wires <= 0 {
		return nil, fmt.Errorf("remote backend requires a positive wire count, got %d", cfg.Wires)
	}

	baseURL, _ := cfg.Options["base_url"].(string)
	if baseURL == "" {
		return nil, fmt.Errorf("remote backend requires a base_url option")
	}

	lggr := cfg.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	var clientOpts []ClientOption
	if key, _ := cfg.Options["api_key"].(string); key != "" {
		clientOpts = append(clientOpts, WithAPIKey(key))
	}

	target, _ := cfg.Options["target"].(string)
	if target == "" {
		target = "default"
	}

	pollInterval, err := durationOption(cfg.Options, "poll_interval", defaultPollInterval)
	if err != nil {
		return nil, err
	}
	jobTimeout, err := durationOption(cfg.Options, "job_timeout", defaultJobTimeout)
	if err != nil {
		return nil, err
	}

	r := &Remote{
		client:       NewClient(baseURL, lggr, clientOpts...),
		target:       target,
		wires:        cfg.Wires,
		shots:        cfg.Shots,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		store:        datastore.NewMemoryStore(),
		lggr:         lggr.Named("Remote"),
	}

	// Calibration is advisory; an unreachable endpoint does not block
	// device construction.
	if err := r.RefreshCalibration(context.Background()); err != nil {
		r.lggr.Warnw("Calibration unavailable", "target", target, "err", err)
	}

	return r, nil
}

func durationOption(options map[string]any, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := options[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", key, err)
		}

		return d, nil
	default:
		return 0, fmt.Errorf("%s must be a duration, got %T", key, raw)
	}
}

func (r *Remote) Name() string { return Name }

func (r *Remote) Operations() []string {
	return append([]string(nil), gateNames...)
}

func (r *Remote) Observables() []string {
	return append([]string(nil), observableNames...)
}

func (r *Remote) Capabilities() map[string]any {
	caps := map[string]any{
		"model":  "qubit",
		"remote": true,
		"target": r.target,
	}
	if record, err := r.store.Latest(r.target); err == nil {
		caps["calibrated_at"] = record.UpdatedAt
	}

	return caps
}

// Reset drops the locally accumulated circuit.
func (r *Remote) Reset() error {
	r.pending = nil

	return nil
}

// Apply appends a gate to the pending circuit.
func (r *Remote) Apply(op *operation.Operation) error {
	r.pending = append(r.pending, GateOp{
		Name:   op.Name(),
		Wires:  op.Wires(),
		Params: op.Parameters(),
	})

	return nil
}

// PreMeasure logs the circuit about to be shipped.
func (r *Remote) PreMeasure(view device.QueueView) error {
	obs, err := view.ObsQueue()
	if err != nil {
		return err
	}
	r.lggr.Infow("Shipping circuit", "target", r.target, "gates", len(r.pending), "observables", len(obs))

	return nil
}

// Expval runs one expectation-value job on the remote service.
func (r *Remote) Expval(ob *operation.Observable) (float64, error) {
	values, err := r.runJob("expval", ob, 0)
	if err != nil {
		return 0, err
	}

	return values[0], nil
}

// Variance runs one variance job on the remote service.
func (r *Remote) Variance(ob *operation.Observable) (float64, error) {
	values, err := r.runJob("var", ob, 0)
	if err != nil {
		return 0, err
	}

	return values[0], nil
}

// Sample runs one sampling job on the remote service.
func (r *Remote) Sample(ob *operation.Observable, numSamples int) ([]float64, error) {
	values, err := r.runJob("sample", ob, numSamples)
	if err != nil {
		return nil, err
	}
	if len(values) != numSamples {
		return nil, fmt.Errorf("service returned %d samples, expected %d", len(values), numSamples)
	}

	return values, nil
}

func (r *Remote) runJob(kind string, ob *operation.Observable, samples int) ([]float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.jobTimeout)
	defer cancel()

	req := JobRequest{
		ID:     NewJobID(),
		Target: r.target,
		Shots:  r.shots,
		Circuit: Circuit{
			Wires: r.wires,
			Gates: append([]GateOp(nil), r.pending...),
		},
		Measure: Measurement{
			Kind:       kind,
			Observable: ob.Name(),
			Wires:      ob.Wires(),
			Samples:    samples,
		},
	}

	jobID, err := r.client.SubmitJob(ctx, req)
	if err != nil {
		return nil, err
	}
	r.lggr.Debugw("Job submitted", "job_id", jobID, "kind", kind, "observable", ob.Name())

	result, err := r.client.WaitForResult(ctx, jobID, r.pollInterval)
	if err != nil {
		return nil, err
	}
	if len(result.Values) > 0 {
		return result.Values, nil
	}
	if len(result.Counts) > 0 {
		return statisticFromCounts(kind, result.Counts, ob.Name(), ob.Wires()[0], samples)
	}

	return nil, fmt.Errorf("job %s returned no values", jobID)
}

// statisticFromCounts reduces raw measurement counts to the requested
// statistic. Count keys are basis-state bitstrings with wire 0 leftmost; the
// supported observables have eigenvalue +1 for bit 0 and -1 for bit 1, with
// Identity always +1.
func statisticFromCounts(kind string, counts map[string]int, observable string, wire, samples int) ([]float64, error) {
	eigenvalues := make(map[string]float64, len(counts))
	total := 0
	for bits, n := range counts {
		if wire >= len(bits) {
			return nil, fmt.Errorf("counts key %q too short for wire %d", bits, wire)
		}
		eig := 1.0
		if observable != "Identity" && bits[wire] == '1' {
			eig = -1
		}
		eigenvalues[bits] = eig
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("counts carry no shots")
	}

	mean := 0.0
	for bits, n := range counts {
		mean += eigenvalues[bits] * float64(n)
	}
	mean /= float64(total)

	switch kind {
	case "expval":
		return []float64{mean}, nil
	case "var":
		return []float64{1 - mean*mean}, nil
	case "sample":
		if total < samples {
			return nil, fmt.Errorf("counts carry %d shots, need %d samples", total, samples)
		}
		out := make([]float64, 0, samples)
		for _, bits := range sortedKeys(counts) {
			for i := 0; i < counts[bits] && len(out) < samples; i++ {
				out = append(out, eigenvalues[bits])
			}
		}

		return out, nil
	default:
		return nil, fmt.Errorf("unknown statistic kind %q", kind)
	}
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// RefreshCalibration fetches the current calibration snapshot and stores it
// under the backend's target name.
func (r *Remote) RefreshCalibration(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	record, err := r.client.Calibration(ctx)
	if err != nil {
		return err
	}
	if record.Device == "" {
		record.Device = r.target
	}

	return r.store.Add(record)
}

// Calibration returns the most recent calibration snapshot.
func (r *Remote) Calibration() (datastore.CalibrationRecord, error) {
	return r.store.Latest(r.target)
}
