// Package optest provides utilities for operation testing.
package optest

import (
	"math/rand/v2"

	"github.com/quantafoundry/quantum-devices-framework/operation"
)

// RandomParams synthesizes a parameter vector for the given registry entry,
// respecting its parameter domain: natural-domain kinds get small integer
// values, real-domain kinds get continuous values in [0, 1). Array-domain
// kinds have no fixed arity and return false; callers should skip them.
func RandomParams(info operation.Info, rng *rand.Rand) ([]float64, bool) {
	if info.Domain == operation.DomainArray {
		return nil, false
	}

	params := make([]float64, info.NumParams)
	for i := range params {
		switch info.Domain {
		case operation.DomainNatural:
			params[i] = float64(rng.IntN(4))
		default:
			params[i] = rng.Float64()
		}
	}

	return params, true
}

// SequentialWires returns the wire list [0, 1, ..., n-1] for an entry acting
// on n wires. Entries with a free wire count get a single wire.
func SequentialWires(info operation.Info) []int {
	n := info.NumWires
	if n == 0 {
		n = 1
	}
	wires := make([]int, n)
	for i := range wires {
		wires[i] = i
	}

	return wires
}

// RandomOperation synthesizes an operation instance for the given registry
// entry, or false for array-domain entries.
func RandomOperation(info operation.Info, rng *rand.Rand) (*operation.Operation, bool) {
	params, ok := RandomParams(info, rng)
	if !ok {
		return nil, false
	}

	op, err := operation.New(info.Name, params, SequentialWires(info))
	if err != nil {
		return nil, false
	}

	return op, true
}
