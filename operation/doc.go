/*
Package operation provides the symbolic building blocks of a quantum circuit:
operations (gates and state preparations), observables (measurements with a
return type), the static registry describing every known kind, and the
queuing context that records a circuit while a device executes it.

# Operations and Observables

An Operation is a symbolic instruction: a registry name, ordered numeric
parameters and the wires it acts on. It performs no computation itself; a
device backend interprets it during execution.

	rx, err := operation.New("RX", []float64{0.543}, []int{0})

An Observable wraps an operation kind that can be measured, together with a
return type (expectation, variance or sample):

	obs, err := operation.Expval(pz)

# Registry

The registry is a pure lookup table from operation names to their parameter
arity, parameter domain, wire count and observable capability. Devices use it
during validation and test harnesses use it to synthesize parameter values.

# Queuing

While a device executes a circuit it holds the process-wide queuing slot.
Only one execution context may be active at a time; constructing an operation
with queuing enabled appends it to the active context and fails if there is
none.
*/
package operation
