/*
Package device implements the execution contract between symbolic quantum
circuits and the backends that run them.

A Device wraps a Backend with the validation and execution state machine:
it opens the process-wide queuing context, validates every queued operation
and observable against the backend's declared capability sets, drives the
backend's apply and pre-measure hooks, resolves each observable to a numeric
result in order, and tears the context down on every path.

Backends register a Factory under their device name, mirroring database
driver registration:

	import _ "github.com/quantafoundry/quantum-devices-framework/device/simulator"

	dev, err := device.New("default.qubit", 2)
	results, err := dev.Execute(ops, observables)

Construction fails with "Device does not exist" for unknown names and with a
framework-version error when a backend declares an incompatible constraint.
*/
package device
