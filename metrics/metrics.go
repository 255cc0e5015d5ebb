// Package metrics registers the builder's running counters in their own
// registry, the way core/vm's opcode counters register into go-ethereum's
// metrics package: one call per counter, keyed by a namespaced name.
package metrics

import (
	"io"

	gometrics "github.com/rcrowley/go-metrics"
)

// Counter is the subset of gometrics.Counter the builder touches.
type Counter = gometrics.Counter

var registry = gometrics.NewRegistry()

// NewRegisteredCounter creates and registers a Counter under name.
func NewRegisteredCounter(name string) Counter {
	return gometrics.NewRegisteredCounter(name, registry)
}

var (
	// Nodes counts the nodes of every completed build in this process,
	// added once per build when it reaches end of trace.
	Nodes = NewRegisteredCounter("dddg/nodes")

	// RegisterEdges, MemoryEdges, and ControlEdges count edges flushed to a
	// ProgramStore, broken out by kind (spec §4.3).
	RegisterEdges = NewRegisteredCounter("dddg/edges/register")
	MemoryEdges   = NewRegisteredCounter("dddg/edges/memory")
	ControlEdges  = NewRegisteredCounter("dddg/edges/control")

	// Builds counts completed BuildInitialDDDG invocations; a trace with no
	// instruction records (EndOfTrace) is not counted.
	Builds = NewRegisteredCounter("dddg/builds")
)

// WriteOnce dumps every registered metric's current value to w, in
// go-metrics' plain-text format.
func WriteOnce(w io.Writer) {
	gometrics.WriteOnce(registry, w)
}
