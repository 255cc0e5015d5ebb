package log

import (
	"sync/atomic"

	"golang.org/x/exp/slog"
)

// Sampler decides, for one log call, whether the call should actually
// write a record. It exists so hot paths in the dependence engine (one
// call per trace record) can log at a fraction of their natural rate
// without the caller hand-rolling a counter at every call site.
type Sampler interface {
	sample() bool
}

// EveryN lets through every Nth call; N==0 lets everything through.
type EveryN struct {
	N       uint32
	counter uint32
}

func (e *EveryN) sample() bool {
	if e == nil || e.N == 0 {
		return true
	}
	return atomic.AddUint32(&e.counter, 1)%e.N == 0
}

type conditional struct{ ok bool }

func (c *conditional) sample() bool { return c == nil || c.ok }

var (
	_ Sampler = &EveryN{}
	_ Sampler = &conditional{}
)

func by(s Sampler, level slog.Level, msg string, ctx []any) {
	if s == nil || s.sample() {
		Root().Write(level, msg, ctx...)
	}
}

// TraceBy, DebugBy, InfoBy, WarnBy, and ErrorBy log at their level through
// Root() only when s lets the call through. Passing a nil Sampler always
// logs — useful when a caller conditionally wants sampling.
func TraceBy(s Sampler, msg string, ctx ...any) { by(s, LevelTrace, msg, ctx) }
func DebugBy(s Sampler, msg string, ctx ...any) { by(s, LevelDebug, msg, ctx) }
func InfoBy(s Sampler, msg string, ctx ...any)  { by(s, LevelInfo, msg, ctx) }
func WarnBy(s Sampler, msg string, ctx ...any)  { by(s, LevelWarn, msg, ctx) }
func ErrorBy(s Sampler, msg string, ctx ...any) { by(s, LevelError, msg, ctx) }

// TraceIf, DebugIf, InfoIf, WarnIf, and ErrorIf log only when condition is
// true, for one-off guards that don't warrant a named Sampler.
func TraceIf(condition bool, msg string, ctx ...any) { by(&conditional{condition}, LevelTrace, msg, ctx) }
func DebugIf(condition bool, msg string, ctx ...any) { by(&conditional{condition}, LevelDebug, msg, ctx) }
func InfoIf(condition bool, msg string, ctx ...any)  { by(&conditional{condition}, LevelInfo, msg, ctx) }
func WarnIf(condition bool, msg string, ctx ...any)  { by(&conditional{condition}, LevelWarn, msg, ctx) }
func ErrorIf(condition bool, msg string, ctx ...any) { by(&conditional{condition}, LevelError, msg, ctx) }
