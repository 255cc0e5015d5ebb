package dddg

// DynamicFunction is a specific invocation of a static Function, identified
// by (function handle, invocation index >= 1).
type DynamicFunction struct {
	Function   Handle
	Invocation int
}

// DynamicVariable is a register or symbol scoped to a DynamicFunction.
type DynamicVariable struct {
	Func     DynamicFunction
	Variable Handle
}

// UniqueLabel names an inlined-replica-aware source label: the function it
// belongs to, the label name itself, and the line it's attached to (spec
// §3 "Label map").
type UniqueLabel struct {
	Function string
	Label    string
	Line     int
}
